package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Sardor-M/p-website-backend/errs"
)

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONStatus(w, http.StatusOK, data)
}

func (r Responder) WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	// Marshal first so a failure can still produce a clean 500
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	// Unexpected errors are logged in full but rendered generically
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Error:      "Internal Server Error",
			Status:     "error",
			Details:    "An unexpected error occurred",
		})
		return
	}

	event := r.logger.Warn()
	switch {
	case apiErr.StatusCode >= http.StatusInternalServerError:
		event = r.logger.Error()
	case errs.IsNotFound(err):
		event = r.logger.Debug()
	}
	event.Int("statusCode", apiErr.StatusCode).Str("error", apiErr.GetFullError()).Msg("request failed")

	response := ErrorResponse{
		StatusCode: apiErr.StatusCode,
		Error:      apiErr.Message(),
		Status:     "error",
		Field:      apiErr.Field,
		Fields:     apiErr.Fields,
		Details:    apiErr.Details,
	}
	if apiErr.StatusCode >= http.StatusInternalServerError {
		// details of server-side failures may name internals
		response.Field = ""
		response.Fields = nil
		response.Details = http.StatusText(apiErr.StatusCode)
	}

	r.WriteJSONStatus(w, apiErr.StatusCode, response)
}
