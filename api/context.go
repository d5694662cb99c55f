package api

import (
	"context"
)

type keyType string

const (
	sanitizedBodyKey keyType = "sanitizedBody"
)

// ctxWithSanitizedBody stores the filtered JSON body tree
func ctxWithSanitizedBody(ctx context.Context, body any) context.Context {
	return context.WithValue(ctx, sanitizedBodyKey, body)
}

// ctxGetSanitizedBody returns the filtered JSON body tree, if the request had one
func ctxGetSanitizedBody(ctx context.Context) (any, bool) {
	body := ctx.Value(sanitizedBodyKey)
	return body, body != nil
}
