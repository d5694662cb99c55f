package firebase

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/config"
	"github.com/Sardor-M/p-website-backend/errs"
)

// DefaultServiceAccountFile is looked up in the working directory when no
// explicit path is configured.
const DefaultServiceAccountFile = "firebase-service-account.json"

// Source names where a credential came from. It shows up in logs only.
type Source string

const (
	SourceBase64   Source = "FIREBASE_SERVICE_ACCOUNT"
	SourceFile     Source = "service account file"
	SourceRawJSON  Source = "FIREBASE_CONFIG"
	SourceDiscrete Source = "FIREBASE_PROJECT_ID/FIREBASE_CLIENT_EMAIL/FIREBASE_PRIVATE_KEY"
)

// Credential is a Google service account key.
type Credential struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id,omitempty"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id,omitempty"`
	TokenURI     string `json:"token_uri,omitempty"`

	Source Source `json:"-"`
	raw    []byte
}

// JSON returns the key in the form the Google client libraries accept.
func (c *Credential) JSON() ([]byte, error) {
	if len(c.raw) > 0 {
		return c.raw, nil
	}
	return json.Marshal(c)
}

// Environment is everything Resolve looks at.
type Environment struct {
	Firebase   config.FirebaseConfig
	Production bool
	WorkDir    string
	ReadFile   func(name string) ([]byte, error)
}

func NewEnvironment(cfg config.Config) Environment {
	wd, err := os.Getwd()
	if err != nil {
		log.Warn().Err(err).Msg("could not determine working directory")
	}
	return Environment{
		Firebase:   cfg.Firebase,
		Production: cfg.IsProduction(),
		WorkDir:    wd,
		ReadFile:   os.ReadFile,
	}
}

// Resolve returns the first credential found, in order: the base64 blob,
// the service account file, the raw JSON config (outside production) and
// finally the discrete project/email/key variables. A source that is present
// but unparsable is an errs.ErrCredentialMalformed error. When no source is
// present the error is errs.ErrNoCredentials.
func Resolve(env Environment) (*Credential, error) {
	fb := env.Firebase

	if fb.ServiceAccount != "" {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(fb.ServiceAccount))
		if err != nil {
			return nil, errs.NewCredentialMalformedError(string(SourceBase64), err)
		}
		return parseCredential(SourceBase64, decoded)
	}

	if cred, err := fromFile(env); cred != nil || err != nil {
		return cred, err
	}

	if fb.RawConfig != "" && !env.Production {
		return parseCredential(SourceRawJSON, []byte(fb.RawConfig))
	}

	if fb.ProjectID != "" && fb.ClientEmail != "" && fb.PrivateKey != "" {
		return &Credential{
			Type:        "service_account",
			ProjectID:   fb.ProjectID,
			ClientEmail: fb.ClientEmail,
			PrivateKey:  strings.ReplaceAll(fb.PrivateKey, `\n`, "\n"),
			Source:      SourceDiscrete,
		}, nil
	}

	return nil, errs.ErrNoCredentials
}

func fromFile(env Environment) (*Credential, error) {
	path := env.Firebase.ServiceAccountPath
	if path == "" {
		path = filepath.Join(env.WorkDir, DefaultServiceAccountFile)
	}

	readFile := env.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	data, err := readFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("no service account file")
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewCredentialMalformedError(path, err)
	}
	return parseCredential(SourceFile, data)
}

func parseCredential(source Source, data []byte) (*Credential, error) {
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, errs.NewCredentialMalformedError(string(source), err)
	}

	var missing []string
	if cred.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if cred.ClientEmail == "" {
		missing = append(missing, "client_email")
	}
	if cred.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		return nil, errs.NewCredentialMalformedError(string(source), fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}

	if cred.Type == "" {
		cred.Type = "service_account"
	} else {
		cred.raw = data
	}
	cred.Source = source
	return &cred, nil
}
