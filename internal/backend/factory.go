// ABOUTME: Builds the configured answer backend
// ABOUTME: Maps backend.kind to a Stub, HTTP or OpenAI implementation

package backend

import (
	"fmt"
	"net/http"

	"github.com/2389/rag-gateway/internal/config"
)

// FromConfig returns the Backend selected by cfg.Kind.
func FromConfig(cfg config.BackendConfig) (Backend, error) {
	switch cfg.Kind {
	case config.BackendStub, "":
		return Stub{}, nil
	case config.BackendHTTP:
		return NewHTTP(cfg.HTTP.URL, &http.Client{}), nil
	case config.BackendOpenAI:
		return NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.SystemPrompt), nil
	default:
		return nil, fmt.Errorf("unknown backend kind: %s", cfg.Kind)
	}
}
