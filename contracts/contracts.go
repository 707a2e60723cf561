// Package contracts embeds the HTTP API contract served and enforced by the API server.
package contracts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed api.yaml
var apiSpec []byte

// Load parses and validates the embedded OpenAPI document. Each call returns a fresh copy.
func Load() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(apiSpec)
	if err != nil {
		return nil, fmt.Errorf("load api contract: %w", err)
	}
	if err := spec.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate api contract: %w", err)
	}
	return spec, nil
}
