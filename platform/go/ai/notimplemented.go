package ai

import (
	"context"
	"fmt"
)

// NotImplemented answers with a fixed placeholder for providers without an integration.
type NotImplemented struct {
	Provider string
}

func (n NotImplemented) Generate(_ context.Context, req Request) (string, error) {
	return fmt.Sprintf("[%s reply not available for: %q]", n.Provider, req.Message), nil
}
