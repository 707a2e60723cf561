package ai

import "github.com/zenGate-Global/pagebot/platform/go/persistence"

// RequestFor builds the generation request for a stored page configuration. The live router
// and the configuration dry-run both go through it.
func RequestFor(cfg persistence.AIConfig, message string) Request {
	req := Request{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		APIKey:      cfg.APIKey,
		Message:     message,
	}
	if cfg.Instructions != nil {
		req.Instructions = *cfg.Instructions
	}
	if cfg.Tone != nil {
		req.Tone = *cfg.Tone
	}
	if cfg.Style != nil {
		req.Style = *cfg.Style
	}
	return req
}
