package provider

import (
	"context"

	"sentinella/pkg/config"
	provideropenai "sentinella/pkg/provider/openai"
)

// Client issues synchronous completion calls against the configured endpoint.
//
// system carries the optional system prompt; flows that inline their
// instructions into the user text pass it empty.
type Client interface {
	Health(ctx context.Context) error
	Complete(ctx context.Context, system string, user string) (string, error)
}

// New constructs the completion client for the configured endpoint.
func New(cfg *config.Config) (Client, error) {
	return provideropenai.New(cfg)
}
