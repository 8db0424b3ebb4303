package chat

import "context"

// defaultSystemPrompt keeps the assistant on topic. Providers use it unless
// overridden with their prompt option.
const defaultSystemPrompt = "You are CityScout, a concise city guide. " +
	"Recommend places, neighborhoods, food, and activities in the city the " +
	"user asks about. Decline questions unrelated to travel or city life."

// Reply is a single assistant response.
type Reply struct {
	Text  string
	Model string
}

// Provider generates assistant replies. Implementations must be safe for
// concurrent use and must never log or retain the credential.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Reply sends the user message and returns the assistant's response.
	// The credential authenticates this single upstream call.
	Reply(ctx context.Context, credential, message string) (Reply, error)
}
