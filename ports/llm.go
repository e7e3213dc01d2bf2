package ports

import "context"

// ConversationTurn is one message in a generative request.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMClient is the generative-text capability the stages consume. The core
// does not depend on any particular model or transport; it only needs the
// completion text back.
type LLMClient interface {
	Complete(ctx context.Context, systemContext string, messages []ConversationTurn) (string, error)
}
