package llm

// Role is the speaker of a chat message. docvault only sends user turns.
type Role string

const RoleUser Role = "user"

// Message is one chat turn sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest asks a provider to complete a conversation. An empty
// Model falls back to the provider's configured default.
type CompletionRequest struct {
	Model    string
	Messages []Message
}

// Prompt builds a request carrying text as the only user message.
func Prompt(model, text string) CompletionRequest {
	return CompletionRequest{
		Model:    model,
		Messages: []Message{{Role: RoleUser, Content: text}},
	}
}

// CompletionResponse is a provider's answer. Content is returned exactly as
// the model produced it.
type CompletionResponse struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}
