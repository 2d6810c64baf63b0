package adaptation

import "context"

// TokenUsage reports generator-side token accounting when available.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// TextRequest is a single-turn rewrite request for the external
// text-generation collaborator.
type TextRequest struct {
	Model       string
	System      []string
	Prompt      string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// TextResponse is the collaborator's reply.
type TextResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// TextGenerator abstracts the external text-generation collaborator. It must
// return plain text or an error within the caller's deadline.
type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) (TextResponse, error)
}
