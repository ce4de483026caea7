// Package llm wraps the one external language model spell-correction (spec §4.6) talks to.
// Unlike the teacher's multi-backend gateway, this repository never needs to route a single
// request across several providers at once: cmd/podcastpipe wires up exactly one concrete
// Provider (OpenRouter or Ollama, picked once from config.Configuration.LLM.Provider at
// startup) and hands it to postprocess.SpellCorrect for the lifetime of the process.
package llm

import "context"

// ContentPart is one piece of a multimodal chat message. SpellCorrect only ever sends "text"
// parts. OpenRouterProvider also forwards "image" and "input_audio" parts; OllamaProvider
// forwards "image" parts and drops "input_audio" parts.
type ContentPart struct {
	Type        string `json:"type"` // "text", "image", or "input_audio"
	Text        string `json:"text,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	AudioData   string `json:"audio_data,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`
}

// Message is one turn in a chat request.
type Message struct {
	Role    string        `json:"role"` // "system", "user", "assistant"
	Content []ContentPart `json:"content"`
}

// ChatRequest is the spell-correction prompt sent to whichever Provider is configured.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ChatResponseChunk is one piece of a streamed chat response. Non-streaming providers still
// deliver their single reply as one chunk down the same channel.
type ChatResponseChunk struct {
	Text         string  `json:"text"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	Cost         float64 `json:"cost,omitempty"`
	Error        error   `json:"error,omitempty"`
}

// Provider is the interface postprocess.SpellCorrect programs against; it is deliberately
// narrow enough that swapping OpenRouter for Ollama (or a future backend) needs no change
// outside cmd/podcastpipe's startup wiring.
type Provider interface {
	// Chat issues request and streams the reply back on the returned channel, closing it
	// when the reply is complete or the context is cancelled.
	Chat(ctx context.Context, request *ChatRequest) (<-chan ChatResponseChunk, error)

	// Name identifies the provider for logging.
	Name() string
}
