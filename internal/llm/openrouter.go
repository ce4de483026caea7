package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	openrouter "github.com/revrost/go-openrouter"
)

// OpenRouterProvider sends spell-correction prompts through the OpenRouter API via
// github.com/revrost/go-openrouter, the SDK this repository's config.LLM.OpenRouter section
// targets.
type OpenRouterProvider struct {
	client      *openrouter.Client
	clientMutex sync.RWMutex
}

func NewOpenRouterProvider(apiKey string) *OpenRouterProvider {
	return &OpenRouterProvider{
		client: openrouter.NewClient(apiKey),
	}
}

// SetAPIKey swaps the underlying client, letting an operator rotate the key without
// restarting the process.
func (provider *OpenRouterProvider) SetAPIKey(apiKey string) {
	provider.clientMutex.Lock()
	defer provider.clientMutex.Unlock()
	provider.client = openrouter.NewClient(apiKey)
}

func (provider *OpenRouterProvider) Name() string {
	return "openrouter"
}

func (provider *OpenRouterProvider) Chat(ctx context.Context, request *ChatRequest) (<-chan ChatResponseChunk, error) {
	provider.clientMutex.RLock()
	client := provider.client
	provider.clientMutex.RUnlock()

	// postprocess never sends an "openrouter:" prefix itself, but strip it defensively in
	// case config.LLM.OpenRouter.DefaultModel is ever set from a copy-pasted OpenRouter model id.
	request.Model = strings.TrimPrefix(request.Model, "openrouter:")

	responseChannel := make(chan ChatResponseChunk)
	chatMessages := toOpenRouterMessages(request.Messages)

	go func() {
		defer close(responseChannel)

		if request.Stream {
			streamOpenRouterChat(ctx, client, request.Model, chatMessages, responseChannel)
			return
		}
		singleOpenRouterChat(ctx, client, request.Model, chatMessages, responseChannel)
	}()

	return responseChannel, nil
}

// toOpenRouterMessages converts the provider-agnostic Message slice into the SDK's own
// multimodal content shape.
func toOpenRouterMessages(messages []Message) []openrouter.ChatCompletionMessage {
	chatMessages := make([]openrouter.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		var contentParts []openrouter.ChatMessagePart
		for _, contentPart := range message.Content {
			switch contentPart.Type {
			case "text":
				contentParts = append(contentParts, openrouter.ChatMessagePart{
					Type: openrouter.ChatMessagePartTypeText,
					Text: contentPart.Text,
				})
			case "image":
				contentParts = append(contentParts, openrouter.ChatMessagePart{
					Type:     "image_url",
					ImageURL: &openrouter.ChatMessageImageURL{URL: contentPart.ImageURL},
				})
			case "input_audio":
				contentParts = append(contentParts, openrouter.ChatMessagePart{
					Type: openrouter.ChatMessagePartTypeInputAudio,
					InputAudio: &openrouter.ChatMessageInputAudio{
						Data:   contentPart.AudioData,
						Format: openrouter.AudioFormat(contentPart.AudioFormat),
					},
				})
			}
		}
		chatMessages = append(chatMessages, openrouter.ChatCompletionMessage{
			Role:    message.Role,
			Content: openrouter.Content{Multi: contentParts},
		})
	}
	return chatMessages
}

func streamOpenRouterChat(ctx context.Context, client *openrouter.Client, model string, chatMessages []openrouter.ChatCompletionMessage, responseChannel chan<- ChatResponseChunk) {
	completionStream, streamError := client.CreateChatCompletionStream(ctx, openrouter.ChatCompletionRequest{
		Model:    model,
		Messages: chatMessages,
		Stream:   true,
	})
	if streamError != nil {
		responseChannel <- ChatResponseChunk{Error: streamError}
		return
	}
	defer completionStream.Close()

	for {
		chatResponse, receiveError := completionStream.Recv()
		if receiveError != nil {
			if errors.Is(receiveError, io.EOF) {
				return
			}
			responseChannel <- ChatResponseChunk{Error: receiveError}
			return
		}
		if len(chatResponse.Choices) == 0 {
			continue
		}
		responseContent := chatResponse.Choices[0].Delta.Content
		responseChunk := ChatResponseChunk{Text: responseContent}
		if chatResponse.Usage != nil {
			responseChunk.InputTokens = chatResponse.Usage.PromptTokens
			responseChunk.OutputTokens = chatResponse.Usage.CompletionTokens
			responseChunk.Cost = chatResponse.Usage.Cost
		}
		if responseContent != "" || chatResponse.Usage != nil {
			responseChannel <- responseChunk
		}
	}
}

func singleOpenRouterChat(ctx context.Context, client *openrouter.Client, model string, chatMessages []openrouter.ChatCompletionMessage, responseChannel chan<- ChatResponseChunk) {
	chatResponse, chatError := client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:    model,
		Messages: chatMessages,
	})
	if chatError != nil {
		responseChannel <- ChatResponseChunk{Error: chatError}
		return
	}
	if len(chatResponse.Choices) == 0 {
		return
	}
	responseChannel <- ChatResponseChunk{
		Text:         chatResponse.Choices[0].Message.Content.Text,
		InputTokens:  chatResponse.Usage.PromptTokens,
		OutputTokens: chatResponse.Usage.CompletionTokens,
		Cost:         chatResponse.Usage.Cost,
	}
}
