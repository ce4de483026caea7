package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaProvider talks to a local Ollama daemon's /api/chat endpoint directly over HTTP —
// unlike OpenRouterProvider there is no published client SDK in the example pack for Ollama's
// chat API, so this repository keeps the teacher's hand-rolled ndjson transport rather than
// fabricating a dependency around it.
type OllamaProvider struct {
	baseURL string
}

func NewOllamaProvider(baseURL string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{baseURL: baseURL}
}

func (provider *OllamaProvider) Name() string {
	return "ollama"
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Model     string        `json:"model"`
	CreatedAt string        `json:"created_at"`
	Message   ollamaMessage `json:"message"`
	Done      bool          `json:"done"`
	// Usage metrics, only populated on the final (Done) line.
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

func (provider *OllamaProvider) Chat(ctx context.Context, request *ChatRequest) (<-chan ChatResponseChunk, error) {
	payload, jsonError := json.Marshal(ollamaChatRequest{
		Model:    request.Model,
		Messages: flattenOllamaMessages(request.Messages),
		Stream:   request.Stream,
	})
	if jsonError != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", jsonError)
	}

	responseChannel := make(chan ChatResponseChunk)
	go provider.runChat(ctx, payload, responseChannel)
	return responseChannel, nil
}

// flattenOllamaMessages collapses each Message's text parts into a single string and pulls
// any image parts out as bare base64 payloads — Ollama's chat wire format has no concept of a
// structured multimodal content array the way OpenRouter's does.
func flattenOllamaMessages(messages []Message) []ollamaMessage {
	ollamaMessages := make([]ollamaMessage, 0, len(messages))
	for _, message := range messages {
		var contentBuilder bytes.Buffer
		var images []string

		for _, contentPart := range message.Content {
			switch contentPart.Type {
			case "text":
				contentBuilder.WriteString(contentPart.Text)
			case "image":
				data := contentPart.ImageURL
				if commaIndex := bytes.IndexByte([]byte(data), ','); commaIndex != -1 {
					data = data[commaIndex+1:] // drop a "data:image/...;base64," prefix, if present
				}
				images = append(images, data)
			}
		}

		ollamaMessages = append(ollamaMessages, ollamaMessage{
			Role:    message.Role,
			Content: contentBuilder.String(),
			Images:  images,
		})
	}
	return ollamaMessages
}

// runChat issues the POST and scans the response body as newline-delimited JSON, pushing one
// ChatResponseChunk per line until the daemon reports Done or the connection ends.
func (provider *OllamaProvider) runChat(ctx context.Context, payload []byte, responseChannel chan<- ChatResponseChunk) {
	defer close(responseChannel)

	httpRequest, requestError := http.NewRequestWithContext(ctx, http.MethodPost, provider.baseURL+"/api/chat", bytes.NewReader(payload))
	if requestError != nil {
		responseChannel <- ChatResponseChunk{Error: requestError}
		return
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, executionError := http.DefaultClient.Do(httpRequest)
	if executionError != nil {
		responseChannel <- ChatResponseChunk{Error: executionError}
		return
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		var errorBody bytes.Buffer
		io.Copy(&errorBody, httpResponse.Body)
		responseChannel <- ChatResponseChunk{Error: fmt.Errorf("ollama API returned status %d: %s", httpResponse.StatusCode, errorBody.String())}
		return
	}

	scanner := bufio.NewScanner(httpResponse.Body)
	for scanner.Scan() {
		responseLine := scanner.Bytes()
		if len(responseLine) == 0 {
			continue
		}

		var ollamaResponse ollamaChatResponse
		if scanningError := json.Unmarshal(responseLine, &ollamaResponse); scanningError != nil {
			responseChannel <- ChatResponseChunk{Error: fmt.Errorf("failed to decode ollama response line: %w, line: %s", scanningError, string(responseLine))}
			return
		}

		chunk := ChatResponseChunk{Text: ollamaResponse.Message.Content}
		if ollamaResponse.Done {
			chunk.InputTokens = ollamaResponse.PromptEvalCount
			chunk.OutputTokens = ollamaResponse.EvalCount
		}
		if chunk.Text != "" || ollamaResponse.Done {
			responseChannel <- chunk
		}
	}

	if scanningError := scanner.Err(); scanningError != nil {
		responseChannel <- ChatResponseChunk{Error: scanningError}
	}
}
