package question

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"felini_trivia/internal/domain"
)

const defaultCompletionsURL = "https://api.openai.com/v1"

// GenerativeSource fetches fresh question material from an external
// chat-completions service. It shares the Source contract with FileSource so
// the two are interchangeable behind the store.
type GenerativeSource struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewGenerativeSource(baseURL, apiKey, model string) *GenerativeSource {
	if baseURL == "" {
		baseURL = defaultCompletionsURL
	}
	return &GenerativeSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

const generationPrompt = `Write one original multiple-choice trivia question. ` +
	`Use exactly this layout:
Question: <question text>
Options:
A: <option>
B: <option>
C: <option>
D: <option>
E: <option>
Answer: <letter A-E>
Explanation: <one sentence>`

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

// Next requests one raw question from the completion service. Any failure is
// reported as ErrGenerationFailed; the caller never receives fabricated
// content.
func (s *GenerativeSource) Next(ctx context.Context) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: s.model,
		Messages: []completionMessage{
			{Role: "user", Content: generationPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	url := s.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: %s - %s", domain.ErrGenerationFailed, resp.Status, string(msg))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGenerationFailed)
	}
	return out.Choices[0].Message.Content, nil
}
