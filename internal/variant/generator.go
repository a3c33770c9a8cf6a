// Package variant expands a user query into spelling and naming variants so
// that a single free-form input can hit records filed under slightly
// different names. Variants come from a language-model backend, are cached
// with a TTL, and are vetted against the dictionary before use.
package variant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/safebuy/recallguard/internal/normalize"
)

// Generator produces naming variants for a query term. Implementations must
// be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, original string, field normalize.Field) ([]string, error)
}

// OpenAIGenerator asks an OpenAI-compatible chat completions endpoint for
// variants. The response is expected to be a JSON array of strings but the
// parser tolerates code fences and surrounding prose.
type OpenAIGenerator struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIGenerator creates a generator against baseURL (default
// https://api.openai.com if empty) using the given chat model.
func NewOpenAIGenerator(apiKey, baseURL, model string, timeout time.Duration) *OpenAIGenerator {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "gpt-4o"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OpenAIGenerator{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func fieldHint(field normalize.Field) string {
	switch field {
	case normalize.FieldManufacturer:
		return "제조사 또는 브랜드 이름"
	case normalize.FieldModel:
		return "제품 모델명"
	default:
		return "제품 이름"
	}
}

// Generate requests up to ten variants for the original term. The original
// itself is always included as the first element of the result.
func (g *OpenAIGenerator) Generate(ctx context.Context, original string, field normalize.Field) ([]string, error) {
	prompt := fmt.Sprintf(
		"다음은 %s입니다: %q\n"+
			"이 이름의 표기 변형(띄어쓰기, 영문/한글 표기, 약칭, 흔한 오타)을 최대 10개까지 JSON 문자열 배열로만 답하세요. "+
			"설명 없이 배열만 출력하세요.",
		fieldHint(field), original)

	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You expand product, manufacturer, and model names into naming variants. Reply with a JSON array of strings only."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("encode variant request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build variant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("variant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("variant request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode variant response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("variant response: no choices")
	}

	variants := parseVariantList(parsed.Choices[0].Message.Content)
	return append([]string{original}, variants...), nil
}

// parseVariantList extracts a string list from model output. It strips code
// fences, then tries the first JSON array in the text, then falls back to
// treating the whole text as a single variant.
func parseVariantList(content string) []string {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		var list []string
		if err := json.Unmarshal([]byte(text[start:end+1]), &list); err == nil {
			return list
		}
	}

	if text == "" {
		return nil
	}
	return []string{strings.Trim(text, `"`)}
}
