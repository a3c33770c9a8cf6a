package imagetext

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxImageBytes bounds accepted uploads. Larger payloads are rejected before
// any encoding work happens.
const MaxImageBytes = 30 << 20

// OpenAIExtractor reads label text from a product photo through an
// OpenAI-compatible vision model and parses it into query fields.
type OpenAIExtractor struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIExtractor creates an extractor. Empty baseURL defaults to
// https://api.openai.com; empty model defaults to gpt-4o.
func NewOpenAIExtractor(apiKey, baseURL, model string, timeout time.Duration) *OpenAIExtractor {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "gpt-4o"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIExtractor{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type visionRequest struct {
	Model    string          `json:"model"`
	Messages []visionMessage `json:"messages"`
}

type visionMessage struct {
	Role    string       `json:"role"`
	Content []visionPart `json:"content"`
}

type visionPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *visionImage `json:"image_url,omitempty"`
}

type visionImage struct {
	URL string `json:"url"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const extractPrompt = `사진 속 제품의 라벨과 포장을 읽고 다음 JSON으로만 답하세요:
{"productName": "...", "manufacturer": "...", "modelName": "..."}
확인할 수 없는 항목은 빈 문자열로 두세요.`

// ExtractFields implements the engine's image extractor contract.
func (e *OpenAIExtractor) ExtractFields(ctx context.Context, image []byte) (string, string, string, error) {
	if len(image) == 0 {
		return "", "", "", fmt.Errorf("image extraction: empty image")
	}
	if len(image) > MaxImageBytes {
		return "", "", "", fmt.Errorf("image extraction: image exceeds %d bytes", MaxImageBytes)
	}

	dataURL := "data:" + sniffMIME(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
	body, err := json.Marshal(visionRequest{
		Model: e.model,
		Messages: []visionMessage{{
			Role: "user",
			Content: []visionPart{
				{Type: "text", Text: extractPrompt},
				{Type: "image_url", ImageURL: &visionImage{URL: dataURL}},
			},
		}},
	})
	if err != nil {
		return "", "", "", fmt.Errorf("encode vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", "", "", fmt.Errorf("build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", "", "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", "", "", fmt.Errorf("vision request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", "", "", fmt.Errorf("decode vision response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", "", "", fmt.Errorf("vision response: no choices")
	}

	f := ParseFields(parsed.Choices[0].Message.Content)
	return f.ProductName, f.Manufacturer, f.ModelName, nil
}

func sniffMIME(image []byte) string {
	switch {
	case bytes.HasPrefix(image, []byte{0x89, 'P', 'N', 'G'}):
		return "image/png"
	case bytes.HasPrefix(image, []byte{0xFF, 0xD8}):
		return "image/jpeg"
	case bytes.HasPrefix(image, []byte("GIF8")):
		return "image/gif"
	case len(image) > 11 && bytes.Equal(image[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
