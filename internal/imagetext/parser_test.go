package imagetext

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseFields(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Fields
	}{
		{
			"json object",
			`{"productName": "유아용침대", "manufacturer": "Sunnybury", "modelName": "MC676"}`,
			Fields{ProductName: "유아용침대", Manufacturer: "Sunnybury", ModelName: "MC676"},
		},
		{
			"json inside prose",
			"라벨을 읽었습니다: {\"productName\": \"전기주전자\", \"manufacturer\": \"\", \"modelName\": \"EK-200\"}",
			Fields{ProductName: "전기주전자", ModelName: "EK-200"},
		},
		{
			"labeled lines",
			"제품명: 유모차\n제조사: 베이비코\n모델명: ST-100",
			Fields{ProductName: "유모차", Manufacturer: "베이비코", ModelName: "ST-100"},
		},
		{
			"partial labels",
			"모델명: EK-200",
			Fields{ModelName: "EK-200"},
		},
		{
			"quoted phrase",
			`라벨에는 "아기 침대" 라고 적혀 있습니다`,
			Fields{ProductName: "아기 침대"},
		},
		{
			"first long token fallback",
			"전기주전자 입니다",
			Fields{ProductName: "전기주전자"},
		},
		{
			"unknown placeholders dropped",
			`{"productName": "주전자", "manufacturer": "unknown", "modelName": "정보 없음"}`,
			Fields{ProductName: "주전자"},
		},
		{
			"empty",
			"   ",
			Fields{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFields(tt.text); got != tt.want {
				t.Errorf("ParseFields = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOpenAIExtractor_ExtractFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"content": `{"productName": "유아용침대", "manufacturer": "Sunnybury", "modelName": "MC676"}`,
				}},
			},
		})
	}))
	defer srv.Close()

	ex := NewOpenAIExtractor("test-key", srv.URL, "gpt-4o", time.Second)
	product, manufacturer, model, err := ex.ExtractFields(context.Background(), []byte{0xFF, 0xD8, 0x01})
	if err != nil {
		t.Fatal(err)
	}
	if product != "유아용침대" || manufacturer != "Sunnybury" || model != "MC676" {
		t.Errorf("got (%q, %q, %q)", product, manufacturer, model)
	}
}

func TestOpenAIExtractor_RejectsOversizedImage(t *testing.T) {
	ex := NewOpenAIExtractor("k", "http://invalid.localhost", "", time.Second)
	_, _, _, err := ex.ExtractFields(context.Background(), make([]byte, MaxImageBytes+1))
	if err == nil {
		t.Fatal("expected size error")
	}
}

func TestSniffMIME(t *testing.T) {
	if got := sniffMIME([]byte{0x89, 'P', 'N', 'G', 0x0D}); got != "image/png" {
		t.Errorf("png sniff = %s", got)
	}
	if got := sniffMIME([]byte{0x00, 0x01}); got != "image/jpeg" {
		t.Errorf("default sniff = %s", got)
	}
}
