// Package imagetext turns a product photo into query fields. A vision model
// reads the label text; ParseFields then pulls product name, manufacturer,
// and model out of whatever shape the model answered in.
package imagetext

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Fields is the extraction result. Any member may be empty.
type Fields struct {
	ProductName  string `json:"productName"`
	Manufacturer string `json:"manufacturer"`
	ModelName    string `json:"modelName"`
}

var (
	labeledRe = map[string]*regexp.Regexp{
		"product":      regexp.MustCompile(`(?m)(?:제품명|상품명|product)\s*[:：]\s*(.+)`),
		"manufacturer": regexp.MustCompile(`(?m)(?:제조사|제조업체|브랜드|manufacturer|brand)\s*[:：]\s*(.+)`),
		"model":        regexp.MustCompile(`(?m)(?:모델명|모델|model)\s*[:：]\s*(.+)`),
	}
	quotedRe = regexp.MustCompile(`"([^"]{2,})"`)
)

// ParseFields extracts fields from model output. Tried in order: a JSON
// object with the expected keys, labeled lines ("제품명: ..."), a quoted
// phrase, and finally the first token of at least three characters as a
// product-name guess.
func ParseFields(text string) Fields {
	text = strings.TrimSpace(text)
	if text == "" {
		return Fields{}
	}

	if f, ok := parseJSONFields(text); ok {
		return f
	}

	var f Fields
	if m := labeledRe["product"].FindStringSubmatch(text); m != nil {
		f.ProductName = cleanValue(m[1])
	}
	if m := labeledRe["manufacturer"].FindStringSubmatch(text); m != nil {
		f.Manufacturer = cleanValue(m[1])
	}
	if m := labeledRe["model"].FindStringSubmatch(text); m != nil {
		f.ModelName = cleanValue(m[1])
	}
	if f != (Fields{}) {
		return f
	}

	if m := quotedRe.FindStringSubmatch(text); m != nil {
		return Fields{ProductName: cleanValue(m[1])}
	}

	for _, tok := range strings.Fields(text) {
		if len([]rune(tok)) >= 3 {
			return Fields{ProductName: tok}
		}
	}
	return Fields{}
}

func parseJSONFields(text string) (Fields, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Fields{}, false
	}
	var f Fields
	if err := json.Unmarshal([]byte(text[start:end+1]), &f); err != nil {
		return Fields{}, false
	}
	f.ProductName = cleanValue(f.ProductName)
	f.Manufacturer = cleanValue(f.Manufacturer)
	f.ModelName = cleanValue(f.ModelName)
	return f, f != Fields{}
}

func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`+"`")
	if strings.EqualFold(s, "unknown") || s == "정보 없음" || s == "없음" {
		return ""
	}
	return s
}
