// Package alternatives suggests replacement products for a recalled item
// using a shopping search API. Results are advisory: any failure here yields
// an empty list, never an error to the search caller's user.
package alternatives

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/category"
	"github.com/safebuy/recallguard/internal/models"
)

const (
	maxAlternatives = 5
	resultsPerQuery = 10
	defaultShopURL  = "https://openapi.naver.com"
	shopSearchPath  = "/v1/search/shop.json"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// Client queries the shop search API. Credentials go in the vendor headers;
// an empty base URL uses the public endpoint.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
	logger       *zap.Logger
}

func NewClient(clientID, clientSecret, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultShopURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

type shopItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Image     string `json:"image"`
	LPrice    string `json:"lprice"`
	Brand     string `json:"brand"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2"`
	Category3 string `json:"category3"`
	Category4 string `json:"category4"`
}

type shopResponse struct {
	Items []shopItem `json:"items"`
}

// Find returns up to five alternatives for the recalled product. The whole
// product name is searched first; if that comes up short, each name token is
// tried in turn. Items are deduped by link and filtered to the recall's
// category when one is known.
func (c *Client) Find(ctx context.Context, productName, recallCategory string) ([]models.AlternativeProduct, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, nil
	}

	queries := []string{productName}
	for _, tok := range strings.Fields(productName) {
		if len([]rune(tok)) >= 2 && tok != productName {
			queries = append(queries, tok)
		}
	}

	seen := make(map[string]struct{})
	var out []models.AlternativeProduct
	for _, q := range queries {
		if len(out) >= maxAlternatives {
			break
		}
		items, err := c.search(ctx, q)
		if err != nil {
			// One failed query does not abort the rest; log and move on.
			c.logger.Warn("shop search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		for _, item := range items {
			if len(out) >= maxAlternatives {
				break
			}
			if item.Link == "" {
				continue
			}
			if _, dup := seen[item.Link]; dup {
				continue
			}
			if !matchesCategory(item, recallCategory) {
				continue
			}
			seen[item.Link] = struct{}{}
			out = append(out, models.AlternativeProduct{
				Title: htmlTagRe.ReplaceAllString(item.Title, ""),
				Brand: item.Brand,
				Price: formatPrice(item.LPrice),
				Image: item.Image,
				Link:  item.Link,
			})
		}
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, query string) ([]shopItem, error) {
	u := fmt.Sprintf("%s%s?query=%s&display=%d&sort=sim",
		c.baseURL, shopSearchPath, url.QueryEscape(query), resultsPerQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build shop request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shop request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shop request: status %d", resp.StatusCode)
	}

	var parsed shopResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode shop response: %w", err)
	}
	return parsed.Items, nil
}

// matchesCategory keeps an item when the recall category appears in any of
// the item's category levels. An unknown recall category keeps everything.
func matchesCategory(item shopItem, recallCategory string) bool {
	if recallCategory == "" || recallCategory == category.Unknown {
		return true
	}
	for _, c := range []string{item.Category1, item.Category2, item.Category3, item.Category4} {
		if strings.Contains(c, recallCategory) {
			return true
		}
	}
	return false
}

// formatPrice renders a raw won amount like "1250000" as "1,250,000원".
// Non-numeric input passes through untouched.
func formatPrice(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return raw
		}
	}
	var b strings.Builder
	n := len(raw)
	for i, r := range raw {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString("원")
	return b.String()
}
