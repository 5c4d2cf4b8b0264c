package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lenscart/backend/internal/domain"
)

// identifyPrompt asks for a structured identification the matching engine
// can consume directly. The category list must stay in sync with
// domain.KnownCategories.
const identifyPrompt = `Analyze this image and identify the main product/object shown.

Respond with JSON in exactly this format:
{
    "identified_object": "exact product name if recognizable, otherwise generic description",
    "category": "one of: Electronics, Fashion, Home & Living, Beauty & Health, Sports & Outdoors",
    "brand": "brand name if clearly visible, otherwise null",
    "type": "specific product type (e.g. smartphone, sneakers, laptop)",
    "confidence": 0.0,
    "search_terms": ["array", "of", "relevant", "search", "keywords"],
    "attributes": {
        "color": "dominant color if applicable",
        "style": "style description if applicable",
        "features": "notable features visible"
    }
}

Confidence is a score between 0 and 1. Focus on information usable to search
a product database. If you cannot clearly identify the product, provide a
generic description with lower confidence.`

// Client calls the Gemini generateContent REST API to identify products in
// images
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new Gemini API client
func NewClient(apiKey, baseURL, model string) *Client {
	// The free tier allows 60 requests per minute; stay at 1/sec with a
	// small burst for retries.
	limiter := rate.NewLimiter(rate.Limit(1), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		rateLimiter: limiter,
	}
}

// SetDebug toggles response logging for development
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// IdentifyProduct sends the JPEG image to Gemini and parses the structured
// identification out of the model's reply. A malformed reply degrades to a
// low-confidence fallback identification; only transport/API failures return
// an error.
func (c *Client) IdentifyProduct(ctx context.Context, image []byte) (*domain.Identification, error) {
	payload := generateRequest{
		Contents: []requestContent{{
			Parts: []requestPart{
				{Text: identifyPrompt},
				{InlineData: &inlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	// Retry transient failures up to 3 times
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		respBody, status, err := c.doRequest(ctx, reqURL, body)
		if err != nil {
			lastErr = err
			time.Sleep(exponentialBackoff(attempt))
			continue
		}
		if status != http.StatusOK {
			lastErr = fmt.Errorf("%w: status %d", domain.ErrVisionFailure, status)
			if status == http.StatusBadRequest || status == http.StatusUnauthorized {
				return nil, lastErr
			}
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		var resp generateResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		text := responseText(&resp)
		if c.debug {
			log.Printf("[gemini] raw response: %s", text)
		}
		return parseIdentification(text), nil
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, reqURL string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "LensCart/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrVisionFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
}

func responseText(resp *generateResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// parseIdentification extracts the JSON object out of the model reply,
// which may be wrapped in prose or code fences. Unparseable replies become
// a low-confidence fallback rather than an error.
func parseIdentification(text string) *domain.Identification {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return fallbackIdentification(text)
	}

	var ident domain.Identification
	if err := json.Unmarshal([]byte(text[start:end+1]), &ident); err != nil {
		return fallbackIdentification(text)
	}

	if ident.IdentifiedObject == "" {
		ident.IdentifiedObject = "Unknown Product"
	}
	if ident.Confidence < 0 {
		ident.Confidence = 0
	}
	if ident.Confidence > 1 {
		ident.Confidence = 1
	}
	if ident.SearchTerms == nil {
		ident.SearchTerms = []string{}
	}
	return &ident
}

func fallbackIdentification(raw string) *domain.Identification {
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return &domain.Identification{
		IdentifiedObject: "Unidentified Product",
		ObjectType:       "product",
		Confidence:       0.3,
		SearchTerms:      []string{"product", "item"},
		Attributes:       map[string]any{"raw_response": raw},
	}
}
