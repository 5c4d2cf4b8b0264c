package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenscart/backend/internal/domain"
)

func geminiReply(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		}},
	}
	body, _ := json.Marshal(resp)
	return string(body)
}

func newTestClient(serverURL string) *Client {
	return NewClient("test-key", serverURL, "gemini-1.5-flash")
}

func TestIdentifyProduct(t *testing.T) {
	image := []byte("fake-jpeg-bytes")

	t.Run("parses a structured reply", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Contains(t, r.URL.Path, "gemini-1.5-flash")
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))

			var req generateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Contents, 1)
			require.Len(t, req.Contents[0].Parts, 2)
			assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MimeType)

			w.Write([]byte(geminiReply(`{
				"identified_object": "Acme Phone X",
				"category": "Electronics",
				"brand": "Acme",
				"type": "smartphone",
				"confidence": 0.92,
				"search_terms": ["phone", "smartphone", "acme"]
			}`)))
		}))
		defer server.Close()

		ident, err := newTestClient(server.URL).IdentifyProduct(context.Background(), image)
		require.NoError(t, err)
		assert.Equal(t, "Acme Phone X", ident.IdentifiedObject)
		assert.Equal(t, "Electronics", ident.Category)
		assert.Equal(t, "Acme", ident.Brand)
		assert.Equal(t, "smartphone", ident.ObjectType)
		assert.Equal(t, 0.92, ident.Confidence)
		assert.Equal(t, []string{"phone", "smartphone", "acme"}, ident.SearchTerms)
	})

	t.Run("extracts JSON wrapped in prose", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(geminiReply("Here is the identification:\n```json\n" +
				`{"identified_object": "Running Shoes", "category": "Sports & Outdoors", "confidence": 0.8, "search_terms": ["shoes"]}` +
				"\n```\nLet me know if you need more.")))
		}))
		defer server.Close()

		ident, err := newTestClient(server.URL).IdentifyProduct(context.Background(), image)
		require.NoError(t, err)
		assert.Equal(t, "Running Shoes", ident.IdentifiedObject)
		assert.Equal(t, "Sports & Outdoors", ident.Category)
	})

	t.Run("unparseable reply degrades to the fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(geminiReply("I cannot tell what this is.")))
		}))
		defer server.Close()

		ident, err := newTestClient(server.URL).IdentifyProduct(context.Background(), image)
		require.NoError(t, err)
		assert.Equal(t, "Unidentified Product", ident.IdentifiedObject)
		assert.Equal(t, 0.3, ident.Confidence)
		assert.Equal(t, []string{"product", "item"}, ident.SearchTerms)
		assert.Contains(t, ident.Attributes, "raw_response")
	})

	t.Run("confidence is clamped to the unit interval", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(geminiReply(`{"identified_object": "Gadget", "confidence": 7.5, "search_terms": []}`)))
		}))
		defer server.Close()

		ident, err := newTestClient(server.URL).IdentifyProduct(context.Background(), image)
		require.NoError(t, err)
		assert.Equal(t, 1.0, ident.Confidence)
	})

	t.Run("bad request fails without retrying", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).IdentifyProduct(context.Background(), image)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrVisionFailure))
		assert.Equal(t, 1, calls)
	})

	t.Run("persistent server errors exhaust the retries", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).IdentifyProduct(context.Background(), image)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrVisionFailure))
		assert.Equal(t, 3, calls)
	})
}

func TestParseIdentification(t *testing.T) {
	t.Run("fills missing fields", func(t *testing.T) {
		ident := parseIdentification(`{"confidence": 0.5}`)
		assert.Equal(t, "Unknown Product", ident.IdentifiedObject)
		assert.NotNil(t, ident.SearchTerms)
	})

	t.Run("negative confidence clamps to zero", func(t *testing.T) {
		ident := parseIdentification(`{"identified_object": "Thing", "confidence": -1}`)
		assert.Equal(t, 0.0, ident.Confidence)
	})

	t.Run("truncates the raw response in the fallback", func(t *testing.T) {
		long := make([]byte, 500)
		for i := range long {
			long[i] = 'x'
		}
		ident := parseIdentification(string(long))
		raw := ident.Attributes["raw_response"].(string)
		assert.Len(t, raw, 200)
	})
}
