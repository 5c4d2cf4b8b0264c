package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lenscart/backend/internal/domain"
)

type stubVision struct {
	ident *domain.Identification
	err   error
	calls int
}

func (v *stubVision) IdentifyProduct(ctx context.Context, image []byte) (*domain.Identification, error) {
	v.calls++
	return v.ident, v.err
}

type stubProcessor struct {
	err error
}

func (p *stubProcessor) Process(data []byte) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return data, nil
}

type stubCache struct {
	entries map[string]*domain.Identification
	sets    int
}

func (c *stubCache) Get(ctx context.Context, key string) (*domain.Identification, bool) {
	ident, ok := c.entries[key]
	return ident, ok
}

func (c *stubCache) Set(ctx context.Context, key string, ident *domain.Identification, ttl time.Duration) {
	if c.entries == nil {
		c.entries = make(map[string]*domain.Identification)
	}
	c.entries[key] = ident
	c.sets++
}

func newAnalyzeFixture(vision *stubVision, processor *stubProcessor, cache *stubCache) (*AnalyzeService, *stubStore) {
	store := &stubStore{}
	search := NewSearchService(store, zap.NewNop(), SearchConfig{})
	svc := NewAnalyzeService(vision, processor, cache, search, zap.NewNop(), AnalyzeConfig{})
	return svc, store
}

func TestAnalyzeImage(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid image surfaces as an error", func(t *testing.T) {
		vision := &stubVision{}
		svc, _ := newAnalyzeFixture(vision, &stubProcessor{err: domain.ErrInvalidImage}, &stubCache{})

		if _, err := svc.AnalyzeImage(ctx, []byte("not an image")); !errors.Is(err, domain.ErrInvalidImage) {
			t.Fatalf("error = %v, want ErrInvalidImage", err)
		}
		if vision.calls != 0 {
			t.Errorf("vision.calls = %d, want 0", vision.calls)
		}
	})

	t.Run("vision failure degrades to a failed identification", func(t *testing.T) {
		vision := &stubVision{err: errors.New("quota exceeded")}
		cache := &stubCache{}
		svc, _ := newAnalyzeFixture(vision, &stubProcessor{}, cache)

		result, err := svc.AnalyzeImage(ctx, []byte("image-bytes"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != domain.StatusNotFound {
			t.Errorf("Status = %q, want %q", result.Status, domain.StatusNotFound)
		}
		if result.Identification == nil || result.Identification.IdentifiedObject != "Analysis Failed" {
			t.Errorf("Identification = %+v, want Analysis Failed", result.Identification)
		}
		if cache.sets != 0 {
			t.Errorf("failed identification was cached, sets = %d", cache.sets)
		}
	})

	t.Run("successful identification is cached and searched", func(t *testing.T) {
		vision := &stubVision{ident: &domain.Identification{
			IdentifiedObject: "smartphone",
			Brand:            "Acme",
			Category:         "Electronics",
			Confidence:       0.9,
			SearchTerms:      []string{"phone"},
		}}
		cache := &stubCache{}
		svc, store := newAnalyzeFixture(vision, &stubProcessor{}, cache)
		store.products = func(q domain.ProductQuery) ([]domain.Product, error) {
			return []domain.Product{testProduct(1, "Acme Phone", "Acme", "Electronics")}, nil
		}

		result, err := svc.AnalyzeImage(ctx, []byte("image-bytes"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != domain.StatusFound {
			t.Errorf("Status = %q, want %q", result.Status, domain.StatusFound)
		}
		if cache.sets != 1 {
			t.Errorf("cache.sets = %d, want 1", cache.sets)
		}
	})

	t.Run("cache hit skips the vision call", func(t *testing.T) {
		vision := &stubVision{ident: &domain.Identification{IdentifiedObject: "smartphone"}}
		cache := &stubCache{}
		svc, _ := newAnalyzeFixture(vision, &stubProcessor{}, cache)

		if _, err := svc.AnalyzeImage(ctx, []byte("same-bytes")); err != nil {
			t.Fatalf("first call: %v", err)
		}
		if _, err := svc.AnalyzeImage(ctx, []byte("same-bytes")); err != nil {
			t.Fatalf("second call: %v", err)
		}
		if vision.calls != 1 {
			t.Errorf("vision.calls = %d, want 1", vision.calls)
		}
	})
}

func TestAnalyzeImageURL(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches and analyzes an image URL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		vision := &stubVision{ident: &domain.Identification{IdentifiedObject: "smartphone"}}
		svc, _ := newAnalyzeFixture(vision, &stubProcessor{}, &stubCache{})

		result, err := svc.AnalyzeImageURL(ctx, server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != domain.StatusNotFound {
			t.Errorf("Status = %q, want %q", result.Status, domain.StatusNotFound)
		}
		if vision.calls != 1 {
			t.Errorf("vision.calls = %d, want 1", vision.calls)
		}
	})

	t.Run("rejects non-image content types", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		}))
		defer server.Close()

		svc, _ := newAnalyzeFixture(&stubVision{}, &stubProcessor{}, &stubCache{})

		if _, err := svc.AnalyzeImageURL(ctx, server.URL); !errors.Is(err, domain.ErrInvalidImage) {
			t.Fatalf("error = %v, want ErrInvalidImage", err)
		}
	})

	t.Run("rejects error statuses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		svc, _ := newAnalyzeFixture(&stubVision{}, &stubProcessor{}, &stubCache{})

		if _, err := svc.AnalyzeImageURL(ctx, server.URL); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("rejects oversized downloads", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			w.Write(make([]byte, 2048))
		}))
		defer server.Close()

		store := &stubStore{}
		search := NewSearchService(store, zap.NewNop(), SearchConfig{})
		svc := NewAnalyzeService(&stubVision{}, &stubProcessor{}, &stubCache{}, search, zap.NewNop(), AnalyzeConfig{
			MaxFetchSize: 1024,
		})

		if _, err := svc.AnalyzeImageURL(ctx, server.URL); !errors.Is(err, domain.ErrImageTooLarge) {
			t.Fatalf("error = %v, want ErrImageTooLarge", err)
		}
	})
}
