package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lenscart/backend/internal/domain"
)

// AnalyzeConfig holds configuration for the analyze service
type AnalyzeConfig struct {
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	MaxFetchSize int64
}

// AnalyzeService runs the image -> identification -> catalog search
// pipeline. Identifications are cached by content hash of the processed
// image so repeat uploads skip the vision round trip.
type AnalyzeService struct {
	vision       domain.VisionClient
	images       domain.ImageProcessor
	cache        domain.IdentificationCache
	search       *SearchService
	httpClient   *http.Client
	log          *zap.Logger
	cacheTTL     time.Duration
	maxFetchSize int64
}

// NewAnalyzeService creates an analyze service with dependencies
func NewAnalyzeService(
	vision domain.VisionClient,
	images domain.ImageProcessor,
	cache domain.IdentificationCache,
	search *SearchService,
	log *zap.Logger,
	config AnalyzeConfig,
) *AnalyzeService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	fetchTimeout := config.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 10 * time.Second
	}
	maxFetchSize := config.MaxFetchSize
	if maxFetchSize <= 0 {
		maxFetchSize = 10 << 20
	}

	return &AnalyzeService{
		vision:       vision,
		images:       images,
		cache:        cache,
		search:       search,
		httpClient:   &http.Client{Timeout: fetchTimeout},
		log:          log,
		cacheTTL:     cacheTTL,
		maxFetchSize: maxFetchSize,
	}
}

// AnalyzeImage identifies the product in the image and searches the catalog
// for similar products. Image validation faults are returned as errors for
// the delivery layer to map; a vision failure degrades to a zero-confidence
// identification so the caller still gets a search envelope.
func (s *AnalyzeService) AnalyzeImage(ctx context.Context, data []byte) (*domain.SearchResponse, error) {
	processed, err := s.images.Process(data)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(processed)
	key := hex.EncodeToString(sum[:])

	ident, ok := s.cache.Get(ctx, key)
	if ok {
		s.log.Debug("identification cache hit", zap.String("key", key))
	} else {
		ident, err = s.vision.IdentifyProduct(ctx, processed)
		if err != nil {
			s.log.Error("vision analysis failed", zap.Error(err))
			ident = domain.FailedIdentification()
		} else {
			s.cache.Set(ctx, key, ident, s.cacheTTL)
		}
	}

	s.log.Info("object identified",
		zap.String("object", ident.IdentifiedObject),
		zap.String("category", ident.Category),
		zap.String("brand", ident.Brand),
		zap.Float64("confidence", ident.Confidence))

	return s.search.FindSimilarProducts(ctx, ident, 0), nil
}

// AnalyzeImageURL downloads the image at the given URL and analyzes it
func (s *AnalyzeService) AnalyzeImageURL(ctx context.Context, imageURL string) (*domain.SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image fetch returned status %d", domain.ErrInvalidRequest, resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: URL does not point to an image (%s)", domain.ErrInvalidImage, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > s.maxFetchSize {
		return nil, fmt.Errorf("%w: download exceeds %d bytes", domain.ErrImageTooLarge, s.maxFetchSize)
	}

	return s.AnalyzeImage(ctx, data)
}
