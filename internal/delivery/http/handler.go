package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lenscart/backend/internal/domain"
)

// ImageAnalyzer runs the image identification and matching pipeline
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, data []byte) (*domain.SearchResponse, error)
	AnalyzeImageURL(ctx context.Context, imageURL string) (*domain.SearchResponse, error)
}

// ProductCatalog exposes the non-matching catalog reads
type ProductCatalog interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	SearchByText(ctx context.Context, query, category string, limit int) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (domain.CatalogStats, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analyzer       ImageAnalyzer
	catalog        ProductCatalog
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler
func NewHandler(analyzer ImageAnalyzer, catalog ProductCatalog, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{
		analyzer:       analyzer,
		catalog:        catalog,
		maxUploadBytes: maxUploadBytes,
	}
}

// Root returns API information
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "lenscart-backend",
		"version":     "1.0.0",
		"description": "Visual product matching over a product catalog",
		"endpoints": gin.H{
			"analyze_image":     "POST /api/v1/analyze/image",
			"analyze_image_url": "POST /api/v1/analyze/image-url",
			"products":          "GET /api/v1/products",
			"product_search":    "GET /api/v1/products/search",
			"categories":        "GET /api/v1/categories",
			"stats":             "GET /api/v1/stats",
			"health":            "GET /health",
		},
	})
}

// HealthCheck reports service and catalog health
func (h *Handler) HealthCheck(c *gin.Context) {
	stats, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":             "unhealthy",
			"database_connected": false,
			"total_products":     0,
			"timestamp":          time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"database_connected": true,
		"total_products":     stats.TotalProducts,
		"timestamp":          time.Now().UTC(),
	})
}

// AnalyzeImage handles multipart image uploads
func (h *Handler) AnalyzeImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image exceeds maximum upload size"})
		return
	}

	result, err := h.analyzer.AnalyzeImage(c.Request.Context(), data)
	if err != nil {
		h.renderAnalyzeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type analyzeURLRequest struct {
	ImageURL string `json:"image_url" binding:"required,url"`
}

// AnalyzeImageURL handles analysis of an image fetched from a URL
func (h *Handler) AnalyzeImageURL(c *gin.Context) {
	var req analyzeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_url is required and must be a valid URL"})
		return
	}

	result, err := h.analyzer.AnalyzeImageURL(c.Request.Context(), req.ImageURL)
	if err != nil {
		h.renderAnalyzeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) renderAnalyzeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrImageTooLarge),
		errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
	}
}

type listProductsQuery struct {
	Category    string   `form:"category"`
	Brand       string   `form:"brand"`
	MinPrice    *float64 `form:"min_price"`
	MaxPrice    *float64 `form:"max_price"`
	MinRating   *float64 `form:"min_rating"`
	InStockOnly bool     `form:"in_stock_only,default=true"`
	Limit       int      `form:"limit,default=20"`
	Offset      int      `form:"offset,default=0"`
}

// GetProducts returns a filtered product listing
func (h *Handler) GetProducts(c *gin.Context) {
	var q listProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), domain.ProductFilter{
		Category:    q.Category,
		Brand:       q.Brand,
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
		MinRating:   q.MinRating,
		InStockOnly: q.InStockOnly,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get products"})
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// SearchProducts performs a text search over the catalog
func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	limit := 20
	var limitQuery struct {
		Limit int `form:"limit,default=20"`
	}
	if err := c.ShouldBindQuery(&limitQuery); err == nil && limitQuery.Limit > 0 {
		limit = limitQuery.Limit
	}

	products, err := h.catalog.SearchByText(c.Request.Context(), query, c.Query("category"), limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// GetCategories returns all distinct product categories
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get categories"})
		return
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, categories)
}

// GetStats returns catalog statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get catalog stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"database_stats": stats,
		"timestamp":      time.Now().UTC(),
		"status":         "healthy",
	})
}
