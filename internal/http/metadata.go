package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chadjholmes/bookends/internal/metadata"
)

// MetadataClient is the slice of the OpenLibrary client the lookup
// endpoints use. Requests are scoped to the HTTP request context, so a
// superseded in-flight lookup is cancelled when its caller goes away and a
// late response can never overwrite a newer one.
type MetadataClient interface {
	Search(ctx context.Context, query string, limit int) ([]metadata.BookResult, error)
	Editions(ctx context.Context, workKey string) ([]metadata.Edition, error)
	SearchByISBN(ctx context.Context, isbn string) (*metadata.BookResult, error)
}

type MetadataController struct {
	client MetadataClient
}

func NewMetadataController(client MetadataClient) *MetadataController {
	return &MetadataController{client: client}
}

// Search returns ranked title candidates for a free-text query.
// GET /api/metadata/search?q=...&limit=...
func (mc *MetadataController) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "q is required")
		return
	}

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	results, err := mc.client.Search(c.Request.Context(), query, limit)
	if err != nil {
		respondInternalError(c, err, "metadata search")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

// Editions returns the known editions of a work.
// GET /api/metadata/editions/:work
func (mc *MetadataController) Editions(c *gin.Context) {
	workKey := c.Param("work")
	if workKey == "" {
		respondBadRequest(c, "work key is required")
		return
	}

	editions, err := mc.client.Editions(c.Request.Context(), workKey)
	if err != nil {
		respondInternalError(c, err, "fetch editions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"editions": editions, "total": len(editions)})
}

// ISBN looks up a single book by ISBN.
// GET /api/metadata/isbn/:isbn
func (mc *MetadataController) ISBN(c *gin.Context) {
	isbn := c.Param("isbn")
	result, err := mc.client.SearchByISBN(c.Request.Context(), isbn)
	if err != nil {
		respondNotFound(c, "book")
		return
	}
	c.JSON(http.StatusOK, result)
}
