package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/pkg/constants"
)

// ContainerLister produces the enriched database listing
type ContainerLister interface {
	ListContainers(ctx context.Context, rootID string) (models.ListingResult, bool, error)
}

// ListingHandler serves the databases under the configured parent page
type ListingHandler struct {
	listing  ContainerLister
	parentID string
	logger   *zap.Logger
}

func NewListingHandler(listing ContainerLister, parentID string, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{listing: listing, parentID: parentID, logger: logger}
}

// List handles GET /api/databases
func (h *ListingHandler) List(c *gin.Context) {
	start := time.Now()
	result, hit, err := h.listing.ListContainers(c.Request.Context(), h.parentID)
	c.Header(constants.HeaderXResponseTime, elapsed(start))
	if err != nil {
		RespondAppError(c, h.logger, err)
		return
	}

	if hit {
		c.Header(constants.HeaderXCache, constants.CacheHit)
	} else {
		c.Header(constants.HeaderXCache, constants.CacheMiss)
		c.Header(constants.HeaderXDatabaseCount, strconv.Itoa(result.Count))
	}
	c.Header(constants.HeaderCacheControl, constants.ListingCacheValue)
	c.JSON(http.StatusOK, result)
}
