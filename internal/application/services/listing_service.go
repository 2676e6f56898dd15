package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/internal/domain/ports"
	"github.com/notionforge/backend/internal/domain/schema"
	"github.com/notionforge/backend/pkg/cache"
	"github.com/notionforge/backend/pkg/constants"
	apperrors "github.com/notionforge/backend/pkg/errors"
	"github.com/notionforge/backend/pkg/notion"
)

// DefaultListingTTL is how long a listing is served from cache
const DefaultListingTTL = 5 * time.Minute

// isoMillis renders timestamps the way the workspace API does
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// discovered is a child database found under the root page
type discovered struct {
	ID    string
	Title string
}

// ListingService lists the databases under a root page. Each database is
// enriched with its metadata in sequential batches of parallel calls, and
// whole listings are cached.
type ListingService struct {
	api       ports.WorkspaceAPI
	cache     *cache.TTLStore[models.ListingResult]
	eventBus  *EventBus
	batchSize int
	now       cache.Clock
	logger    *zap.Logger
}

// NewListingService creates a new ListingService. Zero ttl or batchSize
// select the defaults; a nil clock means time.Now.
func NewListingService(api ports.WorkspaceAPI, eventBus *EventBus, ttl time.Duration, batchSize int, clock cache.Clock, logger *zap.Logger) *ListingService {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	if batchSize <= 0 {
		batchSize = constants.DefaultEnrichBatchSize
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{
		api:       api,
		cache:     cache.NewTTLStore[models.ListingResult](ttl, clock),
		eventBus:  eventBus,
		batchSize: batchSize,
		now:       clock,
		logger:    logger,
	}
}

// ListContainers returns the enriched listing and whether it came from cache
func (s *ListingService) ListContainers(ctx context.Context, rootID string) (models.ListingResult, bool, error) {
	if entry, ok := s.cache.Get(constants.ListingCacheKey); ok {
		s.logger.Debug("listing cache hit", zap.Int("count", entry.Value.Count))
		s.emit(ctx, true, entry.Value.Count)
		return entry.Value, true, nil
	}
	if rootID == "" {
		return models.ListingResult{}, false, apperrors.NewConfigurationError(constants.EnvNotionParentPageID)
	}

	start := s.now()
	found, pages, err := s.discover(ctx, rootID)
	if err != nil {
		return models.ListingResult{}, false, fmt.Errorf("failed to list databases: %w", err)
	}
	s.logger.Info("discovered databases",
		zap.Int("count", len(found)),
		zap.Int("pages", pages),
		zap.Duration("elapsed", s.now().Sub(start)),
	)

	results, err := s.enrich(ctx, found)
	if err != nil {
		return models.ListingResult{}, false, err
	}

	result := models.ListingResult{
		Success: true,
		Count:   len(results),
		Results: results,
	}
	// Concurrent misses race here; whichever stores last is served next
	result.CachedAt = s.now().UTC().Format(isoMillis)
	s.cache.Set(constants.ListingCacheKey, result)
	s.emit(ctx, false, result.Count)
	return result, false, nil
}

// Invalidate drops the cached listing so the next call rebuilds it
func (s *ListingService) Invalidate() {
	s.cache.Delete(constants.ListingCacheKey)
}

// discover lists the child databases of rootID
func (s *ListingService) discover(ctx context.Context, rootID string) ([]discovered, int, error) {
	blocks, pages, err := childDatabases(ctx, s.api, rootID, s.logger)
	if err != nil {
		return nil, pages, err
	}
	found := make([]discovered, 0, len(blocks))
	for _, b := range blocks {
		found = append(found, discovered{ID: b.ID, Title: b.ChildDatabase.Title})
	}
	return found, pages, nil
}

// childDatabases follows the child block cursor of rootID, keeping child
// databases. It also returns how many pages were read.
func childDatabases(ctx context.Context, api ports.WorkspaceAPI, rootID string, logger *zap.Logger) ([]notion.Block, int, error) {
	var found []notion.Block
	cursor := ""
	pages := 0
	for {
		list, err := api.ListBlockChildren(ctx, rootID, cursor)
		if err != nil {
			return nil, pages, err
		}
		pages++
		for _, b := range list.Results {
			if b.Type == "child_database" && b.ChildDatabase != nil && b.ID != "" {
				found = append(found, b)
			}
		}
		if !list.HasMore || list.NextCursor == nil || *list.NextCursor == "" {
			return found, pages, nil
		}
		if pages >= constants.DiscoveryPageCeiling {
			logger.Warn("reached discovery page limit, listing is partial",
				zap.Int("pages", pages), zap.Int("count", len(found)))
			return found, pages, nil
		}
		cursor = *list.NextCursor
	}
}

// enrich describes every discovered database. Batches run one after another,
// the members of a batch run in parallel, and output order is discovery order.
func (s *ListingService) enrich(ctx context.Context, found []discovered) ([]models.ContainerSummary, error) {
	out := make([]models.ContainerSummary, len(found))
	for start := 0; start < len(found); start += s.batchSize {
		end := start + s.batchSize
		if end > len(found) {
			end = len(found)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				out[i] = s.describe(ctx, found[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// describe never fails; an unreadable database becomes a minimal summary
func (s *ListingService) describe(ctx context.Context, d discovered) models.ContainerSummary {
	db, err := s.api.RetrieveDatabase(ctx, d.ID)
	if err != nil {
		s.logger.Warn("failed to enrich database", zap.String("database_id", d.ID), zap.Error(err))
		return minimalSummary(d)
	}

	title := d.Title
	if title == "" && len(db.Title) > 0 {
		title = db.Title[0].PlainText
	}
	if title == "" {
		title = constants.UntitledTitle
	}

	summary := models.ContainerSummary{
		ID:                     d.ID,
		Title:                  title,
		URL:                    db.URL,
		LastEditedTime:         db.LastEditedTime,
		CreatedTime:            db.CreatedTime,
		Properties:             s.propertyNames(ctx, db),
		HasMultipleDataSources: len(db.DataSources) > 1,
		DataSources:            db.DataSources,
	}
	if !summary.HasMultipleDataSources {
		summary.DataSourceID = d.ID
		if len(db.DataSources) > 0 {
			summary.DataSourceID = db.DataSources[0].ID
		}
	}
	return summary
}

// propertyNames reads the schema from the first data source, or from the
// container itself when it has none
func (s *ListingService) propertyNames(ctx context.Context, db *notion.Database) []string {
	if len(db.DataSources) == 0 {
		return schema.PropertyMap(db.Properties).Names()
	}
	ds, err := s.api.RetrieveDataSource(ctx, db.DataSources[0].ID)
	if err != nil {
		s.logger.Warn("failed to get properties for database", zap.String("database_id", db.ID), zap.Error(err))
		return []string{}
	}
	return schema.PropertyMap(ds.Properties).Names()
}

func minimalSummary(d discovered) models.ContainerSummary {
	title := d.Title
	if title == "" {
		title = constants.UntitledTitle
	}
	return models.ContainerSummary{ID: d.ID, Title: title, Minimal: true}
}

func (s *ListingService) emit(ctx context.Context, hit bool, count int) {
	if s.eventBus != nil {
		s.eventBus.Emit(ctx, events.ListingServed, events.ListingPayload{CacheHit: hit, Count: count})
	}
}
