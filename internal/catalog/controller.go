package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/ninelinehq/ConnectPortal_Go/internal/broker"
	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/event"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
	"github.com/ninelinehq/ConnectPortal_Go/internal/metrics"
)

// Client is the slice of the broker client the controller needs
type Client interface {
	SearchApps(ctx context.Context, query string, limit int, cursor string) (broker.AppsPage, error)
}

// Controller drives one user's catalog search session: debounced
// queries, connectability filtering, slug-deduplicated accumulation and
// cursor paging. Results are applied only when they still match the
// live query, so a slow response for an old keystroke can never
// overwrite a newer one.
type Controller struct {
	client         Client
	bus            event.Bus
	pageSize       int
	externalUserID string

	mu      sync.Mutex
	query   string
	cursor  string
	entries []domain.CatalogEntry
	seen    map[string]struct{}
	hasMore bool
	active  bool

	pending *time.Timer

	fold cases.Caser
}

// NewController creates a search controller for one session. bus may be
// nil when no listener cares about search completion.
func NewController(client Client, bus event.Bus, externalUserID string, pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller{
		client:         client,
		bus:            bus,
		externalUserID: externalUserID,
		pageSize:       pageSize,
		fold:           cases.Fold(),
	}
}

// OnQueryChanged registers a keystroke. Any pending search is
// cancelled; a new one fires after the debounce interval unless another
// keystroke arrives first. Empty input clears the session immediately.
func (c *Controller) OnQueryChanged(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}

	query := strings.TrimSpace(text)
	c.query = query

	if query == "" {
		c.clearLocked()
		return
	}

	c.pending = time.AfterFunc(DebounceInterval, func() {
		c.runSearch(context.Background(), query)
	})
}

// Search performs an immediate search for the query, bypassing the
// debounce. Failure degrades to empty results; it never propagates.
func (c *Controller) Search(ctx context.Context, query string) ([]domain.CatalogEntry, bool) {
	query = strings.TrimSpace(query)

	c.mu.Lock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.query = query
	if query == "" {
		c.clearLocked()
		c.mu.Unlock()
		return nil, false
	}
	c.mu.Unlock()

	c.runSearch(ctx, query)
	return c.Results()
}

// LoadMore fetches the next page for the current search and appends
// entries whose slug has not been seen yet. Without a prior search, or
// once exhausted, it is a no-op that leaves the accumulation intact.
func (c *Controller) LoadMore(ctx context.Context) ([]domain.CatalogEntry, bool) {
	log := logger.FromContext(ctx)

	c.mu.Lock()
	if !c.active || !c.hasMore {
		entries, hasMore := c.snapshotLocked()
		c.mu.Unlock()
		log.Debug(LogMsgLoadMoreSkipped, "active", c.active)
		return entries, hasMore
	}
	query := c.query
	cursor := c.cursor
	c.mu.Unlock()

	metrics.CatalogSearches.Inc()
	page, err := c.client.SearchApps(ctx, query, c.pageSize*OverfetchFactor, cursor)

	c.mu.Lock()
	defer c.mu.Unlock()

	if query != c.query {
		metrics.CatalogSearchesStale.Inc()
		log.Debug(LogMsgStaleSearch, "query", query, "live_query", c.query)
		return c.snapshotLocked()
	}

	if err != nil {
		// Keep what we have, stop asking for more.
		c.hasMore = false
		log.Warn(LogMsgLoadMoreFailed, "query", query, "error", err)
		return c.snapshotLocked()
	}

	filtered, truncated := c.filterPage(page)
	for _, e := range filtered {
		key := c.fold.String(e.Slug)
		if _, dup := c.seen[key]; dup {
			continue
		}
		c.seen[key] = struct{}{}
		c.entries = append(c.entries, e)
	}
	c.cursor = page.NextCursor
	c.hasMore = page.HasMore || truncated

	return c.snapshotLocked()
}

// Results returns the accumulated entries and whether more are
// available. Safe to call at any time.
func (c *Controller) Results() ([]domain.CatalogEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Query returns the live query text
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// runSearch performs the broker call for query and applies the results
// if the query is still live when they arrive.
func (c *Controller) runSearch(ctx context.Context, query string) {
	log := logger.FromContext(ctx)
	log.Debug(LogMsgSearchStarted, "query", query)

	metrics.CatalogSearches.Inc()
	page, err := c.client.SearchApps(ctx, query, c.pageSize*OverfetchFactor, "")

	c.mu.Lock()
	if query != c.query {
		c.mu.Unlock()
		metrics.CatalogSearchesStale.Inc()
		log.Debug(LogMsgStaleSearch, "query", query)
		return
	}

	if err != nil {
		c.entries = nil
		c.seen = make(map[string]struct{})
		c.cursor = ""
		c.hasMore = false
		c.active = true
		c.mu.Unlock()
		log.Warn(LogMsgSearchFailed, "query", query, "error", err)
		return
	}

	filtered, truncated := c.filterPage(page)
	c.entries = filtered
	c.seen = make(map[string]struct{}, len(filtered))
	for _, e := range filtered {
		c.seen[c.fold.String(e.Slug)] = struct{}{}
	}
	c.cursor = page.NextCursor
	c.hasMore = page.HasMore || truncated
	c.active = true
	count, hasMore := len(c.entries), c.hasMore
	c.mu.Unlock()

	log.Debug(LogMsgSearchApplied, "query", query, "count", count, "has_more", hasMore)

	if c.bus != nil {
		//nolint:errcheck // completion events are best-effort
		c.bus.Publish(ctx, event.NewSearchCompletedEvent(c.externalUserID, query, count, hasMore))
	}
}

// filterPage drops non-connectable entries and truncates to the page
// size. The second return reports whether truncation dropped entries,
// which implies more are available regardless of the broker cursor.
func (c *Controller) filterPage(page broker.AppsPage) ([]domain.CatalogEntry, bool) {
	filtered := make([]domain.CatalogEntry, 0, c.pageSize)
	truncated := false
	for _, e := range page.Entries {
		if !e.Connectable() {
			continue
		}
		if len(filtered) == c.pageSize {
			truncated = true
			break
		}
		filtered = append(filtered, e)
	}
	return filtered, truncated
}

func (c *Controller) clearLocked() {
	c.entries = nil
	c.seen = nil
	c.cursor = ""
	c.hasMore = false
	c.active = false
}

func (c *Controller) snapshotLocked() ([]domain.CatalogEntry, bool) {
	out := make([]domain.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out, c.hasMore
}
