package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninelinehq/ConnectPortal_Go/internal/broker"
	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
)

type searchCall struct {
	query  string
	limit  int
	cursor string
}

// stubClient records search calls and answers via the respond func
type stubClient struct {
	mu      sync.Mutex
	calls   []searchCall
	respond func(query string, limit int, cursor string) (broker.AppsPage, error)
}

func (s *stubClient) SearchApps(ctx context.Context, query string, limit int, cursor string) (broker.AppsPage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, searchCall{query: query, limit: limit, cursor: cursor})
	s.mu.Unlock()
	return s.respond(query, limit, cursor)
}

func (s *stubClient) Calls() []searchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]searchCall{}, s.calls...)
}

func oauthEntry(slug string) domain.CatalogEntry {
	auth := "oauth"
	return domain.CatalogEntry{Slug: slug, DisplayName: slug, AuthType: &auth}
}

func noAuthEntry(slug string) domain.CatalogEntry {
	return domain.CatalogEntry{Slug: slug, DisplayName: slug, AuthType: nil}
}

func pageOf(hasMore bool, cursor string, entries ...domain.CatalogEntry) (broker.AppsPage, error) {
	return broker.AppsPage{Entries: entries, NextCursor: cursor, HasMore: hasMore}, nil
}

func TestController_Search(t *testing.T) {
	t.Run("filters non-connectable entries", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			return pageOf(false, "",
				oauthEntry("slack"), noAuthEntry("rss"), oauthEntry("github"))
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		results, hasMore := ctrl.Search(context.Background(), "s")

		require.Len(t, results, 2)
		for _, e := range results {
			assert.True(t, e.Connectable(), "non-connectable entries must never surface")
		}
		assert.False(t, hasMore)
	})

	t.Run("requests twice the page size", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			return pageOf(false, "")
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		ctrl.Search(context.Background(), "slack")

		calls := client.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, 20, calls[0].limit)
		assert.Equal(t, "slack", calls[0].query)
		assert.Empty(t, calls[0].cursor, "fresh search starts from the first page")
	})

	t.Run("twenty raw three connectable shows three", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			entries := make([]domain.CatalogEntry, 0, 20)
			for i := 0; i < 20; i++ {
				if i < 3 {
					entries = append(entries, oauthEntry(fmt.Sprintf("app_%d", i)))
				} else {
					entries = append(entries, noAuthEntry(fmt.Sprintf("feed_%d", i)))
				}
			}
			return pageOf(false, "", entries...)
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		results, hasMore := ctrl.Search(context.Background(), "app")

		assert.Len(t, results, 3)
		assert.False(t, hasMore)
	})

	t.Run("truncation implies more available", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			entries := make([]domain.CatalogEntry, 0, 20)
			for i := 0; i < 20; i++ {
				entries = append(entries, oauthEntry(fmt.Sprintf("app_%d", i)))
			}
			return pageOf(false, "cur_1", entries...)
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		results, hasMore := ctrl.Search(context.Background(), "app")

		assert.Len(t, results, 10)
		assert.True(t, hasMore, "dropped overfetch entries mean there is more to show")
	})

	t.Run("failure degrades to empty results", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			return broker.AppsPage{}, errors.New("broker down")
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		results, hasMore := ctrl.Search(context.Background(), "slack")

		assert.Empty(t, results)
		assert.False(t, hasMore)
	})

	t.Run("empty query clears the session", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			return pageOf(true, "cur_1", oauthEntry("slack"))
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		ctrl.Search(context.Background(), "slack")
		results, _ := ctrl.Results()
		require.NotEmpty(t, results)

		ctrl.Search(context.Background(), "   ")

		results, hasMore := ctrl.Results()
		assert.Empty(t, results)
		assert.False(t, hasMore)
		assert.Len(t, client.Calls(), 1, "clearing must not hit the broker")
	})
}

func TestController_Debounce(t *testing.T) {
	t.Run("two keystrokes inside the window cause one search for the second query", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			return pageOf(false, "", oauthEntry(q))
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		ctrl.OnQueryChanged("sla")
		time.Sleep(DebounceInterval / 3)
		ctrl.OnQueryChanged("slack")

		assert.Eventually(t, func() bool {
			return len(client.Calls()) == 1
		}, 2*time.Second, 10*time.Millisecond)

		// Give a cancelled first timer a chance to misfire
		time.Sleep(DebounceInterval * 2)

		calls := client.Calls()
		require.Len(t, calls, 1, "the first keystroke's search must be cancelled")
		assert.Equal(t, "slack", calls[0].query)
	})

	t.Run("clearing input cancels the pending search", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			return pageOf(false, "", oauthEntry(q))
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		ctrl.OnQueryChanged("slack")
		ctrl.OnQueryChanged("")

		time.Sleep(DebounceInterval * 2)
		assert.Empty(t, client.Calls())

		results, _ := ctrl.Results()
		assert.Empty(t, results)
	})
}

func TestController_StaleResponses(t *testing.T) {
	t.Run("slow response for an old query is dropped", func(t *testing.T) {
		release := make(chan struct{})
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			if q == "old" {
				<-release
				return pageOf(false, "", oauthEntry("old_app"))
			}
			return pageOf(false, "", oauthEntry("new_app"))
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.Search(context.Background(), "old")
		}()

		// Let the old search reach the broker, then supersede it
		assert.Eventually(t, func() bool { return len(client.Calls()) == 1 },
			time.Second, time.Millisecond)
		results, _ := ctrl.Search(context.Background(), "new")
		require.Len(t, results, 1)

		close(release)
		wg.Wait()

		results, _ = ctrl.Results()
		require.Len(t, results, 1)
		assert.Equal(t, "new_app", results[0].Slug, "stale results must not overwrite newer ones")
	})
}

func TestController_LoadMore(t *testing.T) {
	t.Run("without a prior search is an empty no-op", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			t.Fatal("broker must not be called")
			return broker.AppsPage{}, nil
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		results, hasMore := ctrl.LoadMore(context.Background())

		assert.Empty(t, results)
		assert.False(t, hasMore)
	})

	t.Run("appends unseen slugs only", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			if cursor == "" {
				return pageOf(true, "cur_1", oauthEntry("slack"), oauthEntry("github"))
			}
			return pageOf(false, "cur_2", oauthEntry("github"), oauthEntry("linear"))
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		ctrl.Search(context.Background(), "s")
		results, hasMore := ctrl.LoadMore(context.Background())

		require.Len(t, results, 3)
		slugs := []string{results[0].Slug, results[1].Slug, results[2].Slug}
		assert.Equal(t, []string{"slack", "github", "linear"}, slugs)
		assert.False(t, hasMore)
	})

	t.Run("dedup is case-insensitive", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			if cursor == "" {
				return pageOf(true, "cur_1", oauthEntry("Slack"))
			}
			return pageOf(false, "", oauthEntry("slack"))
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		ctrl.Search(context.Background(), "s")
		results, _ := ctrl.LoadMore(context.Background())

		assert.Len(t, results, 1)
	})

	t.Run("exhausted session leaves accumulation intact", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			return pageOf(false, "", oauthEntry("slack"))
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		ctrl.Search(context.Background(), "slack")

		for i := 0; i < 3; i++ {
			results, hasMore := ctrl.LoadMore(context.Background())
			assert.Len(t, results, 1)
			assert.False(t, hasMore)
		}
		assert.Len(t, client.Calls(), 1, "exhausted load-more must not hit the broker")
	})

	t.Run("failure keeps accumulation and stops paging", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			if cursor == "" {
				return pageOf(true, "cur_1", oauthEntry("slack"))
			}
			return broker.AppsPage{}, errors.New("broker down")
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		ctrl.Search(context.Background(), "slack")
		results, hasMore := ctrl.LoadMore(context.Background())

		assert.Len(t, results, 1, "accumulated entries survive a failed page")
		assert.False(t, hasMore)

		ctrl.LoadMore(context.Background())
		assert.Len(t, client.Calls(), 2, "no further paging after a failure")
	})

	t.Run("passes the cursor from the previous page", func(t *testing.T) {
		client := &stubClient{respond: func(q string, limit int, cursor string) (broker.AppsPage, error) {
			if cursor == "" {
				return pageOf(true, "cur_1", oauthEntry("slack"))
			}
			return pageOf(false, "cur_2", oauthEntry("github"))
		}}
		ctrl := NewController(client, nil, "user_123", 10)

		ctrl.Search(context.Background(), "s")
		ctrl.LoadMore(context.Background())

		calls := client.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "cur_1", calls[1].cursor)
	})
}
