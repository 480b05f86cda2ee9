package broker

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
)

type appEntry struct {
	NameSlug string  `json:"name_slug"`
	Name     string  `json:"name"`
	ImgSrc   string  `json:"img_src"`
	AuthType *string `json:"auth_type"`
}

type appsResponse struct {
	Data     []appEntry `json:"data"`
	PageInfo struct {
		EndCursor   string `json:"end_cursor"`
		HasNextPage bool   `json:"has_next_page"`
	} `json:"page_info"`
}

// AppsPage is one page of raw catalog results. Entries are unfiltered;
// the search controller decides what is displayable.
type AppsPage struct {
	Entries    []domain.CatalogEntry
	NextCursor string
	HasMore    bool
}

// SearchApps queries the app catalog sorted by featured weight,
// descending. An empty cursor starts from the first page.
func (c *Client) SearchApps(ctx context.Context, query string, limit int, cursor string) (AppsPage, error) {
	q := url.Values{}
	if query != "" {
		q.Set(ParamQuery, query)
	}
	q.Set(ParamLimit, strconv.Itoa(limit))
	q.Set(ParamSortKey, SortKeyFeatured)
	q.Set(ParamSortDirection, SortDesc)
	if cursor != "" {
		q.Set(ParamAfter, cursor)
	}

	var resp appsResponse
	if err := c.doJSON(ctx, http.MethodGet, PathApps, q, nil, &resp); err != nil {
		return AppsPage{}, err
	}

	entries := make([]domain.CatalogEntry, 0, len(resp.Data))
	for _, a := range resp.Data {
		entries = append(entries, domain.CatalogEntry{
			Slug:        a.NameSlug,
			DisplayName: a.Name,
			IconURL:     a.ImgSrc,
			AuthType:    a.AuthType,
		})
	}

	return AppsPage{
		Entries:    entries,
		NextCursor: resp.PageInfo.EndCursor,
		HasMore:    resp.PageInfo.HasNextPage,
	}, nil
}
