package notion

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	appLog "coursesync/internal/log"
)

// Filter is a database query filter. Either And is set, or Property with
// exactly one condition.
type Filter struct {
	Property string           `json:"property,omitempty"`
	Date     *DateCondition   `json:"date,omitempty"`
	Select   *SelectCondition `json:"select,omitempty"`
	And      []Filter         `json:"and,omitempty"`
}

type DateCondition struct {
	OnOrAfter  string `json:"on_or_after,omitempty"`
	OnOrBefore string `json:"on_or_before,omitempty"`
	IsNotEmpty bool   `json:"is_not_empty,omitempty"`
}

type SelectCondition struct {
	Equals string `json:"equals"`
}

type queryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// QueryAll returns every page of databaseID matching filter, following
// pagination cursors until the server reports no more results. Any failed
// request discards what was collected so far.
func (c *Client) QueryAll(ctx context.Context, databaseID string, filter *Filter) ([]Page, error) {
	if databaseID == "" {
		return nil, errors.New("notion: database id is empty")
	}
	path := "/databases/" + url.PathEscape(databaseID) + "/query"

	var all []Page
	req := queryRequest{Filter: filter}
	for round := 1; ; round++ {
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
			appLog.Error("notion query failed", err, "database", databaseID, "round", round, "collected", len(all))
			return nil, err
		}
		all = append(all, resp.Results...)
		appLog.Debug("notion query page", "database", databaseID, "round", round, "collected", len(all), "has_more", resp.HasMore)

		if !resp.HasMore {
			return all, nil
		}
		if resp.NextCursor == nil || *resp.NextCursor == "" {
			return nil, errors.New("notion: has_more without next_cursor")
		}
		req.StartCursor = *resp.NextCursor
	}
}
