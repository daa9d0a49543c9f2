package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
)

// MaxIDsPerLookup is the most ids the server accepts in one by_ids call.
const MaxIDsPerLookup = 100

// SearchCitations lists the caller's citations matching query.
func (c *Client) SearchCitations(ctx context.Context, query string, limit int) ([]v1.Citation, error) {
	params := url.Values{}
	if query != "" {
		params.Set("search", query)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/citations"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var citations []v1.Citation
	if err := c.call(ctx, http.MethodGet, path, nil, &citations); err != nil {
		return nil, err
	}
	return citations, nil
}

// GetCitationsByIDs fetches citations in batches of MaxIDsPerLookup. Unknown
// ids are absent from the result.
func (c *Client) GetCitationsByIDs(ctx context.Context, ids []string) ([]v1.Citation, error) {
	var result []v1.Citation
	for start := 0; start < len(ids); start += MaxIDsPerLookup {
		end := min(start+MaxIDsPerLookup, len(ids))

		params := url.Values{}
		params.Set("ids", strings.Join(ids[start:end], ","))

		var batch []v1.Citation
		if err := c.call(ctx, http.MethodGet, "/citations/by_ids?"+params.Encode(), nil, &batch); err != nil {
			return nil, err
		}
		result = append(result, batch...)
	}
	return result, nil
}

// CreateCitation stores a captured source.
func (c *Client) CreateCitation(ctx context.Context, req *v1.CreateCitationRequest) (*v1.Citation, error) {
	var citation v1.Citation
	if err := c.call(ctx, http.MethodPost, "/citations", req, &citation); err != nil {
		return nil, err
	}
	return &citation, nil
}
