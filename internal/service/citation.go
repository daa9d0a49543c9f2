package service

import (
	"context"
	"strings"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/store"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
)

func NewCitationService(store store.Store) *CitationService {
	return &CitationService{store: store}
}

// CitationService serves the captured sources of a user.
type CitationService struct {
	store store.Store
}

// SearchCitations returns up to limit citations matching search, newest
// first. The limit defaults to DefaultCitationLimit and is clamped to
// MaxCitationLimit.
func (c *CitationService) SearchCitations(ctx context.Context, owner, search string, limit int) ([]v1.Citation, error) {
	rows, err := c.store.ListCitations(ctx, owner, search, clamp(limit, DefaultCitationLimit, MaxCitationLimit))
	if err != nil {
		return nil, err
	}

	citations := make([]v1.Citation, 0, len(rows))
	for _, row := range rows {
		citations = append(citations, toAPICitation(row))
	}
	return citations, nil
}

// GetCitationsByIDs returns the citations of owner among ids in request
// order. Unknown ids are skipped.
func (c *CitationService) GetCitationsByIDs(ctx context.Context, owner string, ids []string) ([]v1.Citation, error) {
	seen := mapset.NewThreadUnsafeSet[string]()
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && seen.Add(id) {
			unique = append(unique, id)
		}
	}
	if len(unique) > MaxIDsPerLookup {
		return nil, ErrTooManyIDs
	}

	rows, err := c.store.ListCitationsFromIDs(ctx, owner, unique)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Citation, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	citations := make([]v1.Citation, 0, len(rows))
	for _, id := range unique {
		if row, ok := byID[id]; ok {
			citations = append(citations, toAPICitation(row))
		}
	}
	return citations, nil
}

// CreateCitation stores a captured source.
func (c *CitationService) CreateCitation(ctx context.Context, owner string, req *v1.CreateCitationRequest) (*v1.Citation, error) {
	if err := validateCreateCitation(req); err != nil {
		return nil, err
	}

	row := &model.Citation{
		ID:       uuid.New().String(),
		Owner:    owner,
		URL:      strings.TrimSpace(req.URL),
		Excerpt:  req.Excerpt,
		FullText: req.FullText,
		Format:   req.Format,
		Author:   req.Metadata.Author,
		Year:     req.Metadata.Year,
		Title:    req.Metadata.Title,
	}
	if err := c.store.CreateCitation(ctx, row); err != nil {
		return nil, err
	}

	citation := toAPICitation(row)
	return &citation, nil
}
