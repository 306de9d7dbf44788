package api

import (
	"context"
	"errors"
	"strings"

	"margin/internal/metadata"
	"margin/internal/store"
)

// PaperStore abstracts paper persistence interactions needed by the service.
type PaperStore interface {
	InsertPaper(ctx context.Context, url string, title, authors, abstract *string) (*store.Paper, error)
	GetPaper(ctx context.Context, id string) (*store.Paper, error)
	ListPapers(ctx context.Context, statuses ...store.PaperStatus) ([]*store.Paper, error)
	UpdatePaper(ctx context.Context, id string, update store.PaperUpdate) error
	DeletePaper(ctx context.Context, id string) error
}

// Resolver derives metadata for a URL. It never fails; unknown URLs
// resolve to an empty result.
type Resolver interface {
	Resolve(ctx context.Context, url string) metadata.Metadata
}

// PaperService exposes paper operations returning API DTOs.
type PaperService struct {
	store    PaperStore
	resolver Resolver
}

// NewPaperService constructs a PaperService. The resolver is optional;
// without one, papers are created with only their URL.
func NewPaperService(store PaperStore, resolver Resolver) *PaperService {
	if store == nil {
		return nil
	}
	return &PaperService{store: store, resolver: resolver}
}

// Add resolves metadata for url and creates the paper record. Resolution
// failure is not possible; a URL no source recognizes yields a record with
// every metadata field unknown.
func (s *PaperService) Add(ctx context.Context, url string) (*Paper, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("paper store unavailable")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("url is required")
	}
	var meta metadata.Metadata
	if s.resolver != nil {
		meta = s.resolver.Resolve(ctx, url)
	}
	record, err := s.store.InsertPaper(ctx, url, meta.Title, meta.Authors, meta.Abstract)
	if err != nil {
		return nil, err
	}
	dto := FromStorePaper(record)
	return &dto, nil
}

// List returns papers filtered by optional status strings.
func (s *PaperService) List(ctx context.Context, statuses ...string) ([]Paper, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	filters := make([]store.PaperStatus, 0, len(statuses))
	for _, status := range statuses {
		trimmed := store.PaperStatus(strings.TrimSpace(status))
		if trimmed == "" {
			continue
		}
		if !store.ValidPaperStatus(trimmed) {
			return nil, errors.New("unknown paper status: " + string(trimmed))
		}
		filters = append(filters, trimmed)
	}
	papers, err := s.store.ListPapers(ctx, filters...)
	if err != nil {
		return nil, err
	}
	return FromStorePapers(papers), nil
}

// Describe fetches a single paper.
func (s *PaperService) Describe(ctx context.Context, id string) (*Paper, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	record, err := s.store.GetPaper(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromStorePaper(record)
	return &dto, nil
}

// Update applies a partial update and returns the refreshed record.
func (s *PaperService) Update(ctx context.Context, id string, req UpdatePaperRequest) (*Paper, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("paper store unavailable")
	}
	update := store.PaperUpdate{
		Title:       req.Title,
		Authors:     req.Authors,
		Abstract:    req.Abstract,
		Outcome:     req.Outcome,
		CurrentPage: req.CurrentPage,
		PageCount:   req.PageCount,
	}
	if req.Status != nil {
		status := store.PaperStatus(strings.TrimSpace(*req.Status))
		update.Status = &status
	}
	if err := s.store.UpdatePaper(ctx, id, update); err != nil {
		return nil, err
	}
	return s.Describe(ctx, id)
}

// Remove deletes a paper. Deleting an unknown id is not an error.
func (s *PaperService) Remove(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return errors.New("paper store unavailable")
	}
	return s.store.DeletePaper(ctx, id)
}

// RefreshMetadata re-runs the resolver for a paper's URL and fills in
// only the metadata fields the record is still missing. Fields the user
// has already set, by hand or by an earlier resolution, are left alone.
func (s *PaperService) RefreshMetadata(ctx context.Context, id string) (*Paper, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("paper store unavailable")
	}
	record, err := s.store.GetPaper(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.resolver == nil {
		dto := FromStorePaper(record)
		return &dto, nil
	}

	meta := s.resolver.Resolve(ctx, record.URL)
	var update store.PaperUpdate
	if record.Title == nil {
		update.Title = meta.Title
	}
	if record.Authors == nil {
		update.Authors = meta.Authors
	}
	if record.Abstract == nil {
		update.Abstract = meta.Abstract
	}
	if update == (store.PaperUpdate{}) {
		dto := FromStorePaper(record)
		return &dto, nil
	}
	if err := s.store.UpdatePaper(ctx, id, update); err != nil {
		return nil, err
	}
	return s.Describe(ctx, id)
}

// ResolveMetadata runs the resolver without creating a record.
func (s *PaperService) ResolveMetadata(ctx context.Context, url string) Metadata {
	if s == nil || s.resolver == nil {
		return Metadata{}
	}
	return FromMetadata(s.resolver.Resolve(ctx, url))
}
