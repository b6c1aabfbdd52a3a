package audit

import (
	"context"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Service records admin actions and serves the audit timeline.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record appends one entry to the log.
func (s *Service) Record(ctx context.Context, actor, action, entity, entityID string) error {
	return s.repo.Insert(ctx, actor, action, entity, entityID, s.now().UTC())
}

// Timeline reads a page of entries, newest first. One extra row is fetched to
// decide whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters Filters) (Result, error) {
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.repo.TimelineWindow(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []Entry{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}
