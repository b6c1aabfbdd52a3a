package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	entries    []Entry
	lastLimit  int
	lastOffset int
	inserted   []Entry
}

func (s *stubRepository) Insert(ctx context.Context, actor, action, entity, entityID string, at time.Time) error {
	s.inserted = append(s.inserted, Entry{Actor: actor, Action: action, Entity: entity, EntityID: entityID, At: at})
	return nil
}

func (s *stubRepository) TimelineWindow(ctx context.Context, filters Filters, limit, offset int) ([]Entry, error) {
	s.lastLimit = limit
	s.lastOffset = offset
	if len(s.entries) > limit {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func entryAt(ts string) Entry {
	t, _ := time.Parse(time.RFC3339, ts)
	return Entry{At: t, Actor: "admin@pulsedesk.local", Action: "permissions.replace", Entity: "user", EntityID: "7"}
}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepository{entries: []Entry{
		entryAt("2026-03-10T10:00:00Z"),
		entryAt("2026-03-09T09:00:00Z"),
		entryAt("2026-03-08T08:00:00Z"),
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), Filters{Page: 1, PageSize: 2})
	require.NoError(t, err)

	assert.Len(t, result.Rows, 2)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Zero(t, result.Paging.PrevPage)
	// One probe row beyond the page decides hasNext.
	assert.Equal(t, 3, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &stubRepository{}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), Filters{Page: 0, PageSize: 500})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Paging.Page)
	assert.Equal(t, maxPageSize, result.Paging.PageSize)
	assert.Equal(t, maxPageSize+1, repo.lastLimit)
	assert.NotNil(t, result.Rows)
	assert.Empty(t, result.Rows)
}

func TestRecordStampsTime(t *testing.T) {
	repo := &stubRepository{}
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600)) }

	require.NoError(t, svc.Record(context.Background(), "admin@pulsedesk.local", "license.generate", "license", "ACME"))

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC), repo.inserted[0].At)
}
