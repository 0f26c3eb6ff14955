package calendar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalenso/kalenso/internal/domain/entity"
	repo "github.com/kalenso/kalenso/internal/domain/repository"
)

type memEvents struct {
	mu     sync.Mutex
	seq    int64
	events map[int64]*entity.Event
}

func newMemEvents() *memEvents {
	return &memEvents{events: make(map[int64]*entity.Event)}
}

func (m *memEvents) Create(_ context.Context, e *entity.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e.ID = m.seq
	c := *e
	m.events[e.ID] = &c
	return nil
}

func (m *memEvents) GetByID(_ context.Context, id int64) (*entity.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.events[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, repo.ErrNotFound
}

func (m *memEvents) ListByUser(_ context.Context, userID int64, from, to time.Time) ([]entity.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Event
	for _, e := range m.events {
		if e.UserID == userID && !e.StartsAt.Before(from) && e.StartsAt.Before(to) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memEvents) Update(_ context.Context, e *entity.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return repo.ErrNotFound
	}
	c := *e
	m.events[e.ID] = &c
	return nil
}

func (m *memEvents) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

var _ repo.EventRepository = (*memEvents)(nil)

func newTestService() *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewService(newMemEvents(), logger)
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	e, err := svc.Create(ctx, 1, EventInput{Title: "standup", StartsAt: start, EndsAt: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)

	_, err = svc.Create(ctx, 2, EventInput{Title: "other", StartsAt: start, EndsAt: start.Add(time.Hour)})
	require.NoError(t, err)

	events, err := svc.List(ctx, 1, start.Add(-time.Hour), start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "standup", events[0].Title)

	// outside the window
	events, err = svc.List(ctx, 1, start.Add(2*time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	e, err := svc.Create(ctx, 1, EventInput{Title: "standup", StartsAt: start, EndsAt: start.Add(time.Hour)})
	require.NoError(t, err)

	loc := "room 4"
	updated, err := svc.Update(ctx, 1, e.ID, EventInput{
		Title: "retro", StartsAt: start, EndsAt: start.Add(2 * time.Hour), Location: &loc,
	})
	require.NoError(t, err)
	assert.Equal(t, "retro", updated.Title)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "room 4", *updated.Location)
}

func TestOwnershipHidesForeignEvents(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	e, err := svc.Create(ctx, 1, EventInput{Title: "standup", StartsAt: start, EndsAt: start.Add(time.Hour)})
	require.NoError(t, err)

	// another user's update and delete both look like the event does not exist
	_, err = svc.Update(ctx, 2, e.ID, EventInput{Title: "hijack", StartsAt: start, EndsAt: start.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, e.ID), ErrEventNotFound)

	// owner still sees it untouched
	events, err := svc.List(ctx, 1, start.Add(-time.Hour), start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "standup", events[0].Title)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	e, err := svc.Create(ctx, 1, EventInput{Title: "standup", StartsAt: start, EndsAt: start.Add(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, e.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, e.ID), ErrEventNotFound)
}
