package pendingmedia_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	outboxevents "github.com/bionicotaku/lingo-services-media/internal/models/outbox_events"
	"github.com/bionicotaku/lingo-services-media/internal/models/po"
	pendingmedia "github.com/bionicotaku/lingo-services-media/internal/tasks/pending_media"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	items     []po.PendingMedia
	olderThan time.Time
	limit     int
	touched   []uuid.UUID
	listErr   error
}

func (s *fakeStore) ListStalePending(_ context.Context, _ txmanager.Session, olderThan time.Time, limit int) ([]po.PendingMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.olderThan = olderThan
	s.limit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.items, nil
}

func (s *fakeStore) TouchPending(_ context.Context, _ txmanager.Session, item po.PendingMedia) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, item.VideoID)
	return true, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*outboxevents.DomainEvent
	failOn uuid.UUID
}

func (p *recordingPublisher) Publish(_ context.Context, event *outboxevents.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.AggregateID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func TestReconciler_RepublishesStaleSlots(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	first, second := uuid.New(), uuid.New()
	store := &fakeStore{items: []po.PendingMedia{
		{VideoID: first, MediaType: po.MediaTypeVideo, RawLocation: "raw/1", UpdatedAt: now.Add(-time.Hour)},
		{VideoID: second, MediaType: po.MediaTypeTrailer, RawLocation: "raw/2", UpdatedAt: now.Add(-time.Hour)},
	}}
	publisher := &recordingPublisher{}

	reconciler, err := pendingmedia.NewReconciler(store, publisher, pendingmedia.Config{StaleAfter: 10 * time.Minute, BatchSize: 5, Concurrency: 2}, log.NewStdLogger(io.Discard))
	require.NoError(t, err)
	reconciler.WithClock(func() time.Time { return now })

	n, err := reconciler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.Equal(t, now.Add(-10*time.Minute), store.olderThan)
	require.Equal(t, 5, store.limit)
	require.ElementsMatch(t, []uuid.UUID{first, second}, store.touched)

	require.Len(t, publisher.events, 2)
	locations := map[uuid.UUID]string{}
	for _, event := range publisher.events {
		payload := event.Payload.(*outboxevents.AudioVideoMediaUploaded)
		locations[payload.VideoID] = payload.RawLocation
	}
	require.Equal(t, map[uuid.UUID]string{first: "raw/1", second: "raw/2"}, locations)
}

func TestReconciler_PublishFailureLeavesSlotUntouched(t *testing.T) {
	t.Parallel()

	failing, healthy := uuid.New(), uuid.New()
	store := &fakeStore{items: []po.PendingMedia{
		{VideoID: failing, MediaType: po.MediaTypeVideo, RawLocation: "raw/f"},
		{VideoID: healthy, MediaType: po.MediaTypeVideo, RawLocation: "raw/h"},
	}}
	publisher := &recordingPublisher{failOn: failing}

	reconciler, err := pendingmedia.NewReconciler(store, publisher, pendingmedia.Config{}, log.NewStdLogger(io.Discard))
	require.NoError(t, err)

	n, err := reconciler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []uuid.UUID{healthy}, store.touched)
}

func TestReconciler_ListFailure(t *testing.T) {
	t.Parallel()

	reconciler, err := pendingmedia.NewReconciler(&fakeStore{listErr: errors.New("db down")}, &recordingPublisher{}, pendingmedia.Config{}, log.NewStdLogger(io.Discard))
	require.NoError(t, err)

	_, err = reconciler.RunOnce(context.Background())
	require.Error(t, err)
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	reconciler, err := pendingmedia.NewReconciler(&fakeStore{}, &recordingPublisher{}, pendingmedia.Config{Interval: 10 * time.Millisecond}, log.NewStdLogger(io.Discard))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reconciler.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop in time")
	}
}

func TestNewReconciler_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := pendingmedia.NewReconciler(nil, &recordingPublisher{}, pendingmedia.Config{}, log.NewStdLogger(io.Discard))
	require.Error(t, err)
	_, err = pendingmedia.NewReconciler(&fakeStore{}, nil, pendingmedia.Config{}, log.NewStdLogger(io.Discard))
	require.Error(t, err)
}

func TestConfig_Normalize(t *testing.T) {
	t.Parallel()

	cfg := pendingmedia.Config{}.Normalize()
	require.Equal(t, time.Minute, cfg.Interval)
	require.Equal(t, 15*time.Minute, cfg.StaleAfter)
	require.Equal(t, 100, cfg.BatchSize)
	require.Equal(t, 4, cfg.Concurrency)
}
