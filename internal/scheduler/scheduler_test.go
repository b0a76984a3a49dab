package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davelindo/eero-menu-bar-sub001/internal/cache"
	"github.com/davelindo/eero-menu-bar-sub001/internal/database/mocks"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/snapshot"
)

type stubFetcher struct {
	snap   *models.AccountSnapshot
	err    error
	filter map[string]struct{}
}

func (f *stubFetcher) FetchAccountSnapshot(ctx context.Context, filter map[string]struct{}) (*models.AccountSnapshot, error) {
	f.filter = filter
	return f.snap, f.err
}

func (f *stubFetcher) FetchAccountWithRawPayloads(ctx context.Context, filter map[string]struct{}) (*models.AccountSnapshot, []snapshot.RawNetwork, error) {
	return f.snap, nil, f.err
}

type recordingHealth struct {
	reports []bool
}

func (h *recordingHealth) Report(serving bool) {
	h.reports = append(h.reports, serving)
}

func TestRunOnceSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger, _ := test.NewNullLogger()
	snap := &models.AccountSnapshot{FetchedAt: time.Now(), Networks: []models.Network{{ID: "network-1"}}}
	fetcher := &stubFetcher{snap: snap}
	store, err := cache.New(4)
	require.NoError(t, err)
	health := &recordingHealth{}
	sink := mocks.NewMockUsageRepository(ctrl)
	sink.EXPECT().StoreSnapshot(gomock.Any(), snap).Return(nil)

	filter := map[string]struct{}{"123": {}}
	s := NewScheduler(context.Background(), fetcher, store, logger,
		WithSink(sink), WithHealth(health), WithFilter(filter))

	got, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, got)
	assert.Equal(t, filter, fetcher.filter)

	cached, ok := store.Get(filter)
	require.True(t, ok)
	assert.Same(t, snap, cached)
	assert.Equal(t, []bool{true}, health.reports)
}

func TestRunOnceSinkFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger, hook := test.NewNullLogger()
	snap := &models.AccountSnapshot{FetchedAt: time.Now()}
	store, err := cache.New(4)
	require.NoError(t, err)
	sink := mocks.NewMockUsageRepository(ctrl)
	sink.EXPECT().StoreSnapshot(gomock.Any(), snap).Return(errors.New("db down"))

	s := NewScheduler(context.Background(), &stubFetcher{snap: snap}, store, logger, WithSink(sink))

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)

	_, ok := store.Get(nil)
	assert.True(t, ok)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Failed to store usage history" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunOnceFetchFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store, err := cache.New(4)
	require.NoError(t, err)
	health := &recordingHealth{}

	s := NewScheduler(context.Background(), &stubFetcher{err: errors.New("account unavailable")}, store, logger, WithHealth(health))

	_, err = s.RunOnce(context.Background())
	require.Error(t, err)

	_, ok := store.Get(nil)
	assert.False(t, ok)
	assert.Equal(t, []bool{false}, health.reports)
}

func TestRunOnceFailureServesCachedSnapshot(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	defer func() { now = time.Now }()

	tests := []struct {
		name    string
		age     time.Duration
		stale   time.Duration
		cached  bool
		serving bool
	}{
		{name: "fresh cache", age: 5 * time.Minute, stale: 15 * time.Minute, cached: true, serving: true},
		{name: "stale cache", age: 20 * time.Minute, stale: 15 * time.Minute, cached: true, serving: false},
		{name: "empty cache", stale: 15 * time.Minute, serving: false},
		{name: "grace disabled", age: time.Minute, cached: true, serving: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			store, err := cache.New(4)
			require.NoError(t, err)
			filter := map[string]struct{}{"42": {}}
			if tt.cached {
				store.Put(filter, &models.AccountSnapshot{FetchedAt: fixed.Add(-tt.age)})
			}
			health := &recordingHealth{}

			s := NewScheduler(context.Background(), &stubFetcher{err: errors.New("offline")}, store, logger,
				WithHealth(health), WithFilter(filter), WithStaleAfter(tt.stale))

			got, err := s.RunOnce(context.Background())
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, []bool{tt.serving}, health.reports)
			if tt.serving {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, "Serving cached snapshot", hook.LastEntry().Message)
			} else {
				assert.Nil(t, hook.LastEntry())
			}
		})
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store, err := cache.New(1)
	require.NoError(t, err)

	s := NewScheduler(context.Background(), &stubFetcher{}, store, logger, WithSchedule("not a schedule"))
	assert.Error(t, s.Start())

	s = NewScheduler(context.Background(), &stubFetcher{}, store, logger, WithSchedule(""), WithTimeout(0))
	assert.Equal(t, DefaultSchedule, s.schedule)
	assert.Equal(t, DefaultTimeout, s.timeout)
	require.NoError(t, s.Start())
	s.Stop()
}
