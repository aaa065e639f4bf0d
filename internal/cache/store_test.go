package cache

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bigredeye/schoolbook/internal/models"
)

func newStore(t *testing.T, staleTime time.Duration, retries uint64) *Store {
	store := NewStore(Options{
		StaleTime: staleTime,
		Retries:   retries,
		Backoff:   func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}, zap.NewNop())
	t.Cleanup(store.Close)
	return store
}

func counting(calls *atomic.Int32, value interface{}) FetchFunc {
	return func(context.Context) (interface{}, error) {
		calls.Inc()
		return value, nil
	}
}

func TestFetchCachesWithinStaleTime(t *testing.T) {
	store := newStore(t, time.Minute, 0)
	calls := atomic.NewInt32(0)
	store.Register(KeyColumns, counting(calls, "columns"))

	for i := 0; i < 3; i++ {
		value, err := store.Fetch(context.Background(), KeyColumns)
		require.NoError(t, err)
		require.Equal(t, "columns", value)
	}
	require.Equal(t, int32(1), calls.Load())

	snapshot := store.Snapshot(KeyColumns)
	require.Equal(t, StatusSuccess, snapshot.Status)
	require.True(t, snapshot.HasData)
	require.False(t, snapshot.Stale)
	require.False(t, snapshot.Fetching)
	require.False(t, snapshot.UpdatedAt.IsZero())
}

func TestStaleDataIsRefetched(t *testing.T) {
	store := newStore(t, 20*time.Millisecond, 0)
	calls := atomic.NewInt32(0)
	store.Register(KeyStudents, counting(calls, "students"))

	_, err := store.Fetch(context.Background(), KeyStudents)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	require.True(t, store.Snapshot(KeyStudents).Stale)

	_, err = store.Fetch(context.Background(), KeyStudents)
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestConcurrentReadersShareOneFetch(t *testing.T) {
	store := newStore(t, time.Minute, 0)
	calls := atomic.NewInt32(0)
	release := make(chan struct{})
	store.Register(KeyLessons, func(context.Context) (interface{}, error) {
		calls.Inc()
		<-release
		return "lessons", nil
	})

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := store.Fetch(context.Background(), KeyLessons)
			return err
		})
	}
	close(release)

	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), calls.Load())
}

func TestRetries(t *testing.T) {
	for _, tc := range []struct {
		name    string
		retries uint64
		failOK  bool
		calls   int32
	}{
		{name: "recovers", retries: 3, calls: 3},
		{name: "gives up", retries: 1, failOK: true, calls: 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t, time.Minute, tc.retries)
			calls := atomic.NewInt32(0)
			store.Register(KeyColumns, func(context.Context) (interface{}, error) {
				if calls.Inc() < 3 {
					return nil, errors.New("boom")
				}
				return "columns", nil
			})

			value, err := store.Fetch(context.Background(), KeyColumns)
			require.Equal(t, tc.calls, calls.Load())

			snapshot := store.Snapshot(KeyColumns)
			if tc.failOK {
				require.Error(t, err)
				require.True(t, snapshot.IsError())
				require.False(t, snapshot.IsLoading())
				require.EqualError(t, snapshot.Err, "boom")
			} else {
				require.NoError(t, err)
				require.Equal(t, "columns", value)
				require.Equal(t, StatusSuccess, snapshot.Status)
			}
		})
	}
}

func TestShapeErrorIsNotRetried(t *testing.T) {
	store := newStore(t, time.Minute, 3)
	calls := atomic.NewInt32(0)
	store.Register(KeyLessons, func(context.Context) (interface{}, error) {
		calls.Inc()
		return nil, &models.CacheShapeError{Collection: KeyLessons}
	})

	_, err := store.Fetch(context.Background(), KeyLessons)
	shapeError := &models.CacheShapeError{}
	require.ErrorAs(t, err, &shapeError)
	require.Equal(t, int32(1), calls.Load())
}

func TestCancelDiscardsResult(t *testing.T) {
	store := newStore(t, time.Minute, 0)
	release := make(chan struct{})
	store.Register(KeyLessons, func(context.Context) (interface{}, error) {
		<-release
		return "late", nil
	})

	done := store.Ensure(KeyLessons)
	require.True(t, store.Snapshot(KeyLessons).IsLoading())

	store.Cancel(KeyLessons)
	snapshot := store.Snapshot(KeyLessons)
	require.Equal(t, StatusIdle, snapshot.Status)
	require.False(t, snapshot.Fetching)

	close(release)
	<-done

	_, found := store.Get(KeyLessons)
	require.False(t, found)
	require.Equal(t, StatusIdle, store.Snapshot(KeyLessons).Status)
}

func TestCancelKeepsPreviousData(t *testing.T) {
	store := newStore(t, time.Minute, 0)
	store.Set(KeyLessons, "old")

	release := make(chan struct{})
	defer close(release)
	store.Register(KeyLessons, func(ctx context.Context) (interface{}, error) {
		select {
		case <-release:
			return "new", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	store.Invalidate(KeyLessons)
	require.True(t, store.Snapshot(KeyLessons).Fetching)

	store.Cancel(KeyLessons)
	snapshot := store.Snapshot(KeyLessons)
	require.Equal(t, StatusSuccess, snapshot.Status)
	require.Equal(t, "old", snapshot.Data)
	require.True(t, snapshot.Stale)
}

func TestInvalidateRefetches(t *testing.T) {
	store := newStore(t, time.Minute, 0)
	calls := atomic.NewInt32(0)
	store.Register(KeyStudents, counting(calls, "students"))

	_, err := store.Fetch(context.Background(), KeyStudents)
	require.NoError(t, err)

	<-store.Invalidate(KeyStudents)
	require.Equal(t, int32(2), calls.Load())
	require.False(t, store.Snapshot(KeyStudents).Stale)
}

func TestUpdateReturnsPrevious(t *testing.T) {
	store := newStore(t, time.Minute, 0)

	previous, found := store.Update(KeyLessons, func(old interface{}, found bool) (interface{}, bool) {
		require.False(t, found)
		return []string{"a"}, true
	})
	require.False(t, found)
	require.Nil(t, previous)

	previous, found = store.Update(KeyLessons, func(old interface{}, found bool) (interface{}, bool) {
		return append(old.([]string), "b"), true
	})
	require.True(t, found)
	require.Equal(t, []string{"a"}, previous)

	value, _ := store.Get(KeyLessons)
	require.Equal(t, []string{"a", "b"}, value)
}

func TestUpdateCanKeepValue(t *testing.T) {
	store := newStore(t, time.Minute, 0)
	store.Set(KeyLessons, "old")
	store.Invalidate(KeyLessons)

	previous, found := store.Update(KeyLessons, func(interface{}, bool) (interface{}, bool) {
		return nil, false
	})
	require.True(t, found)
	require.Equal(t, "old", previous)

	snapshot := store.Snapshot(KeyLessons)
	require.Equal(t, "old", snapshot.Data)
	require.True(t, snapshot.Stale)
}

func TestCloseWhileFetching(t *testing.T) {
	store := newStore(t, time.Minute, 0)
	release := make(chan struct{})
	store.Register(KeyLessons, func(context.Context) (interface{}, error) {
		<-release
		return "late", nil
	})

	done := store.Ensure(KeyLessons)
	store.Close()
	close(release)
	<-done

	_, found := store.Get(KeyLessons)
	require.False(t, found)
	require.False(t, store.Snapshot(KeyLessons).HasData)

	store.Set(KeyLessons, "ignored")
	_, found = store.Get(KeyLessons)
	require.False(t, found)

	<-store.Ensure(KeyLessons)
	<-store.Invalidate(KeyLessons)
	store.Close()
}

func TestCloseCancelsFetchContext(t *testing.T) {
	store := newStore(t, time.Minute, 0)
	store.Register(KeyColumns, func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	done := store.Ensure(KeyColumns)
	store.Close()
	<-done

	require.False(t, store.Snapshot(KeyColumns).Fetching)
}

func TestUnknownQuery(t *testing.T) {
	store := newStore(t, time.Minute, 0)

	_, err := store.Fetch(context.Background(), "nope")
	require.True(t, errors.Is(err, ErrUnknownQuery))
}

func TestFetchHonoursContext(t *testing.T) {
	store := newStore(t, time.Minute, 0)
	release := make(chan struct{})
	defer close(release)
	store.Register(KeyColumns, func(context.Context) (interface{}, error) {
		<-release
		return "columns", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := store.Fetch(ctx, KeyColumns)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, store.Snapshot(KeyColumns).Fetching)
}
