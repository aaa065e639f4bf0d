package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/karlseguin/ccache/v2"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	lf "github.com/bigredeye/schoolbook/internal/logfield"
	"github.com/bigredeye/schoolbook/internal/models"
)

// Logical collection names.
const (
	KeyStudents = "schoolboys"
	KeyColumns  = "columns"
	KeyLessons  = "lessons"
)

var (
	ErrNoData       = errors.New("no data")
	ErrUnknownQuery = errors.New("unknown query")
)

type FetchFunc func(ctx context.Context) (interface{}, error)

type Options struct {
	// StaleTime is how long fetched data stays fresh.
	StaleTime time.Duration
	MaxSize   int64
	// Retries is the number of extra attempts after a failed read.
	Retries uint64
	Backoff func() backoff.BackOff
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

type Store struct {
	ctx    context.Context
	stop   context.CancelFunc
	items  *ccache.Cache
	logger *zap.Logger
	opts   Options

	mu      sync.Mutex
	closed  bool
	queries map[string]*query
}

type query struct {
	fetch       FetchFunc
	status      Status
	err         error
	updatedAt   time.Time
	invalidated bool
	inflight    *call
}

type call struct {
	cancel     context.CancelFunc
	done       chan struct{}
	canceled   *atomic.Bool
	prevStatus Status
}

var settled = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func NewStore(opts Options, logger *zap.Logger) *Store {
	if opts.Backoff == nil {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 64
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Store{
		ctx:     ctx,
		stop:    stop,
		items:   ccache.New(ccache.Configure().MaxSize(opts.MaxSize).ItemsToPrune(1)),
		logger:  logger.Named("cache"),
		opts:    opts,
		queries: make(map[string]*query),
	}
}

// Close cancels running fetches and stops the backing cache. Their results
// are discarded, and the store reads as empty afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for key, q := range s.queries {
		s.cancelLocked(key, q)
	}
	s.stop()
	s.items.Stop()
}

func (s *Store) Register(key string, fetch FetchFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryLocked(key).fetch = fetch
}

func (s *Store) queryLocked(key string) *query {
	q, found := s.queries[key]
	if !found {
		q = &query{status: StatusIdle}
		s.queries[key] = q
	}
	return q
}

func (s *Store) itemLocked(key string) *ccache.Item {
	if s.closed {
		return nil
	}
	return s.items.Get(key)
}

func (s *Store) freshLocked(key string, q *query) bool {
	item := s.itemLocked(key)
	return item != nil && !item.Expired() && !q.invalidated
}

// Ensure starts a fetch unless the data is fresh or a fetch is already running.
// The returned channel is closed once the key has settled.
func (s *Store) Ensure(key string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queryLocked(key)
	if s.closed {
		return settled
	}
	if q.inflight != nil {
		return q.inflight.done
	}
	if s.freshLocked(key, q) {
		lookupsTotal.WithLabelValues(key, "hit").Inc()
		return settled
	}
	lookupsTotal.WithLabelValues(key, "miss").Inc()

	if q.fetch == nil {
		q.status = StatusError
		q.err = errors.Wrap(ErrUnknownQuery, key)
		return settled
	}
	return s.startLocked(key, q).done
}

func (s *Store) startLocked(key string, q *query) *call {
	ctx, cancel := context.WithCancel(s.ctx)
	c := &call{
		cancel:     cancel,
		done:       make(chan struct{}),
		canceled:   atomic.NewBool(false),
		prevStatus: q.status,
	}
	q.inflight = c
	if q.status == StatusIdle {
		q.status = StatusLoading
	}

	s.logger.Debug("Start fetch", lf.Collection(key))
	go s.run(ctx, key, q, c)
	return c
}

func (s *Store) run(ctx context.Context, key string, q *query, c *call) {
	defer close(c.done)
	defer c.cancel()

	value, err := s.fetchWithRetry(ctx, key, q.fetch)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || c.canceled.Load() || q.inflight != c {
		s.logger.Debug("Discard canceled fetch", lf.Collection(key))
		fetchesTotal.WithLabelValues(key, "canceled").Inc()
		return
	}
	q.inflight = nil

	if err != nil {
		s.logger.Warn("Failed to fetch collection", lf.Collection(key), zap.Error(err))
		fetchesTotal.WithLabelValues(key, "error").Inc()
		q.status = StatusError
		q.err = err
		return
	}

	fetchesTotal.WithLabelValues(key, "ok").Inc()
	s.items.Set(key, value, s.opts.StaleTime)
	q.status = StatusSuccess
	q.err = nil
	q.invalidated = false
	q.updatedAt = time.Now()
}

func (s *Store) fetchWithRetry(ctx context.Context, key string, fetch FetchFunc) (interface{}, error) {
	var value interface{}
	operation := func() error {
		var err error
		value, err = fetch(ctx)
		shapeError := &models.CacheShapeError{}
		if errors.As(err, &shapeError) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.opts.Backoff(), s.opts.Retries), ctx)
	err := backoff.RetryNotify(operation, policy, func(err error, next time.Duration) {
		s.logger.Info("Retrying fetch", lf.Collection(key), zap.Duration("after", next), zap.Error(err))
	})
	return value, err
}

// Fetch waits for the key to settle and returns its data.
func (s *Store) Fetch(ctx context.Context, key string) (interface{}, error) {
	select {
	case <-s.Ensure(key):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	snapshot := s.Snapshot(key)
	switch {
	case snapshot.Status == StatusError:
		return snapshot.Data, snapshot.Err
	case snapshot.HasData:
		return snapshot.Data, nil
	default:
		return nil, errors.Wrap(ErrNoData, key)
	}
}

func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.itemLocked(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Set replaces the data of key and marks it fresh.
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, value)
}

func (s *Store) setLocked(key string, value interface{}) {
	if s.closed {
		return
	}
	s.items.Set(key, value, s.opts.StaleTime)
	q := s.queryLocked(key)
	q.status = StatusSuccess
	q.err = nil
	q.invalidated = false
	q.updatedAt = time.Now()
}

// UpdateFunc returns the new data for a key, or false to leave it as is.
type UpdateFunc func(old interface{}, found bool) (interface{}, bool)

// Update reads the data of key and replaces it with the result of update in
// one critical section. It returns the value that was read.
func (s *Store) Update(key string, update UpdateFunc) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var old interface{}
	item := s.itemLocked(key)
	found := item != nil
	if found {
		old = item.Value()
	}

	if value, ok := update(old, found); ok {
		s.setLocked(key, value)
	}
	return old, found
}

// Cancel drops the running fetch of key, if any. Its result will be discarded.
func (s *Store) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(key, s.queryLocked(key))
}

func (s *Store) cancelLocked(key string, q *query) {
	c := q.inflight
	if c == nil {
		return
	}
	c.canceled.Store(true)
	c.cancel()
	q.inflight = nil
	q.status = c.prevStatus
	s.logger.Debug("Canceled fetch", lf.Collection(key))
}

// Invalidate marks key stale and refetches it in the background,
// replacing a fetch that is already running.
func (s *Store) Invalidate(key string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queryLocked(key)
	q.invalidated = true
	s.cancelLocked(key, q)
	invalidationsTotal.WithLabelValues(key).Inc()

	if s.closed || q.fetch == nil {
		return settled
	}
	return s.startLocked(key, q).done
}

func (s *Store) Snapshot(key string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queryLocked(key)
	snapshot := Snapshot{
		Key:       key,
		Status:    q.status,
		Err:       q.err,
		Fetching:  q.inflight != nil,
		UpdatedAt: q.updatedAt,
		Stale:     true,
	}
	if item := s.itemLocked(key); item != nil {
		snapshot.Data = item.Value()
		snapshot.HasData = true
		snapshot.Stale = item.Expired() || q.invalidated
	}
	return snapshot
}
