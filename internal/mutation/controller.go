package mutation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/bigredeye/schoolbook/internal/cache"
	lf "github.com/bigredeye/schoolbook/internal/logfield"
	"github.com/bigredeye/schoolbook/internal/models"
)

var mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "schoolbook_mutations_total",
	Help: "Settled mark mutations by kind and outcome",
}, []string{"kind", "outcome"})

type Cache interface {
	Cancel(key string)
	Update(key string, update cache.UpdateFunc) (interface{}, bool)
	Set(key string, value interface{})
	Invalidate(key string) <-chan struct{}
}

type Remote interface {
	CreateGradeRecord(ctx context.Context, studentID, columnID int) (*models.GradeRecord, error)
	DeleteGradeRecord(ctx context.Context, studentID, columnID int) error
}

type Journal interface {
	Record(ctx context.Context, entry *models.JournalEntry) error
}

type Option func(c *Controller)

func WithHook(hook Hook) Option {
	return func(c *Controller) {
		c.hook = hook
	}
}

func WithJournal(journal Journal) Option {
	return func(c *Controller) {
		c.journal = journal
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller applies mark mutations to the cached grade records before the
// school service confirms them, and reconciles afterwards.
type Controller struct {
	cache   Cache
	remote  Remote
	key     string
	logger  *zap.Logger
	hook    Hook
	journal Journal
	now     func() time.Time

	seq *atomic.Uint64

	mu       sync.Mutex
	trackers map[models.MutationKind]*tracker
	latest   *tracker
}

func New(store Cache, remote Remote, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		cache:    store,
		remote:   remote,
		key:      cache.KeyLessons,
		logger:   logger.Named("mutation"),
		now:      time.Now,
		seq:      atomic.NewUint64(0),
		trackers: make(map[models.MutationKind]*tracker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type operation struct {
	kind models.MutationKind
	pair models.Pair
	edit func(records *models.GradeRecords) *models.GradeRecords
	call func(ctx context.Context) error
}

type invocation struct {
	operation
	seq         uint64
	logger      *zap.Logger
	snapshot    interface{}
	hadSnapshot bool
}

// Create adds a mark for the pair.
func (c *Controller) Create(ctx context.Context, pair models.Pair) error {
	return c.settle(ctx, c.apply(c.createOperation(pair)))
}

// Delete removes every mark of the pair.
func (c *Controller) Delete(ctx context.Context, pair models.Pair) error {
	return c.settle(ctx, c.apply(c.deleteOperation(pair)))
}

// Start applies the speculative edit before returning and finishes the
// mutation in the background. The channel yields its result.
func (c *Controller) Start(ctx context.Context, kind models.MutationKind, pair models.Pair) <-chan error {
	result := make(chan error, 1)

	var op operation
	switch kind {
	case models.MutationCreate:
		op = c.createOperation(pair)
	case models.MutationDelete:
		op = c.deleteOperation(pair)
	default:
		result <- errors.Errorf("unknown mutation %q", kind)
		close(result)
		return result
	}

	inv := c.apply(op)
	go func() {
		defer close(result)
		result <- c.settle(ctx, inv)
	}()
	return result
}

func (c *Controller) createOperation(pair models.Pair) operation {
	provisional := models.GradeRecord{
		Id:          models.TemporaryRecordID(c.now()),
		SchoolboyId: pair.StudentID,
		ColumnId:    pair.ColumnID,
		Title:       models.Mark,
	}

	return operation{
		kind: models.MutationCreate,
		pair: pair,
		edit: func(records *models.GradeRecords) *models.GradeRecords {
			items := make([]models.GradeRecord, 0, len(records.Items)+1)
			items = append(items, records.Items...)
			return &models.GradeRecords{Items: append(items, provisional)}
		},
		call: func(ctx context.Context) error {
			record, err := c.remote.CreateGradeRecord(ctx, pair.StudentID, pair.ColumnID)
			if err == nil {
				c.logger.Debug("Mark created", lf.StudentID(pair.StudentID), lf.ColumnID(pair.ColumnID), lf.RecordID(record.Id.String()))
			}
			return err
		},
	}
}

func (c *Controller) deleteOperation(pair models.Pair) operation {
	return operation{
		kind: models.MutationDelete,
		pair: pair,
		edit: func(records *models.GradeRecords) *models.GradeRecords {
			return &models.GradeRecords{Items: slices.DeleteFunc(slices.Clone(records.Items), pair.Matches)}
		},
		call: func(ctx context.Context) error {
			return c.remote.DeleteGradeRecord(ctx, pair.StudentID, pair.ColumnID)
		},
	}
}

func (c *Controller) apply(op operation) *invocation {
	inv := &invocation{operation: op, seq: c.seq.Inc()}
	inv.logger = c.logger.With(lf.Mutation(op.kind), lf.StudentID(op.pair.StudentID), lf.ColumnID(op.pair.ColumnID), zap.Uint64("seq", inv.seq))

	c.begin(inv.seq, op.kind)

	c.cache.Cancel(c.key)
	inv.snapshot, inv.hadSnapshot = c.cache.Update(c.key, func(old interface{}, found bool) (interface{}, bool) {
		records, err := models.AsGradeRecords(c.key, old)
		if err != nil {
			inv.logger.Warn("Skip speculative edit", zap.Error(err))
			return nil, false
		}
		return op.edit(records), true
	})
	c.transition(inv, StatePending, nil)
	return inv
}

func (c *Controller) settle(ctx context.Context, inv *invocation) error {
	err := inv.call(ctx)
	if err != nil {
		inv.logger.Warn("Mutation failed", zap.Error(err))
		c.transition(inv, StateFailure, err)
		if inv.hadSnapshot {
			c.cache.Set(c.key, inv.snapshot)
		}
		c.transition(inv, StateRollback, err)
	} else {
		c.transition(inv, StateSuccess, nil)
	}

	c.cache.Invalidate(c.key)
	c.transition(inv, StateSettled, err)

	outcome := models.OutcomeSuccess
	if err != nil {
		outcome = models.OutcomeFailure
	}
	mutationsTotal.WithLabelValues(inv.kind, outcome).Inc()
	c.record(ctx, inv, outcome, err)

	return err
}

func (c *Controller) begin(seq uint64, kind models.MutationKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &tracker{seq: seq, kind: kind, state: StateIdle}
	c.trackers[kind] = t
	c.latest = t
}

func (c *Controller) transition(inv *invocation, to State, err error) {
	from := StateIdle

	c.mu.Lock()
	if t := c.trackers[inv.kind]; t != nil && t.seq == inv.seq {
		from = t.state
		t.state = to
		if err != nil {
			t.err = err
		}
	}
	c.mu.Unlock()

	if c.hook != nil {
		c.hook(Transition{Seq: inv.seq, Kind: inv.kind, Pair: inv.pair, From: from, To: to, Err: err})
	}
}

func (c *Controller) record(ctx context.Context, inv *invocation, outcome models.MutationOutcome, err error) {
	if c.journal == nil {
		return
	}

	entry := &models.JournalEntry{
		ID:          uuid.New().String(),
		Kind:        inv.kind,
		SchoolboyID: inv.pair.StudentID,
		ColumnID:    inv.pair.ColumnID,
		Outcome:     outcome,
		CreatedAt:   c.now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if err := c.journal.Record(ctx, entry); err != nil {
		inv.logger.Error("Failed to record mutation", zap.Error(err))
	}
}

// IsError reports whether the latest create or the latest delete failed.
func (c *Controller) IsError() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.trackers {
		if t.failed() {
			return true
		}
	}
	return false
}

// Err returns the failure of the most recent failed invocation.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var last *tracker
	for _, t := range c.trackers {
		if t.failed() && (last == nil || t.seq > last.seq) {
			last = t
		}
	}
	if last == nil {
		return nil
	}
	return last.err
}

// State of the most recent invocation.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latest == nil {
		return StateIdle
	}
	return c.latest.state
}

func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.trackers = make(map[models.MutationKind]*tracker)
	c.latest = nil
}
