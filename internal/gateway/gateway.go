package gateway

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/bigredeye/schoolbook/api"
	"github.com/bigredeye/schoolbook/internal/cache"
	"github.com/bigredeye/schoolbook/internal/config"
	lf "github.com/bigredeye/schoolbook/internal/logfield"
	"github.com/bigredeye/schoolbook/internal/models"
	"github.com/bigredeye/schoolbook/internal/notify"
)

const (
	PathColumns   = "/Column"
	PathStudents  = "/Schoolboy"
	PathRates     = "/Rate"
	PathUnRate    = "/UnRate"
	RequestHeader = "X-Request-Id"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "schoolbook_gateway_requests_total",
	Help: "Requests to the school service by path and outcome",
}, []string{"path", "outcome"})

type Gateway struct {
	client   *resty.Client
	logger   *zap.Logger
	notifier notify.Notifier
}

func New(conf *config.Config, logger *zap.Logger, notifier notify.Notifier) *Gateway {
	return NewWithEndpoint(conf.APIRoot(), conf.School.ClassKey, conf.School.Locale, conf.School.Timeout, logger, notifier)
}

func NewWithEndpoint(endpoint, classKey, locale string, timeout time.Duration, logger *zap.Logger, notifier notify.Notifier) *Gateway {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetAuthToken(classKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Language", locale)

	g := &Gateway{
		client:   client,
		logger:   logger.Named("gateway"),
		notifier: notifier,
	}

	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader(RequestHeader, uuid.New().String())
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		if r.IsSuccess() {
			g.logger.Info(successMessage(r.StatusCode()),
				lf.Method(r.Request.Method),
				lf.Path(r.Request.URL),
				lf.StatusCode(r.StatusCode()),
				lf.RequestID(r.Request.Header.Get(RequestHeader)),
			)
			g.logger.Debug("Response body", zap.ByteString("body", r.Body()))
		}
		return nil
	})

	return g
}

// do decodes a successful response into result, when it is not nil.
// A body that does not decode fails with models.CacheShapeError.
func (g *Gateway) do(ctx context.Context, method, path string, body, result interface{}) error {
	req := g.client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil && isCanceled(err) {
		requestsTotal.WithLabelValues(path, "canceled").Inc()
		return errors.Wrapf(err, "Request %s %s canceled", method, path)
	}
	if err != nil && resp != nil && resp.IsSuccess() {
		requestsTotal.WithLabelValues(path, "malformed").Inc()
		g.logger.Error("Failed to decode response", lf.Method(method), lf.Path(path), zap.Error(err))
		return &models.CacheShapeError{Collection: path, Value: resp.String()}
	}
	if err != nil || resp.IsError() {
		failure := classify(resp, err)
		requestsTotal.WithLabelValues(path, failure.Kind.String()).Inc()
		g.logger.Error(failure.Message,
			lf.Method(method),
			lf.Path(path),
			lf.StatusCode(failure.StatusCode),
			zap.String("kind", failure.Kind.String()),
			zap.Error(failure.Err),
		)
		if g.notifier != nil {
			g.notifier.Notify(notify.Notification{
				Kind:    failure.Kind.String(),
				Message: failure.Message,
				At:      time.Now(),
			})
		}
		return failure
	}

	requestsTotal.WithLabelValues(path, "ok").Inc()
	return nil
}

func fetchCollection[T any](ctx context.Context, g *Gateway, path string) (*models.Collection[T], error) {
	collection := &models.Collection[T]{}
	if err := g.do(ctx, "GET", path, nil, collection); err != nil {
		return nil, err
	}
	if err := collection.Validate(path); err != nil {
		g.logger.Error("Invalid data format", lf.Path(path), zap.Error(err))
		return nil, err
	}
	return collection, nil
}

func (g *Gateway) FetchStudents(ctx context.Context) (*models.Students, error) {
	return fetchCollection[models.Student](ctx, g, PathStudents)
}

func (g *Gateway) FetchColumns(ctx context.Context) (*models.Columns, error) {
	return fetchCollection[models.Column](ctx, g, PathColumns)
}

func (g *Gateway) FetchGradeRecords(ctx context.Context) (*models.GradeRecords, error) {
	return fetchCollection[models.GradeRecord](ctx, g, PathRates)
}

// CreateGradeRecord always writes models.Mark; the server assigns the id.
func (g *Gateway) CreateGradeRecord(ctx context.Context, studentID, columnID int) (*models.GradeRecord, error) {
	record := &models.GradeRecord{SchoolboyId: studentID, ColumnId: columnID, Title: models.Mark}
	err := g.do(ctx, "POST", PathRates, api.RateRequest{
		SchoolboyId: studentID,
		ColumnId:    columnID,
		Title:       models.Mark,
	}, record)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (g *Gateway) DeleteGradeRecord(ctx context.Context, studentID, columnID int) error {
	return g.do(ctx, "POST", PathUnRate, api.UnRateRequest{
		SchoolboyId: studentID,
		ColumnId:    columnID,
	}, &api.UnRateResponse{})
}

// Queries maps cache keys to the reads that fill them.
func (g *Gateway) Queries() map[string]cache.FetchFunc {
	return map[string]cache.FetchFunc{
		cache.KeyStudents: func(ctx context.Context) (interface{}, error) {
			return g.FetchStudents(ctx)
		},
		cache.KeyColumns: func(ctx context.Context) (interface{}, error) {
			return g.FetchColumns(ctx)
		},
		cache.KeyLessons: func(ctx context.Context) (interface{}, error) {
			return g.FetchGradeRecords(ctx)
		},
	}
}
