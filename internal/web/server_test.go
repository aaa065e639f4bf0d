package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bigredeye/schoolbook/internal/cache"
	"github.com/bigredeye/schoolbook/internal/config"
	"github.com/bigredeye/schoolbook/internal/fakeschool"
	"github.com/bigredeye/schoolbook/internal/gateway"
	"github.com/bigredeye/schoolbook/internal/models"
	"github.com/bigredeye/schoolbook/internal/mutation"
	"github.com/bigredeye/schoolbook/internal/notify"
	"github.com/bigredeye/schoolbook/internal/table"
)

func strp(s string) *string {
	return &s
}

type fixture struct {
	server *server
	router *gin.Engine
	school *fakeschool.Server
	store  *cache.Store
}

func newFixture(t *testing.T, fixtures *fakeschool.Fixtures, renderTimeout time.Duration) *fixture {
	school := fakeschool.New("2", fixtures, zap.NewNop())
	backend := httptest.NewServer(school.Handler())
	t.Cleanup(backend.Close)

	conf := &config.Config{}
	conf.Server.RenderTimeout = renderTimeout
	conf.Table.RowsPerPage = 5
	conf.Table.RowsPerPageOptions = []int{5, 10, 25}
	conf.Placeholders = models.Placeholders{FirstName: "John", SecondName: "Doe"}

	board := notify.NewBoard(boardSize)
	remote := gateway.NewWithEndpoint(backend.URL+"/v1/2", "2", "en-US", time.Second, zap.NewNop(), board)

	store := cache.NewStore(cache.Options{StaleTime: time.Minute}, zap.NewNop())
	t.Cleanup(store.Close)
	for key, fetch := range remote.Queries() {
		store.Register(key, fetch)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := newServer(ctx, conf, zap.NewNop(),
		table.NewModel(store, renderTimeout, zap.NewNop()),
		mutation.New(store, remote, zap.NewNop()),
		board,
	)
	router, err := s.engine()
	require.NoError(t, err)

	return &fixture{server: s, router: router, school: school, store: store}
}

func (f *fixture) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (f *fixture) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req, cookies...)
}

// settle waits for background mutations and the refetch they trigger.
func (f *fixture) settle() {
	f.server.pending.Wait()
	<-f.store.Ensure(cache.KeyLessons)
}

func singleStudent() *fakeschool.Fixtures {
	return &fakeschool.Fixtures{
		Students: []models.Student{{Id: 1, FirstName: strp("John"), SecondName: strp("Doe")}},
		Columns:  []models.Column{{Id: 1, Title: "Math"}},
	}
}

func markValues(student, column string) url.Values {
	return url.Values{"student": {student}, "column": {column}, "page": {"0"}, "rows": {"5"}}
}

func TestRendersGrid(t *testing.T) {
	f := newFixture(t, singleStudent(), time.Second)

	w := f.get("/")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	require.Contains(t, body, "Учнi")
	require.Contains(t, body, "№")
	require.Contains(t, body, "Ім’я учня")
	require.Contains(t, body, "Math")
	require.Contains(t, body, "Doe John")
	require.Contains(t, body, "Рядків на сторінку:")
	require.Contains(t, body, "1-1 з 1")
	require.NotContains(t, body, models.Mark)
}

func TestPaginates(t *testing.T) {
	fixtures := &fakeschool.Fixtures{Columns: []models.Column{{Id: 1, Title: "Math"}}}
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		fixtures.Students = append(fixtures.Students, models.Student{Id: len(fixtures.Students) + 1, FirstName: strp(name)})
	}
	f := newFixture(t, fixtures, time.Second)

	first := f.get("/").Body.String()
	require.Contains(t, first, "1-5 з 7")
	require.Contains(t, first, "Doe E")
	require.NotContains(t, first, "Doe F")

	second := f.get("/?page=1&rows=5").Body.String()
	require.Contains(t, second, "6-7 з 7")
	require.Contains(t, second, "Doe G")
	require.NotContains(t, second, "Doe A")

	wide := f.get("/?rows=10").Body.String()
	require.Contains(t, wide, "1-7 з 7")
}

func TestTogglesMark(t *testing.T) {
	f := newFixture(t, singleStudent(), time.Second)
	require.Equal(t, http.StatusOK, f.get("/").Code)

	w := f.post("/mark", markValues("1", "1"))
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/?page=0&rows=5", w.Header().Get("Location"))

	f.settle()
	rates := f.school.Rates()
	require.Len(t, rates, 1)
	require.Equal(t, models.Mark, rates[0].Title)
	require.Contains(t, f.get("/").Body.String(), models.Mark)

	w = f.post("/mark", markValues("1", "1"))
	require.Equal(t, http.StatusFound, w.Code)

	f.settle()
	require.Empty(t, f.school.Rates())
	require.NotContains(t, f.get("/").Body.String(), models.Mark)
}

func TestFailedMarkShowsError(t *testing.T) {
	f := newFixture(t, singleStudent(), time.Second)
	require.Equal(t, http.StatusOK, f.get("/").Code)

	f.school.Fail(gateway.PathRates, http.StatusInternalServerError)
	f.post("/mark", markValues("1", "1"))
	f.settle()

	body := f.get("/").Body.String()
	require.Contains(t, body, "Error: Внутрішня помилка сервера.")
	require.Contains(t, body, `class="notification server_error"`)
	require.Empty(t, f.school.Rates())

	f.school.Heal(gateway.PathRates)
	w := f.post("/reset", url.Values{})
	require.Equal(t, http.StatusFound, w.Code)

	<-f.store.Invalidate(cache.KeyLessons)
	body = f.get("/").Body.String()
	require.Contains(t, body, "Doe John")
	require.NotContains(t, body, "Error:")
}

func TestFailedReadShowsGenericError(t *testing.T) {
	f := newFixture(t, singleStudent(), time.Second)
	f.school.Fail(gateway.PathColumns, http.StatusNotFound)

	body := f.get("/").Body.String()
	require.Contains(t, body, "Error: occurred")
	require.Contains(t, body, "Ресурс не знайдено.")

	// Notifications are shown once.
	f.school.Heal(gateway.PathColumns)
	body = f.get("/").Body.String()
	require.Contains(t, body, "Doe John")
	require.NotContains(t, body, "Ресурс не знайдено.")
}

func TestShowsLoadingWhileReadsArePending(t *testing.T) {
	f := newFixture(t, singleStudent(), 20*time.Millisecond)
	f.school.SetDelay(time.Second)

	body := f.get("/").Body.String()
	require.Contains(t, body, "Loading...")
	require.Contains(t, body, `http-equiv="refresh"`)
}

func TestInvalidMarkFormIsIgnored(t *testing.T) {
	f := newFixture(t, singleStudent(), time.Second)

	w := f.post("/mark", url.Values{"column": {"1"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	f.server.pending.Wait()
	require.Zero(t, f.school.Calls(http.MethodPost, gateway.PathRates))
}

func TestCardRequiresSelection(t *testing.T) {
	f := newFixture(t, singleStudent(), time.Second)

	w := f.get("/card")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestCardShowsPlaceholders(t *testing.T) {
	f := newFixture(t, &fakeschool.Fixtures{
		Students: []models.Student{{Id: 3, LastName: strp("Samantha")}},
		Columns:  []models.Column{},
	}, time.Second)
	require.Equal(t, http.StatusOK, f.get("/").Code)

	w := f.post("/select", url.Values{"student": {"3"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/card", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = f.get("/card", cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `<p class="card-text">John</p>`)
	require.Contains(t, body, `<p class="card-text">Samantha</p>`)
	require.Contains(t, body, `<p class="card-text">Doe</p>`)
	require.Contains(t, body, "&lt; Назад")

	w = f.post("/card/back", url.Values{}, cookies...)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	w = f.get("/card", w.Result().Cookies()...)
	require.Equal(t, http.StatusFound, w.Code)
}

func TestSelectUnknownStudent(t *testing.T) {
	f := newFixture(t, singleStudent(), time.Second)
	require.Equal(t, http.StatusOK, f.get("/").Code)

	w := f.post("/select", url.Values{"student": {"42"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestUnknownRoutesRedirectHome(t *testing.T) {
	f := newFixture(t, singleStudent(), time.Second)

	for _, path := range []string{"/students", "/card/42"} {
		w := f.get(path)
		require.Equal(t, http.StatusFound, w.Code, path)
		require.Equal(t, "/", w.Header().Get("Location"), path)
	}
}

func TestServiceEndpoints(t *testing.T) {
	f := newFixture(t, singleStudent(), time.Second)

	w := f.get("/ping")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Body.String(), "pong "))

	f.get("/")
	w = f.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "schoolbook_gateway_requests_total")

	w = f.get("/static/style.css")
	require.Equal(t, http.StatusOK, w.Code)
}
