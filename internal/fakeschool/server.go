package fakeschool

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/bigredeye/schoolbook/api"
	lf "github.com/bigredeye/schoolbook/internal/logfield"
	"github.com/bigredeye/schoolbook/internal/models"
)

const routePrefix = "/:version/:classKey"

// Server is an in-memory stand-in for the school service.
type Server struct {
	mu       sync.Mutex
	classKey string
	logger   *zap.Logger

	students []models.Student
	columns  []models.Column
	rates    []models.GradeRecord
	nextID   int

	failures map[string]int
	delay    time.Duration
	calls    map[string]int
}

func New(classKey string, fixtures *Fixtures, logger *zap.Logger) *Server {
	s := &Server{
		classKey: classKey,
		logger:   logger.Named("fakeschool"),
		students: make([]models.Student, 0),
		columns:  make([]models.Column, 0),
		rates:    make([]models.GradeRecord, 0),
		nextID:   1,
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
	if fixtures != nil {
		s.students = append(s.students, fixtures.Students...)
		s.columns = append(s.columns, fixtures.Columns...)
		s.rates = append(s.rates, fixtures.Rates...)
		for _, rate := range fixtures.Rates {
			if id, err := strconv.Atoi(rate.Id.String()); err == nil && id >= s.nextID {
				s.nextID = id + 1
			}
		}
	}
	return s
}

// Register mounts the service under /:version/:classKey.
func (s *Server) Register(r gin.IRouter) {
	g := r.Group(routePrefix, s.authorize, s.inject)
	g.GET("/Schoolboy", s.listStudents)
	g.GET("/Column", s.listColumns)
	g.GET("/Rate", s.listRates)
	g.POST("/Rate", s.rate)
	g.POST("/UnRate", s.unrate)
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s.Register(r)
	return r
}

// Fail makes every request to path answer with code until Heal is called.
func (s *Server) Fail(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = code
}

func (s *Server) Heal(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

func (s *Server) SetDelay(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = delay
}

// Calls counts requests per "METHOD /Path".
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) Rates() []models.GradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rates)
}

func (s *Server) authorize(c *gin.Context) {
	if c.Param("classKey") != s.classKey || c.GetHeader("Authorization") != "Bearer "+s.classKey {
		s.logger.Warn("Unauthorized request", lf.Path(c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	path := strings.TrimPrefix(c.FullPath(), routePrefix)

	s.mu.Lock()
	s.calls[c.Request.Method+" "+path]++
	code, failing := s.failures[path]
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}

	if failing {
		c.AbortWithStatusJSON(code, gin.H{"error": http.StatusText(code)})
		return
	}
	c.Next()
}

func (s *Server) listStudents(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, models.Students{Items: s.students})
}

func (s *Server) listColumns(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, models.Columns{Items: s.columns})
}

func (s *Server) listRates(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, models.GradeRecords{Items: s.rates})
}

func (s *Server) rate(c *gin.Context) {
	req := api.RateRequest{}
	if err := c.BindJSON(&req); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := models.GradeRecord{
		Id:          models.RecordID(strconv.Itoa(s.nextID)),
		SchoolboyId: req.SchoolboyId,
		ColumnId:    req.ColumnId,
		Title:       req.Title,
	}
	s.nextID++
	s.rates = append(s.rates, record)

	s.logger.Info("Created rate", lf.StudentID(req.SchoolboyId), lf.ColumnID(req.ColumnId), lf.RecordID(record.Id.String()))
	c.JSON(http.StatusCreated, record)
}

func (s *Server) unrate(c *gin.Context) {
	req := api.UnRateRequest{}
	if err := c.BindJSON(&req); err != nil {
		return
	}

	pair := models.Pair{StudentID: req.SchoolboyId, ColumnID: req.ColumnId}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = slices.DeleteFunc(s.rates, pair.Matches)

	s.logger.Info("Removed rate", lf.StudentID(req.SchoolboyId), lf.ColumnID(req.ColumnId))
	c.JSON(http.StatusOK, api.UnRateResponse{})
}
