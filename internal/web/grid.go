package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	lf "github.com/bigredeye/schoolbook/internal/logfield"
	"github.com/bigredeye/schoolbook/internal/models"
	"github.com/bigredeye/schoolbook/internal/table"
)

type gridService struct {
	webService
}

func setupGridService(server *server, r *gin.Engine) {
	s := gridService{webService{server, server.config, server.logger}}

	r.GET("/", s.home)
	r.POST("/mark", s.mark)
	r.POST("/reset", s.reset)
}

func (s gridService) page() gin.H {
	return gin.H{
		"Title":         table.Title,
		"Notifications": s.server.board.Drain(),
	}
}

func (s gridService) home(c *gin.Context) {
	paging := s.paging(c.Query("page"), c.Query("rows"))
	view := s.server.model.Load(c.Request.Context())
	data := s.page()

	switch {
	case view.IsLoading:
		data["Refresh"] = true
		c.HTML(http.StatusOK, "/loading.tmpl", data)

	case view.IsError || s.server.mutations.IsError():
		message := "occurred"
		if err := s.server.mutations.Err(); err != nil {
			message = err.Error()
		}
		if view.IsError {
			s.log.Warn("Failed to load table", zap.Error(view.Err))
		}
		data["Error"] = message
		c.HTML(http.StatusOK, "/error.tmpl", data)

	default:
		data["Grid"] = table.BuildGrid(view, paging, s.config.Placeholders)
		data["Updated"] = view.Age(time.Now())
		data["HeaderNumber"] = table.HeaderNumber
		data["HeaderName"] = table.HeaderName
		data["LabelRowsPerPage"] = table.LabelRowsPerPage
		c.HTML(http.StatusOK, "/table.tmpl", data)
	}
}

type markForm struct {
	Student int    `form:"student" binding:"required"`
	Column  int    `form:"column" binding:"required"`
	Page    string `form:"page"`
	Rows    string `form:"rows"`
}

// mark toggles the cell: a marked cell loses its marks, an empty one gains one.
func (s gridService) mark(c *gin.Context) {
	form := markForm{}
	if err := c.ShouldBind(&form); err != nil {
		s.log.Warn("Invalid mark form", zap.Error(err))
		s.redirectHome(c, "", "")
		return
	}

	pair := models.Pair{StudentID: form.Student, ColumnID: form.Column}
	kind := models.MutationCreate
	if table.Marked(s.server.model.Peek().Records, pair) {
		kind = models.MutationDelete
	}

	s.log.Info("Toggle mark", lf.Mutation(kind), lf.StudentID(pair.StudentID), lf.ColumnID(pair.ColumnID))
	s.server.startMutation(kind, pair)

	s.redirectHome(c, form.Page, form.Rows)
}

func (s gridService) reset(c *gin.Context) {
	s.server.mutations.Reset()
	s.redirectHome(c, c.PostForm("page"), c.PostForm("rows"))
}

func formInt(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.PostForm(name))
	return value, err == nil
}
