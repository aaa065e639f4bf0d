package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	lf "github.com/bigredeye/schoolbook/internal/logfield"
	"github.com/bigredeye/schoolbook/internal/models"
	"github.com/bigredeye/schoolbook/internal/selection"
)

const backLabel = "< Назад"

type cardService struct {
	webService
}

func setupCardService(server *server, r *gin.Engine) {
	s := cardService{webService{server, server.config, server.logger}}

	r.POST("/select", s.selectStudent)
	r.GET("/card", s.card)
	r.POST("/card/back", s.back)
}

func (s cardService) selectStudent(c *gin.Context) {
	id, ok := formInt(c, "student")
	if !ok {
		s.redirectHome(c, "", "")
		return
	}

	var student *models.Student
	if students := s.server.model.Peek().Students; students != nil {
		for i := range students.Items {
			if students.Items[i].Id == id {
				student = &students.Items[i]
				break
			}
		}
	}
	if student == nil {
		s.log.Info("Unknown student selected", lf.StudentID(id))
		s.redirectHome(c, "", "")
		return
	}

	if err := holder(c).Set(*student); err != nil {
		s.log.Error("Failed to select student", lf.StudentID(id), zap.Error(err))
		s.redirectHome(c, "", "")
		return
	}
	c.Redirect(http.StatusFound, "/card")
}

func (s cardService) card(c *gin.Context) {
	student, err := selection.Require(holder(c))
	if err != nil {
		s.log.Info("Card opened without selection")
		s.redirectHome(c, "", "")
		return
	}

	c.HTML(http.StatusOK, "/card.tmpl", gin.H{
		"Title":     student.DisplayName(s.config.Placeholders),
		"Lines":     student.CardLines(s.config.Placeholders),
		"BackLabel": backLabel,
	})
}

func (s cardService) back(c *gin.Context) {
	if err := holder(c).Clear(); err != nil {
		s.log.Error("Failed to clear selection", zap.Error(err))
	}
	s.redirectHome(c, "", "")
}
