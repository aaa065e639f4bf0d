package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bigredeye/schoolbook/internal/config"
	"github.com/bigredeye/schoolbook/internal/table"
)

type webService struct {
	server *server
	config *config.Config
	log    *zap.Logger
}

func (s webService) paging(page, rows string) table.Paging {
	paging := table.Paging{
		RowsPerPage: s.config.Table.RowsPerPage,
		Options:     s.config.Table.RowsPerPageOptions,
	}
	if value, err := strconv.Atoi(page); err == nil {
		paging.Page = value
	}
	if value, err := strconv.Atoi(rows); err == nil {
		paging.RowsPerPage = value
	}
	return paging
}

func (s webService) redirectHome(c *gin.Context, page, rows string) {
	query := url.Values{}
	if page != "" {
		query.Set("page", page)
	}
	if rows != "" {
		query.Set("rows", rows)
	}

	location := "/"
	if len(query) > 0 {
		location += "?" + query.Encode()
	}
	c.Redirect(http.StatusFound, location)
}
