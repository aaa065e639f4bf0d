package web

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bigredeye/schoolbook/internal/config"
	lf "github.com/bigredeye/schoolbook/internal/logfield"
	"github.com/bigredeye/schoolbook/internal/models"
	"github.com/bigredeye/schoolbook/internal/mutation"
	"github.com/bigredeye/schoolbook/internal/notify"
	"github.com/bigredeye/schoolbook/internal/table"
	"github.com/bigredeye/schoolbook/web"
)

type server struct {
	config *config.Config
	logger *zap.Logger

	// ctx outlives requests; background mutations run under it.
	ctx       context.Context
	model     *table.Model
	mutations *mutation.Controller
	board     *notify.Board

	pending sync.WaitGroup
}

func newServer(
	ctx context.Context,
	config *config.Config,
	logger *zap.Logger,
	model *table.Model,
	mutations *mutation.Controller,
	board *notify.Board,
) *server {
	return &server{
		config:    config,
		logger:    logger,
		ctx:       ctx,
		model:     model,
		mutations: mutations,
		board:     board,
	}
}

func buildHTMLTemplates(fsys fs.FS, funcMap template.FuncMap) (*template.Template, error) {
	tmpl := template.New("").Funcs(funcMap)
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		bytes, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = tmpl.New("/" + path).Parse(string(bytes))
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to collect html templates")
	}

	return tmpl, nil
}

func (s *server) engine() (*gin.Engine, error) {
	funcs := template.FuncMap{
		"inc": func(i int) int {
			return i + 1
		},
		"dec": func(i int) int {
			return i - 1
		},
	}
	tmpl, err := buildHTMLTemplates(web.StaticTemplates, funcs)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to build html templates")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))

	r.SetHTMLTemplate(tmpl)

	if err := setupSessions(s, r); err != nil {
		return nil, err
	}
	setupGridService(s, r)
	setupCardService(s, r)

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong "+fmt.Sprint(time.Now().Unix()))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.StaticFS("/static", http.FS(web.StaticContent))

	r.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})

	return r, nil
}

// startMutation returns once the speculative edit is visible in the cache.
func (s *server) startMutation(kind models.MutationKind, pair models.Pair) {
	result := s.mutations.Start(s.ctx, kind, pair)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := <-result; err != nil {
			s.logger.Warn("Mark mutation failed", lf.Mutation(kind), lf.StudentID(pair.StudentID), lf.ColumnID(pair.ColumnID), zap.Error(err))
		}
	}()
}

func (s *server) run() error {
	r, err := s.engine()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    s.config.Server.ListenAddress,
		Handler: r,
	}

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shutdown server", zap.Error(err))
		}
	}()

	s.logger.Info("Starting server", zap.String("bind_address", s.config.Server.ListenAddress))
	err = srv.ListenAndServe()
	s.pending.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
