package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigredeye/schoolbook/internal/config"
	"github.com/bigredeye/schoolbook/internal/fakeschool"
	zlog "github.com/bigredeye/schoolbook/pkg/log"
)

var (
	fixturesPath string
	listen       string
	classKey     string

	rootCmd = &cobra.Command{
		Use:   "fakeschool",
		Short: "In-memory school service for local development",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the fake school api",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
)

func serve(ctx context.Context) error {
	logger := zlog.InitDev(nil)
	defer zlog.Sync()

	var fixtures *fakeschool.Fixtures
	if fixturesPath != "" {
		var err error
		if fixtures, err = fakeschool.LoadFixtures(fixturesPath); err != nil {
			return err
		}
	}

	school := fakeschool.New(classKey, fixtures, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	school.Register(r)

	srv := &http.Server{
		Addr:    listen,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving fake school", zap.String("address", listen), zap.String("class_key", classKey))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&fixturesPath, "fixtures", "", "Path to the yaml fixtures")
	serveCmd.Flags().StringVar(&listen, "listen", ":5555", "Listen address")
	serveCmd.Flags().StringVar(&classKey, "class-key", config.DefaultClassKey, "Class key to accept")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Command failed: %s", err.Error())
		os.Exit(1)
	}
}
