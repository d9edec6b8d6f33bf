package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docsearch/config"
	"github.com/meghashyamc/docsearch/db/kvdb"
	"github.com/meghashyamc/docsearch/db/titledb"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/metrics"
	"github.com/meghashyamc/docsearch/services/index"
	"github.com/meghashyamc/docsearch/services/search"
	"github.com/meghashyamc/docsearch/validation"
)

type server struct {
	cfg           *config.Config
	router        *gin.Engine
	httpServer    *http.Server
	kvdb          *kvdb.BoltDB
	titledb       *titledb.BleveDB
	metrics       *metrics.Metrics
	indexService  *index.Service
	searchService *search.Service
	validator     *validation.Validator
	logger        logger.Logger
}

func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)

	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.New(cfg.GetLogLevel()),
	}
	if err := s.setupDependencies(); err != nil {
		return err
	}
	s.loadIndex(ctx)
	s.setupRouter()
	s.setupHTTPServer()
	s.setupGracefulShutdown(ctx)

	return nil
}

func (s *server) setupDependencies() (err error) {
	defer func() {
		if err != nil {
			s.closeDatabases()
		}
	}()

	s.kvdb, err = kvdb.New(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.titledb, err = titledb.New(s.logger)
	if err != nil {
		s.logger.Error("error creating titleDB", "err", err.Error())
		return err
	}
	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		return err
	}
	source, err := index.NewSource(s.cfg.GetIndexSource(), s.cfg.GetIndexFetchTimeout())
	if err != nil {
		s.logger.Error("error creating search index source", "err", err.Error())
		return err
	}

	s.metrics = metrics.New()
	s.indexService = index.New(s.logger, source, s.kvdb, s.titledb, s.metrics, s.cfg.GetIndexFetchTimeout())
	s.searchService = search.New(s.logger, s.indexService, s.titledb, s.metrics)

	return nil

}

// loadIndex publishes the first index. A failure only disables search until
// a later reload succeeds; the server still starts.
func (s *server) loadIndex(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, s.cfg.GetIndexFetchTimeout())
	defer cancel()

	if _, err := s.indexService.Load(loadCtx); err != nil {
		s.logger.Error("could not load search index at startup", "err", err.Error())
	}
}

func (s *server) setupRouter() {
	router := newRouter()

	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(s.logger))
	router.Use(metricsMiddleware(s.metrics))

	setupRoutes(router, s.logger, s.indexService, s.searchService, s.metrics, s.validator)

	s.router = router
}

func (s *server) setupHTTPServer() {

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler:           s.router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.httpServer = httpServer
	go func() {
		s.logger.Info("http server listening", "addr", httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
}

func (s *server) setupGracefulShutdown(ctx context.Context) {

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		s.logger.Info("starting to shut down http server")
		shutdownCtx := context.Background()
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error shutting down http server", "err", err)
		}
		s.closeDatabases()
		s.logger.Info("shut down http server successfully")
	}()

	wg.Wait()
}

func (s *server) closeDatabases() {
	if s.titledb != nil {
		if err := s.titledb.Close(); err != nil {
			s.logger.Error("error closing title database", "err", err)
		}
	}
	if s.kvdb != nil {
		if err := s.kvdb.Close(); err != nil {
			s.logger.Error("error closing kv database", "err", err)
		}
	}
}
