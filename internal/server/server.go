package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/cache"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/compress"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/config"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/jobs"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/module"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/queue"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/service"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/store"
	"github.com/gobuffalo/packr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server represents the server
type Server struct {
	cfg *config.Config
}

// NewServer creates a new server
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
	}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.cfg); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Start wires the stores, services and jobs and serves the REST api until
// the process is signalled.
func Start(cnf *config.Config) error {
	var err error

	httpPort := ":" + cnf.HTTPPort
	rdb := config.GetDb(cnf)

	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	docStore := store.NewGormStore(rdb)
	err = docStore.Migrate()
	if err != nil {
		return err
	}

	compressor, err := compress.ByName(cnf.Compression)
	if err != nil {
		return err
	}

	var kv cache.KV
	if cnf.RedisAddr != "" {
		redisKV := cache.NewRedisKV(cnf.RedisAddr, cnf.RedisPassword, cnf.RedisDB)
		defer redisKV.Close()
		if err := redisKV.Ping(context.Background()); err != nil {
			logrus.Warnf("redis at %s is not reachable yet: %v", cnf.RedisAddr, err)
		}
		kv = redisKV
	} else {
		logrus.Info("REDIS_ADDR not set, caching documents in memory")
		kv = cache.NewMemoryKV(nil)
	}
	documentCache := cache.NewDocumentCache(kv, cache.DefaultDocumentTTL)

	var events queue.EventQueue = queue.NopQueue{}
	if cnf.KafkaBrokers != "" {
		kafkaQueue, err := queue.NewKafkaQueue(cnf.KafkaBrokers, cnf.KafkaTopic)
		if err != nil {
			return err
		}
		events = kafkaQueue
	}
	defer events.Close()

	var tokens module.TokenService = NewTokenService(cnf.APITokens)
	if cnf.Insecure {
		logrus.Warn("insecure mode: bearer tokens are trusted as owner ids")
		tokens = NewNullTokenService()
	}

	handler := NewHandler(
		service.NewDocumentService(compressor, docStore, documentCache, events),
		service.NewCheckpointService(compressor, docStore, documentCache, events, cnf.CheckpointsEnabled),
		service.NewCitationService(docStore),
		service.NewAccessService(cnf.EditorAllowList),
	)

	executor := jobs.NewTaskExecutor(jobs.NewCheckpointRetentionTask(
		cnf.CheckpointRetentionCron,
		docStore,
		jobs.AllOf{
			jobs.KeepNewest{N: cnf.CheckpointRetention},
			jobs.WindowThinning{Window: 10 * time.Minute, After: time.Hour},
		},
		nil,
	))
	if err := executor.Run(); err != nil {
		return err
	}
	defer executor.Stop()

	apiMux := http.NewServeMux()
	openapiDocs := packr.NewBox("../../docs/v1")
	docsPath := "/v1/docs/"
	apiMux.Handle(docsPath, http.StripPrefix(docsPath, http.FileServer(openapiDocs)))
	apiMux.Handle("/metrics", promhttp.Handler())
	apiMux.Handle("/", NewRouter(handler, tokens))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // All origins are allowed
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	restServer := &http.Server{
		Addr:              httpPort,
		Handler:           c.Handler(apiMux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting rest server on: ", httpPort)
		logrus.Info("click on the following link to view the API documentation: http://localhost", httpPort, "/v1/docs/")
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting rest server: %v", err)
			}
		}
		logrus.Infof("rest server stopped")
	}()

	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = restServer.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("error stopping rest server: %v", err)
	}

	wg.Wait()

	return nil
}
