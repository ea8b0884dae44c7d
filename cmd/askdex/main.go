package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/config"
	dbRedis "github.com/kailas-cloud/askdex/internal/db/redis"
	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/guard"
	"github.com/kailas-cloud/askdex/internal/index"
	logpkg "github.com/kailas-cloud/askdex/internal/logger"
	"github.com/kailas-cloud/askdex/internal/metrics"
	"github.com/kailas-cloud/askdex/internal/repository/embcache"
	lexicalrepo "github.com/kailas-cloud/askdex/internal/repository/lexical"
	staterepo "github.com/kailas-cloud/askdex/internal/repository/state"
	vectorrepo "github.com/kailas-cloud/askdex/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/askdex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/askdex/internal/transport/openai"
	askuc "github.com/kailas-cloud/askdex/internal/usecase/ask"
	fituc "github.com/kailas-cloud/askdex/internal/usecase/fit"
	healthuc "github.com/kailas-cloud/askdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/askdex/internal/usecase/search"
	stateuc "github.com/kailas-cloud/askdex/internal/usecase/state"
	"github.com/kailas-cloud/askdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting askdex API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_path", cfg.Index.Path),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterCoreMetrics()

	// Open the read-only index artifact. Both segments missing is still
	// servable: state lookups and profile endpoints keep working.
	idx, err := index.Open(cfg.Index.Path, logger)
	if err != nil {
		logger.Fatal("Failed to open index", zap.Error(err))
	}
	metrics.IndexSegmentEnabled.WithLabelValues("lexical").Set(boolGauge(idx.LexicalEnabled()))
	metrics.IndexSegmentEnabled.WithLabelValues("vector").Set(boolGauge(idx.VectorEnabled()))
	logger.Info("Index loaded",
		zap.Int("frames", idx.FrameCount()),
		zap.Bool("lexical", idx.LexicalEnabled()),
		zap.Bool("vector", idx.VectorEnabled()),
	)

	// Optional embedding cache store
	var cacheStore *dbRedis.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		readyCtx := context.Background()
		if err := cacheStore.WaitForReady(readyCtx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Build the query embedder chain
	var queryEmbedder domain.Embedder
	var embeddingHealth healthuc.EmbeddingChecker
	if cfg.Embedding.Default != "" {
		vecCfg := cfg.Embedding.Vectorizers[cfg.Embedding.Default]
		provCfg := cfg.Embedding.Providers[vecCfg.Provider]

		base := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      vecCfg.Model,
			Dimensions: vecCfg.Dimensions,
			Provider:   vecCfg.Provider,
			Logger:     logger,
		})
		embeddingHealth = base

		queryEmbedder = base
		if cacheStore != nil {
			queryEmbedder = embcache.New(
				base, cacheStore, cfg.Cache.KeyPrefix,
				time.Duration(cfg.Cache.TTLSec)*time.Second,
				metrics.EmbeddingCacheTotal, logger,
			)
		}
		// Instruction prefix goes outermost so the cache key includes it.
		if vecCfg.QueryInstruction != "" {
			queryEmbedder = domain.NewInstructionEmbedder(queryEmbedder, vecCfg.QueryInstruction)
		}
		logger.Info("Query embedder created",
			zap.String("provider", vecCfg.Provider),
			zap.String("model", vecCfg.Model),
			zap.Int("dimensions", vecCfg.Dimensions),
		)
	} else {
		logger.Warn("No embedding vectorizer configured, vector retrieval disabled")
	}

	// Repositories over the index
	lexRepo := lexicalrepo.New(idx)
	vecRepo := vectorrepo.New(idx)
	stRepo := staterepo.New(idx)

	// Use case services
	searchSvc := searchuc.New(lexRepo, vecRepo, idx, queryEmbedder, logger).
		WithReranker(searchuc.NewOverlapReranker())
	stateSvc := stateuc.New(stRepo, logger)

	g := guard.New(cfg.Profile.Name, cfg.Profile.SuggestedQuestions, logger)

	var oaCompleter *openaiTransport.Completer
	if cfg.Answer.Provider != "" {
		provCfg := cfg.Embedding.Providers[cfg.Answer.Provider]
		oaCompleter = openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
			APIKey:      provCfg.APIKey,
			BaseURL:     provCfg.BaseURL,
			Model:       cfg.Answer.Model,
			MaxTokens:   cfg.Answer.MaxTokens,
			Temperature: cfg.Answer.Temperature,
			Timeout:     time.Duration(cfg.Answer.RequestTimeoutSec) * time.Second,
			Logger:      logger,
		})
		logger.Info("Answer completer created",
			zap.String("provider", cfg.Answer.Provider),
			zap.String("model", cfg.Answer.Model),
		)
	} else {
		logger.Warn("No answer provider configured, answers synthesize evidence only")
	}

	// Typed-nil guard: the interface fields must stay nil when no
	// provider is configured.
	var completer askuc.Completer
	var oneShot fituc.Completer
	if oaCompleter != nil {
		completer = oaCompleter
		oneShot = oaCompleter
	}

	askSvc := askuc.New(searchSvc, completer, g, logger)
	if cfg.Answer.TransformQuery && oaCompleter != nil {
		askSvc = askSvc.WithTransformer(askuc.NewKeywordTransformer(oaCompleter, logger))
		logger.Info("Query keyword expansion enabled")
	}
	fitSvc := fituc.New(searchSvc, oneShot, logger)

	// Health service — nil optional dependencies are skipped.
	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(idx, embeddingHealth, cachePinger)

	server := chiTransport.NewServer(searchSvc, askSvc, fitSvc, stateSvc, healthSvc, chiTransport.Profile{
		Name:                  cfg.Profile.Name,
		Title:                 cfg.Profile.Title,
		Location:              cfg.Profile.Location,
		Contact:               cfg.Profile.Contact,
		SuggestedQuestions:    cfg.Profile.SuggestedQuestions,
		FitAssessmentExamples: fitExamples(cfg.Profile.FitAssessmentExamples),
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func fitExamples(examples []config.FitAssessmentExample) []chiTransport.FitExample {
	out := make([]chiTransport.FitExample, len(examples))
	for i, ex := range examples {
		out[i] = chiTransport.FitExample{
			Title:          ex.Title,
			FitLevel:       ex.FitLevel,
			Role:           ex.Role,
			JobDescription: ex.JobDescription,
			Verdict:        ex.Verdict,
			KeyMatches:     ex.KeyMatches,
			Gaps:           ex.Gaps,
			Recommendation: ex.Recommendation,
		}
	}
	return out
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
