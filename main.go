package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"ai_recommendation/cache"
	"ai_recommendation/category"
	"ai_recommendation/config"
	"ai_recommendation/db"
	"ai_recommendation/handlers"
	"ai_recommendation/logger"
	"ai_recommendation/models"
	"ai_recommendation/repository"
	"ai_recommendation/scheduler"
	"ai_recommendation/services"
	"ai_recommendation/utils"
)

const usage = "usage: ai_recommendation <user_id> [limit] | ai_recommendation serve"

// command 命令行参数
type command struct {
	serve  bool
	userID int64
	limit  int
}

func parseArgs(args []string, defaultLimit, maxLimit int) (command, error) {
	if len(args) == 0 || len(args) > 2 {
		return command{}, errors.New(usage)
	}
	if args[0] == "serve" {
		if len(args) != 1 {
			return command{}, errors.New(usage)
		}
		return command{serve: true}, nil
	}

	userID, err := utils.ParseUserID(args[0])
	if err != nil {
		return command{}, err
	}

	raw := ""
	if len(args) == 2 {
		raw = args[1]
		if raw == "" {
			return command{}, errors.New("limit must be an integer: \"\"")
		}
	}
	limit, err := utils.ParseLimit(raw, defaultLimit, maxLimit)
	if err != nil {
		return command{}, err
	}
	return command{userID: userID, limit: limit}, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		return fail(stderr, fmt.Errorf("load config: %w", err))
	}

	// 初始化日志系统
	if err := logger.Init(cfg); err != nil {
		log.Printf("init logger failed: %v", err)
	}

	cmd, err := parseArgs(args, cfg.Recommendation.DefaultLimit, cfg.Recommendation.MaxLimit)
	if err != nil {
		return fail(stderr, err)
	}

	if err := db.InitWithConfig(cfg); err != nil {
		logger.Error("初始化数据库失败", "driver", cfg.DB.Driver, "error", err)
		return fail(stderr, fmt.Errorf("%w: %w", services.ErrStoreUnavailable, err))
	}
	defer db.Close()
	logger.Debug("数据库连接成功",
		"driver", cfg.DB.Driver,
		"max_open_conns", cfg.DB.MaxOpenConns,
		"max_idle_conns", cfg.DB.MaxIdleConns,
		"conn_max_lifetime", cfg.DB.ConnMaxLifetime)

	engine := category.NewEngineFromConfig(cfg)
	store := repository.NewStore(db.DB)
	ranker := services.NewHybridRanker(store, engine, cfg)

	if cmd.serve {
		if err := serve(cfg, store, engine, ranker); err != nil {
			logger.Error("服务异常退出", "error", err)
			return 1
		}
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Timeouts.RequestSec)*time.Second)
	defer cancel()

	result, err := ranker.RecommendWithProfile(ctx, cmd.userID, cmd.limit)
	if err != nil {
		return fail(stderr, err)
	}
	if err := writeJSON(stdout, result); err != nil {
		return fail(stderr, err)
	}
	return 0
}

func serve(cfg *config.Config, store *repository.Store, engine *category.Engine, ranker *services.HybridRanker) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisCache, err := cache.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisCache.Close()

	checks := map[string]handlers.Pinger{"database": store}
	var resultCache services.ResultCache
	if redisCache != nil {
		resultCache = redisCache
		checks["redis"] = redisCache
	}
	svc := services.NewRecommendationService(ranker, engine, resultCache)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	handlers.NewHandler(cfg, svc, checks).RegisterRoutes(r)

	if cfg.Scheduler.Enabled {
		sched := scheduler.NewScheduler(cfg, store, svc)
		sched.Start(ctx)
		defer sched.Wait()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Timeouts.RequestSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Timeouts.ResponseSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Timeouts.IdleSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("服务器启动", "address", cfg.Server.Addr)
		logger.Info("Swagger文档可访问", "url", fmt.Sprintf("http://%s/swagger/index.html", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("正在关闭服务器")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fail 输出 {"error": "..."} 到 stderr，返回退出码
func fail(stderr io.Writer, err error) int {
	_ = writeJSON(stderr, models.ErrorPayload{Error: err.Error()})
	return 1
}
