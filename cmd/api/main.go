package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"shortly.local/internal/app/shortlink"
	slcache "shortly.local/internal/app/shortlink/cache"
	"shortly.local/internal/app/shortlink/httpapi"
	"shortly.local/internal/app/shortlink/repo"
	"shortly.local/internal/platform/auth"
	platformcache "shortly.local/internal/platform/cache"
	"shortly.local/internal/platform/config"
	"shortly.local/internal/platform/db"
	"shortly.local/internal/platform/httpmiddleware"
	"shortly.local/internal/platform/httpserver"
	"shortly.local/internal/platform/metrics"
	"shortly.local/internal/platform/migrate"
	"shortly.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	slog.SetDefault(slog.New(h))

	// DB
	dbCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	dbPool, errDB := db.New(dbCtx, cfg.DBDSN)
	if errDB != nil {
		log.Fatal(errDB)
	}
	defer dbPool.Close()
	if err := dbPool.Ping(dbCtx); err != nil {
		log.Fatal(err)
	}
	slog.Info("database connected")

	if cfg.MigrateOnStart {
		res, err := migrate.Up(context.Background(), dbPool, migrate.Options{})
		if err != nil {
			log.Fatal(err)
		}
		slog.Info("migrations applied", "dir", res.Dir, "applied", len(res.AppliedFiles), "skipped", len(res.SkippedFiles))
	}

	usersRepo := repo.NewUsersRepo(dbPool)

	// 缓存：Redis L2 + ristretto L1。连不上 Redis 就降级为纯 DB 路径——
	// 缓存只是旁路优化，不参与正确性。
	var slCache *slcache.ShortlinkCache
	if cfg.CacheEnabled {
		redisClient, errRedis := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if errRedis != nil {
			slog.Warn("redis unavailable, running without cache", "err", errRedis)
		} else {
			defer redisClient.Close()
			localCache, errLocal := slcache.NewLocalCache(100000, 1<<24) // 10万条目，16MB
			if errLocal != nil {
				log.Fatal(errLocal)
			}
			slCache = slcache.NewShortlinkCache(redisClient, localCache)
			defer slCache.Close()
		}
	} else {
		slog.Warn("cache disabled by config", "CACHE_ENABLED", false)
	}

	// 布隆过滤器：启动时必须先灌满已有短码，灌失败就禁用
	var bloomFilter *slcache.BloomFilter
	if cfg.BloomEnabled {
		bloomFilter = slcache.NewBloomFilter(cfg.BloomExpected, cfg.BloomFalsePosRat)
	}

	slRepo := repo.NewShortlinksRepo(dbPool, slCache, bloomFilter)
	if bloomFilter != nil {
		n, err := slRepo.WarmBloom(context.Background())
		if err != nil {
			slog.Warn("bloom warmup failed, running without bloom filter", "err", err)
			slRepo = repo.NewShortlinksRepo(dbPool, slCache, nil)
		} else {
			slog.Info("bloom filter warmed", "codes", n)
		}
	}

	svc := shortlink.NewService(slRepo)

	// JWT
	ts, jwtErr := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if jwtErr != nil {
		log.Fatal(jwtErr)
	}

	metrics.Init()

	if cfg.TracingEnabled {
		shutdown := trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName)
		if shutdown == nil {
			slog.Error("trace init failed")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error(err.Error())
				}
			}()
		}
	} else {
		slog.Warn("tracing disabled by config", "TRACING_ENABLED", false)
	}

	// 对外业务
	r := mux.NewRouter()
	r.Use(httpmiddleware.Recover, httpmiddleware.RequestID, httpmiddleware.AccessLog, httpmiddleware.Metrics)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	httpapi.RegisterAPIRoutes(api, svc, usersRepo, ts, cfg.BaseURL)
	// 跳转路由最后注册，避免 /{code} 盖住上面的静态路由
	httpapi.RegisterPublicRoutes(r, svc)

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)

	// 仅本机/内网
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	// 数据库连接状态检测
	adminMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		dbCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := dbPool.Ping(dbCtx); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("DB ping err"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("DB ready"))
	})

	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})

	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	adminSrv := &http.Server{
		Addr:              cfg.AdminAddr, // 推荐：127.0.0.1:6060
		Handler:           adminMux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errch := make(chan error, 2)

	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(publicSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(adminSrv, cfg.ShutdownTimeout, stopCtx)
	}()

	err := <-errch
	if err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		log.Fatal(err)
	}

	stop()
	<-errch
}
