package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	httpapi "github.com/radieske/coupon-builder-poc/internal/builder/http"
	"github.com/radieske/coupon-builder-poc/internal/builder/producer"
	"github.com/radieske/coupon-builder-poc/internal/builder/registry"
	"github.com/radieske/coupon-builder-poc/internal/builder/ws"
	"github.com/radieske/coupon-builder-poc/internal/favorites"
	"github.com/radieske/coupon-builder-poc/internal/remote/accounts"
	"github.com/radieske/coupon-builder-poc/internal/remote/catalog"
	"github.com/radieske/coupon-builder-poc/internal/remote/coupon"
	"github.com/radieske/coupon-builder-poc/internal/remote/ocrsvc"
	"github.com/radieske/coupon-builder-poc/internal/remote/settings"
	"github.com/radieske/coupon-builder-poc/internal/shared/cache"
	"github.com/radieske/coupon-builder-poc/internal/shared/config"
	"github.com/radieske/coupon-builder-poc/internal/shared/httpx"
	"github.com/radieske/coupon-builder-poc/internal/shared/kafka"
	"github.com/radieske/coupon-builder-poc/internal/shared/logger"
	"github.com/radieske/coupon-builder-poc/internal/shared/metrics"
	"github.com/radieske/coupon-builder-poc/internal/shared/token"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Redis (cache de catálogos)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka writers (eventos de fechamento de sessão)
	placedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicCouponPlaced)
	defer placedWriter.Close()
	discardedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicCouponDiscarded)
	defer discardedWriter.Close()

	// HTTP client compartilhado com bearer token; 401 limpa os tokens
	tokens := token.NewMemoryStore()
	tokens.SetTokens(os.Getenv("BACKEND_ACCESS_TOKEN"), os.Getenv("BACKEND_REFRESH_TOKEN"))
	httpClient := httpx.NewClient(tokens, func() {
		log.Warn("backend returned 401, credentials cleared")
	})

	// Clients do backend autoritativo
	coupons := coupon.New(cfg.BackendBaseURL, httpClient)
	accts := accounts.New(cfg.BackendBaseURL, httpClient)
	catalogs := catalog.New(cfg.BackendBaseURL, httpClient, catalog.NewCache(rdb), cfg.CatalogCacheTTL)
	setts := settings.New(cfg.BackendBaseURL, httpClient)
	ocrClient := ocrsvc.New(cfg.OCRBaseURL, httpClient)

	// Favoritos com persistência debounced nas settings remotas
	favs := favorites.New(log, setts, cfg.FavoritesDebounce)
	if err := favs.Load(context.Background()); err != nil {
		log.Warn("favorites initial load", zap.Error(err))
	}
	defer favs.Flush()

	publ := producer.NewKafkaPublisher(placedWriter, discardedWriter)
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	sessions := registry.New()

	// API pública do builder
	api := httpapi.NewServer(log, sessions, coupons, accts, catalogs, ocrClient, favs, publ, hub)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	log.Info("coupon-builder listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
