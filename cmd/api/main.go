package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/catalog"
	"storefront/internal/infra/db"
	"storefront/internal/infra/mq"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/token"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"
	"storefront/internal/worker"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envは無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.GoEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//DB接続（受付票）
	gormDB, err := db.Connect(cfg.PostgresDSN(), cfg.IsProd())
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		lg.Fatal("db migrate failed", zap.Error(err))
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	//イベント送信。AMQP_URLが無ければログだけ
	var publisher repo.CheckoutPublisher = mq.NewLogPublisher(lg)
	if cfg.AMQPURL != "" {
		rp, err := mq.NewRabbitPublisher(cfg.AMQPURL, cfg.CheckoutQueue, lg)
		if err != nil {
			lg.Fatal("amqp connect failed", zap.Error(err))
		}
		defer rp.Close()
		publisher = rp
	}

	//Repository生成
	sessionRepo := infraRepo.NewSessionMemoryRepository(cfg.SessionTTL, cfg.MaxSessions)
	receiptRepo := infraRepo.NewCheckoutGormRepository(gormDB)
	catalogClient := catalog.NewClient(cfg.CatalogAPIURL, cfg.CatalogAPIToken, cfg.CatalogTimeout, lg)

	//セッショントークン
	sessionJWT := token.NewSessionJWT(cfg.SessionSecret, cfg.SessionMaxAge)

	//Usecase生成
	sessionUC := usecase.NewSessionUsecase(sessionRepo, sessionJWT, lg)
	productUC := usecase.NewProductUsecase(catalogClient)
	cartUC := usecase.NewCartUsecase(sessionRepo, catalogClient, lg)
	checkoutUC := usecase.NewCheckoutUsecase(
		sessionRepo,
		receiptRepo,
		publisher,
		validator.NewCheckoutValidator(),
		cfg.TaxRate,
		cfg.CheckoutDelay,
		lg,
	)

	//期限切れセッションの掃除
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		worker.NewSessionSweeper(sessionRepo, lg, cfg.SessionSweepInterval).Start(ctx)
	}()

	//Handler生成
	e := server.New(cfg, lg, sessionJWT, server.Handlers{
		Session:  handler.NewSessionHandler(sessionUC),
		Product:  handler.NewProductHandler(productUC),
		Cart:     handler.NewCartHandler(cartUC),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
	})

	//Server起動
	if err := server.Start(ctx, e, cfg.Addr(), lg); err != nil {
		lg.Error("http server failed", zap.Error(err))
	}

	stop()
	<-sweeperDone
	lg.Info("bye")
}
