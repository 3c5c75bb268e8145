package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dutchauctiongo/internal/accessguard"
	"dutchauctiongo/internal/config"
	"dutchauctiongo/internal/custody/rediscustodian"
	"dutchauctiongo/internal/database/db_client"
	"dutchauctiongo/internal/domain"
	"dutchauctiongo/internal/escrow"
	"dutchauctiongo/internal/events"
	"dutchauctiongo/internal/http/http_server"
	"dutchauctiongo/internal/payment/redisledger"
	"dutchauctiongo/internal/redis/redis_client"
	"dutchauctiongo/internal/redis/redis_functions"
	"dutchauctiongo/internal/redis/watcher/auctionwatcher"
	"dutchauctiongo/internal/registry"
	"dutchauctiongo/internal/services/auction"
	"dutchauctiongo/internal/syncdb"
	"dutchauctiongo/internal/syncsales"
	"dutchauctiongo/internal/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(cfg.RedisAuctionsHost, int(cfg.RedisAuctionsPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// Load the Redis Functions lua
	if err := redis_functions.LoadAll(ctx, redisClient); err != nil {
		Log.Fatal("load-redis-funcs", zap.Error(err))
	}

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Collaborators and the auction service
	escrowAddr := domain.Address(cfg.EscrowAddress).Normalize()
	custodian := rediscustodian.New(redisClient, escrowAddr)
	ledger := redisledger.New(redisClient, domain.Address(cfg.PaymentTokenAddress))
	guard := accessguard.New(domain.Address(cfg.AdminAddress))
	reg := registry.New()
	esc := escrow.New(custodian, ledger)
	pub := events.NewRedisPublisher(redisClient)

	auctionService := auction.NewAuctionService(guard, reg, esc, pub)
	if err := auctionService.Initialize(ctx, domain.Address(cfg.PaymentTokenAddress)); err != nil {
		Log.Fatal("auction-init", zap.Error(err))
	}

	// 6. Background: key-expiry watcher ➜ announce expired auctions
	go auctionwatcher.Run(ctx, redisClient, reg, pub)

	// 7. Background: 10 s registry mirror + sales journal consumer
	syncdb.Run(ctx, reg, pgDb)
	syncsales.Run(ctx, redisClient, pgDb)

	// 8. WebSockets hub + per-auction Redis subscriptions
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, auctionService)

	// 9. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, auctionService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
