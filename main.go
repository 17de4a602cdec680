package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agencyhub/config"
	"agencyhub/cron"
	"agencyhub/database"
	bookingRepo "agencyhub/database/repository/booking"
	invoiceRepo "agencyhub/database/repository/invoice"
	"agencyhub/database/repository/memory"
	serviceRepo "agencyhub/database/repository/service"
	"agencyhub/handlers"
	"agencyhub/middleware"
	"agencyhub/routes"
	"agencyhub/services/billing"
	"agencyhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Storage.
	svc := &billing.DefaultBillingService{
		Terms:  billing.DefaultTerms(cfg.DefaultCurrency, cfg.InvoiceDueDays),
		Logger: logger.Named("billing"),
	}
	var mongoClient *mongo.Client
	if config.UsesMemoryStore() {
		logger.Warn("main: using the in-memory store, data is lost on restart")
		store := memory.New()
		svc.Invoices, svc.Bookings, svc.Services, svc.Tx = store.Invoices(), store.Bookings(), store.Services(), store
	} else {
		client, err := database.Connect(rootCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
		}
		mongoClient = client
		defer func() { _ = client.Disconnect(context.Background()) }()

		db := client.Database(cfg.DatabaseName)
		invoices := invoiceRepo.NewMongoInvoiceRepo(db)
		if err := invoices.EnsureIndexes(rootCtx); err != nil {
			logger.Fatal("main: failed to create invoice indexes", zap.Error(err))
		}
		svc.Invoices = invoices
		svc.Bookings = bookingRepo.NewMongoBookingRepo(db)
		svc.Services = serviceRepo.NewMongoServiceRepo(db)
		svc.Tx = database.NewMongoTxRunner(client, cfg.MongoTransactions)
		logger.Info("main: connected to MongoDB",
			zap.String("database", cfg.DatabaseName), zap.Bool("transactions", cfg.MongoTransactions))
	}

	// Redis: invoice locks and token revocation.
	var redisClients []*redis.Client
	var revoked utils.RevocationStore = utils.NewMemoryRevocationStore()
	if cfg.LockBackend == "redis" {
		lockClient, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisLockDB)
		if err != nil {
			logger.Fatal("main: invoice lock backend unavailable", zap.Error(err))
		}
		authClient, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisAuthDB)
		if err != nil {
			logger.Fatal("main: auth cache unavailable", zap.Error(err))
		}
		redisClients = append(redisClients, lockClient, authClient)
		svc.Locker = utils.NewRedisLocker(lockClient, time.Duration(cfg.LockTTLSeconds)*time.Second)
		revoked = utils.NewRedisRevocationStore(authClient)
	} else {
		logger.Warn("main: using process-local invoice locks, run a single replica only")
		svc.Locker = utils.NewLocalLocker()
	}

	utils.StartHealthMonitor(rootCtx, 30*time.Second, redisClients, mongoClient)

	// Background overdue sweeps.
	if cfg.EnableWorker {
		worker, err := cron.NewOverdueWorker(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisTaskDB,
		}, cfg.OverdueSweepCron, svc, logger.Named("worker"))
		if err != nil {
			logger.Fatal("main: failed to configure overdue worker", zap.Error(err))
		}
		worker.Start()
		defer worker.Shutdown()
	}

	if cfg.JWTSecret == "" {
		logger.Warn("main: JWT_SECRET is empty, admin endpoints will reject every token")
	}
	tokenTTL := time.Duration(cfg.AdminTokenTTLMin) * time.Minute

	handlerBundle := &handlers.HandlerBundle{
		Invoices:       handlers.NewInvoiceHandler(svc),
		Admin:          handlers.NewAdminHandler(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret, tokenTTL, revoked),
		Auth:           middleware.NewAdminAuthorizer(cfg.JWTSecret, revoked, logger),
		RequestsPerMin: cfg.MaxRequestsPerMin,
	}

	// Create the Gin router.
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Fatal("main: invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	routes.RegisterRoutes(router, handlerBundle)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
