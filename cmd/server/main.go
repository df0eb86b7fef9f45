package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"krishi-backend/internal/auth"
	"krishi-backend/internal/cache"
	"krishi-backend/internal/config"
	"krishi-backend/internal/database"
	"krishi-backend/internal/db"
	"krishi-backend/internal/handlers"
	"krishi-backend/internal/health"
	h "krishi-backend/internal/http"
	"krishi-backend/internal/middleware"
	"krishi-backend/internal/monitoring"
	"krishi-backend/internal/repositories"
	"krishi-backend/internal/services"
	"krishi-backend/internal/storage"
	"krishi-backend/internal/whatsapp"
	"krishi-backend/migrations"
)

func main() {
	cfg := config.Load()

	pool := db.Connect(cfg)
	defer pool.Close()

	// Run embedded migrations before serving traffic
	migrator := database.NewMigrator(pool, migrations.FS, ".")
	if err := migrator.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Redis cache is optional - everything falls back to the database
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable, continuing without it: %v", err)
	}

	// WhatsApp provider: real Cloud API when configured, mock otherwise
	var provider whatsapp.Provider
	if cfg.WhatsApp.APIKey != "" && cfg.WhatsApp.PhoneNumberID != "" {
		provider = whatsapp.NewCloudAPIService(cfg.WhatsApp.APIKey, cfg.WhatsApp.PhoneNumberID)
	} else {
		log.Println("[WhatsApp] No credentials configured, using mock provider")
		provider = whatsapp.NewMockService()
	}

	// Object storage for product images (optional)
	storageClient, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Storage init failed: %v", err)
	}
	if storageClient == nil {
		log.Println("[Storage] R2 not configured, product images disabled")
	}

	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	purchaseRepo := repositories.NewPurchaseRepository(pool)
	messageLogRepo := repositories.NewMessageLogRepository(pool)
	transactionRepo := repositories.NewOnlineTransactionRepository(pool)

	// Services
	notificationService := services.NewNotificationService(provider, messageLogRepo, cfg.App.ClientURL)
	userService := services.NewUserService(userRepo, jwtManager, notificationService)
	productService := services.NewProductService(productRepo, storageClient)
	purchaseService := services.NewPurchaseService(purchaseRepo, userRepo, productRepo, notificationService)
	announcementService := services.NewAnnouncementService(userRepo, purchaseRepo, notificationService)
	receiptService := services.NewReceiptService(purchaseRepo)
	totpService := services.NewTOTPService(userRepo, jwtManager)
	razorpayService := services.NewRazorpayService(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, transactionRepo, purchaseService)
	if !razorpayService.IsEnabled() {
		log.Println("[Razorpay] No credentials configured, online payments disabled")
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, totpService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, receiptService)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService, messageLogRepo)
	paymentHandler := handlers.NewPaymentHandler(razorpayService, userService)
	totpHandler := handlers.NewTOTPHandler(totpService, userService)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool))

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	router := h.NewRouter(
		authHandler,
		userHandler,
		productHandler,
		purchaseHandler,
		announcementHandler,
		paymentHandler,
		totpHandler,
		healthHandler,
		authMiddleware,
	)

	// Ops dashboard on its own port
	go monitoring.NewMonitoringServer(pool, cfg.Monitoring.Port).Start()

	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
