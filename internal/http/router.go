package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"krishi-backend/internal/handlers"
	"krishi-backend/internal/middleware"
	"krishi-backend/internal/models"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	productHandler *handlers.ProductHandler,
	purchaseHandler *handlers.PurchaseHandler,
	announcementHandler *handlers.AnnouncementHandler,
	paymentHandler *handlers.PaymentHandler,
	totpHandler *handlers.TOTPHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	admin := authMiddleware.RequireAdmin

	// Public API routes - Authentication
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/admin/login", authHandler.AdminLogin).Methods("POST")
	r.HandleFunc("/api/auth/login/totp", authHandler.LoginTOTP).Methods("POST")
	r.HandleFunc("/api/auth/forgot-password", authHandler.ForgotPassword).Methods("POST")
	r.HandleFunc("/api/auth/reset-password", authHandler.ResetPassword).Methods("POST")

	// Public API routes - Catalog (farmers browse without an account)
	r.HandleFunc("/api/products", productHandler.ListProducts).Methods("GET")
	r.HandleFunc("/api/products/search", productHandler.SearchProducts).Methods("GET")
	r.HandleFunc("/api/products/{id}", productHandler.GetProduct).Methods("GET")

	// Public API routes - Payment gateway availability
	r.HandleFunc("/api/payments/status", paymentHandler.Status).Methods("GET")

	// Protected API routes - Profile
	profileAPI := r.PathPrefix("/api/auth").Subrouter()
	profileAPI.Use(authMiddleware.Authenticate)
	profileAPI.HandleFunc("/profile", authHandler.GetProfile).Methods("GET")
	profileAPI.HandleFunc("/profile", authHandler.UpdateProfile).Methods("PATCH")
	profileAPI.HandleFunc("/change-password", authHandler.ChangePassword).Methods("POST")

	// Protected API routes - TOTP (admin 2FA management)
	totpAPI := r.PathPrefix("/api/auth/totp").Subrouter()
	totpAPI.Use(authMiddleware.Authenticate)
	totpAPI.HandleFunc("/setup", admin(http.HandlerFunc(totpHandler.Setup)).ServeHTTP).Methods("POST")
	totpAPI.HandleFunc("/verify", admin(http.HandlerFunc(totpHandler.VerifyAndEnable)).ServeHTTP).Methods("POST")
	totpAPI.HandleFunc("/disable", admin(http.HandlerFunc(totpHandler.Disable)).ServeHTTP).Methods("POST")
	totpAPI.HandleFunc("/backup-codes", admin(http.HandlerFunc(totpHandler.RegenerateBackupCodes)).ServeHTTP).Methods("POST")

	// Protected API routes - Products (mutations are admin only)
	productsAPI := r.PathPrefix("/api/products").Subrouter()
	productsAPI.Use(authMiddleware.Authenticate)
	productsAPI.HandleFunc("", admin(http.HandlerFunc(productHandler.CreateProduct)).ServeHTTP).Methods("POST")
	productsAPI.HandleFunc("/{id}", admin(http.HandlerFunc(productHandler.UpdateProduct)).ServeHTTP).Methods("PATCH")
	productsAPI.HandleFunc("/{id}", admin(http.HandlerFunc(productHandler.DeleteProduct)).ServeHTTP).Methods("DELETE")

	// Protected API routes - Purchases
	purchasesAPI := r.PathPrefix("/api/purchases").Subrouter()
	purchasesAPI.Use(authMiddleware.Authenticate)
	purchasesAPI.HandleFunc("", admin(http.HandlerFunc(purchaseHandler.CreatePurchase)).ServeHTTP).Methods("POST")
	purchasesAPI.HandleFunc("", purchaseHandler.ListPurchases).Methods("GET")
	purchasesAPI.HandleFunc("/user", purchaseHandler.ListMyPurchases).Methods("GET")
	purchasesAPI.HandleFunc("/bulk-upload", admin(http.HandlerFunc(purchaseHandler.BulkUpload)).ServeHTTP).Methods("POST")
	purchasesAPI.HandleFunc("/{id}", purchaseHandler.GetPurchase).Methods("GET")
	purchasesAPI.HandleFunc("/{id}/status", admin(http.HandlerFunc(purchaseHandler.UpdateStatus)).ServeHTTP).Methods("PATCH")
	purchasesAPI.HandleFunc("/{id}/receipt", purchaseHandler.Receipt).Methods("GET")

	// Protected API routes - Users (admin only)
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.Authenticate)
	usersAPI.HandleFunc("", authMiddleware.RequireRole(models.RoleAdmin)(http.HandlerFunc(userHandler.ListUsers)).ServeHTTP).Methods("GET")
	usersAPI.HandleFunc("/{id}", admin(http.HandlerFunc(userHandler.DeleteUser)).ServeHTTP).Methods("DELETE")
	usersAPI.HandleFunc("/{id}/role", admin(http.HandlerFunc(userHandler.UpdateRole)).ServeHTTP).Methods("PATCH")

	// Protected API routes - Announcements and reminders (admin only)
	announcementsAPI := r.PathPrefix("/api/announcements").Subrouter()
	announcementsAPI.Use(authMiddleware.Authenticate)
	announcementsAPI.HandleFunc("", admin(http.HandlerFunc(announcementHandler.Broadcast)).ServeHTTP).Methods("POST")
	announcementsAPI.HandleFunc("/payment-reminders", admin(http.HandlerFunc(announcementHandler.SendPaymentReminders)).ServeHTTP).Methods("POST")

	// Protected API routes - Message logs (admin only)
	messageLogsAPI := r.PathPrefix("/api/message-logs").Subrouter()
	messageLogsAPI.Use(authMiddleware.Authenticate)
	messageLogsAPI.HandleFunc("", admin(http.HandlerFunc(announcementHandler.ListMessageLogs)).ServeHTTP).Methods("GET")

	// Protected API routes - Online payments
	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.Use(authMiddleware.Authenticate)
	paymentsAPI.HandleFunc("/order", paymentHandler.CreateOrder).Methods("POST")
	paymentsAPI.HandleFunc("/verify", paymentHandler.VerifyPayment).Methods("POST")

	// Health endpoints (no auth required - for probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
