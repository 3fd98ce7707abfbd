package router

import (
	"time"

	"github.com/sahidursuman/flex-commerce/config"
	"github.com/sahidursuman/flex-commerce/internal/handler"
	"github.com/sahidursuman/flex-commerce/internal/middleware"
	"github.com/sahidursuman/flex-commerce/internal/repository"
	"github.com/sahidursuman/flex-commerce/internal/service"
	"github.com/sahidursuman/flex-commerce/internal/ws"
	"github.com/sahidursuman/flex-commerce/pkg/alipay"
	"github.com/sahidursuman/flex-commerce/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, gateway *alipay.Client, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	paymentSvc := service.NewPaymentService(db, gateway, cfg)
	orderSvc := service.NewOrderService(db)
	transferSvc := service.NewTransferService(db, gateway)
	searchSvc := service.NewProductSearchService(db)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	productHandler := handler.NewProductHandler(productRepo, searchSvc)
	cartHandler := handler.NewCartHandler(cartRepo, productRepo)
	orderHandler := handler.NewOrderHandler(orderSvc, orderRepo, cartRepo, paymentRepo)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, gateway, orderRepo, notifRepo, hub)
	walletHandler := handler.NewWalletHandler(walletRepo, txRepo, transferRepo, transferSvc)
	addressHandler := handler.NewAddressHandler(addressRepo)
	notificationHandler := handler.NewNotificationHandler(notifRepo)
	adminHandler := handler.NewAdminHandler(orderRepo, productRepo, settingRepo, walletRepo, transferSvc, cloud)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		api.GET("/products", productHandler.List)
		api.GET("/products/search", productHandler.Search)
		api.GET("/products/:id", productHandler.Get)

		cart := api.Group("/cart")
		cart.Use(authMw)
		{
			cart.GET("", cartHandler.Get)
			cart.POST("/items", cartHandler.AddItem)
			cart.DELETE("/items/:inventory_id", cartHandler.RemoveItem)
		}

		orders := api.Group("/orders")
		orders.Use(authMw)
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.PATCH("/:id/shipping", orderHandler.SelectShipping)
			orders.POST("/:id/shipping/confirm", orderHandler.ConfirmShipping)
			orders.POST("/:id/address/confirm", orderHandler.ConfirmAddress)
			orders.POST("/:id/confirm", orderHandler.Confirm)
			orders.POST("/:id/payments", paymentHandler.Create)
		}

		api.GET("/payments/:id", authMw, paymentHandler.Get)
		// Processor callbacks carry their own authenticity (signature); no JWT.
		api.GET("/payments/:id/alipay_return", paymentHandler.AlipayReturn)
		api.POST("/payments/:id/alipay_notify", paymentHandler.AlipayNotify)

		wallet := api.Group("/wallet")
		wallet.Use(authMw)
		{
			wallet.GET("", walletHandler.Get)
			wallet.GET("/transactions", walletHandler.Ledger)
			wallet.GET("/withdrawals", walletHandler.Withdrawals)
			wallet.POST("/withdrawals", walletHandler.Withdraw)
			wallet.POST("/transfers", walletHandler.Transfer)
		}

		addresses := api.Group("/addresses")
		addresses.Use(authMw)
		{
			addresses.POST("", addressHandler.Create)
			addresses.GET("", addressHandler.List)
			addresses.PUT("/:id", addressHandler.Update)
			addresses.DELETE("/:id", addressHandler.Delete)
		}

		notifications := api.Group("/notifications")
		notifications.Use(authMw)
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminOnly())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/settings", adminHandler.ListSettings)
			admin.PUT("/settings", adminHandler.SetSetting)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)
			admin.POST("/products/:id/image", adminHandler.UploadProductImage)
			admin.POST("/wallets/release", adminHandler.ReleasePending)
			admin.POST("/transfers/complete", adminHandler.CompleteTransfer)
		}
	}

	r.GET("/ws/payments", ws.UpgradePaymentWS(&cfg.JWT, hub))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
