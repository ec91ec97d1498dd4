package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gamemarket-backend/internal/catalog"
	"gamemarket-backend/internal/config"
	"gamemarket-backend/internal/handlers"
	"gamemarket-backend/internal/middleware"
	"gamemarket-backend/internal/models"
	"gamemarket-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisService.Close()

	gameCatalog, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		zap.L().Fatal("Failed to load game catalog", zap.Error(err))
	}

	jwtService := services.NewJWTService(cfg)
	chatService := services.NewChatService(redisService)
	orderService := services.NewOrderService(redisService, chatService, gameCatalog)
	ticketService := services.NewTicketService(redisService, chatService)
	paymentService := services.NewPaymentService(cfg, redisService)

	authHandler := handlers.NewAuthHandler(redisService, jwtService)
	userHandler := handlers.NewUserHandler(redisService)
	accountHandler := handlers.NewAccountHandler(redisService, gameCatalog)
	orderHandler := handlers.NewOrderHandler(orderService, redisService)
	chatHandler := handlers.NewChatHandler(chatService)
	ticketHandler := handlers.NewTicketHandler(ticketService, redisService)
	walletHandler := handlers.NewWalletHandler(redisService, paymentService)
	wsHandler := handlers.NewWebSocketHandler(chatService, redisService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/webhooks/stripe", walletHandler.StripeWebhook)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService, redisService))
	protected.Use(middleware.RateLimitMiddleware(redisService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.PATCH("/me/notifications", userHandler.UpdateNotifications)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		accounts := protected.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.List)
			accounts.GET("/mine", accountHandler.MyListings)
			accounts.GET("/:id", accountHandler.Get)
			accounts.PATCH("/:id", accountHandler.Update)
		}

		orders := protected.Group("/orders")
		{
			orders.POST("", orderHandler.Create)
			orders.GET("/mine", orderHandler.ListMine)
			orders.GET("/seller/:id", orderHandler.ListBySeller)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/review", orderHandler.Review)
		}

		chats := protected.Group("/chats")
		{
			chats.POST("", chatHandler.Create)
			chats.GET("", chatHandler.ListMine)
			chats.GET("/:id", chatHandler.Get)
			chats.POST("/:id/messages", chatHandler.PostMessage)
			chats.PATCH("/:id/read", chatHandler.MarkRead)
		}

		tickets := protected.Group("/tickets")
		{
			tickets.POST("", ticketHandler.Create)
			tickets.GET("/mine", ticketHandler.ListMine)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.POST("/credit/:id", walletHandler.Credit)
			wallet.POST("/debit/:id", walletHandler.Debit)
			wallet.GET("/history/:id", walletHandler.History)
			wallet.POST("/deposit", walletHandler.Deposit)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", userHandler.ListUsers)
			admin.PATCH("/users/:id/status", userHandler.SetUserStatus)
			admin.POST("/users/:id/promote", userHandler.PromoteSeller)

			admin.GET("/orders", orderHandler.ListAll)
			admin.PATCH("/orders/:id/status", orderHandler.UpdateStatus)

			admin.GET("/tickets", ticketHandler.ListAll)
			admin.GET("/tickets/unassigned", ticketHandler.ListUnassigned)
			admin.GET("/tickets/assigned", ticketHandler.ListAssigned)
			admin.POST("/tickets/:id/join", ticketHandler.Join)
			admin.PATCH("/tickets/:id/status", ticketHandler.UpdateStatus)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	zap.L().Info("Server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		zap.L().Fatal("Failed to start server", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
