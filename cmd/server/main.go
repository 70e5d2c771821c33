package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/config"
	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/handlers"
	"github.com/AnandNexkites/citypattle/internal/middleware"
	"github.com/AnandNexkites/citypattle/internal/services"
	"github.com/AnandNexkites/citypattle/pkg/jwt"
	"github.com/AnandNexkites/citypattle/pkg/payments"
	"github.com/AnandNexkites/citypattle/pkg/push"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	configureLogger(logger, cfg)

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := database.NewUserRepository(db)
	venueRepo := database.NewVenueRepository(db)
	slotRepo := database.NewSlotRepository(db)
	deviceTokenRepo := database.NewDeviceTokenRepository(db)
	bookingRepo := database.NewBookingRepository(db.DB)

	// The gateway client is built once and injected everywhere.
	gateway := payments.NewRazorpayClient(
		cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.BaseURL, cfg.Razorpay.Currency, logger)

	var channel push.Channel
	if cfg.FCM.ServerKey != "" {
		channel = push.NewFCMChannel(cfg.FCM.ServerKey, cfg.FCM.Endpoint, logger)
	} else {
		logger.Warn("FCM server key not set, using log channel for notifications")
		channel = push.NewLogChannel(logger)
	}

	jwtService := jwt.NewService(
		cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	// Services
	notificationService := services.NewNotificationService(deviceTokenRepo, channel, logger)
	slotService := services.NewSlotService(venueRepo, slotRepo, cfg.Booking.SlotDuration, logger)
	bookingService := services.NewBookingService(userRepo, venueRepo, bookingRepo, gateway, notificationService, logger)
	queryService := services.NewBookingQueryService(bookingRepo, logger)
	venueService := services.NewVenueService(venueRepo, logger)
	authService := services.NewAuthService(userRepo, jwtService, logger)

	expiryService := services.NewExpiryService(
		bookingRepo, notificationService, cfg.Booking.PendingTTL, cfg.Booking.SweepInterval, logger)
	expiryService.Start()
	defer expiryService.Stop()

	cronService := services.NewCronService(bookingRepo, logger)
	if err := cronService.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start cron service")
	}
	defer cronService.Stop()

	// Handlers
	slotHandler := handlers.NewSlotHandler(slotService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, queryService, logger)
	venueHandler := handlers.NewVenueHandler(venueService, logger)
	authHandler := handlers.NewAuthHandler(authService, userRepo, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		user := v1.Group("/user", middleware.RequireAuth(jwtService))
		{
			user.GET("/profile", authHandler.Profile)
		}

		v1.GET("/slots", slotHandler.GenerateSlots)

		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.POST("/confirm", bookingHandler.ConfirmPayment)
			bookings.GET("/active", bookingHandler.ActiveBookings)
			bookings.GET("/history", bookingHandler.BookingHistory)
		}

		venues := v1.Group("/venues")
		{
			venues.GET("", venueHandler.ListVenues)
			venues.GET("/saved", venueHandler.SavedVenues)
			venues.GET("/:id", venueHandler.GetVenue)
			venues.POST("/save", venueHandler.SaveVenue)
			venues.DELETE("/save", venueHandler.UnsaveVenue)
		}

		v1.POST("/devices", notificationHandler.RegisterDevice)
		v1.POST("/notifications/test", notificationHandler.TestNotification)
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Info("Server exited")
}

func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}).Info("Request handled")
	}
}

func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().UTC()})
	}
}
