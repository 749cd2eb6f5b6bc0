package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kamlesh9685/Attendance-Managment/internal/attendance"
	"github.com/kamlesh9685/Attendance-Managment/internal/auth"
	"github.com/kamlesh9685/Attendance-Managment/internal/cloudinary"
	"github.com/kamlesh9685/Attendance-Managment/internal/config"
	"github.com/kamlesh9685/Attendance-Managment/internal/handler"
	"github.com/kamlesh9685/Attendance-Managment/internal/httpmiddleware"
	"github.com/kamlesh9685/Attendance-Managment/internal/metrics"
	"github.com/kamlesh9685/Attendance-Managment/internal/queue"
	"github.com/kamlesh9685/Attendance-Managment/internal/store"
	"github.com/kamlesh9685/Attendance-Managment/internal/upload"
	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWTSigningKey == config.DevSigningKey {
			log.Fatal("JWT_SECRET must be set in production")
		}
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var events queue.Queue
	if cfg.QueueBackend == "memory" {
		events = queue.NewInMemory(64)
	} else {
		events = queue.NewRedisQueue(redisClient.Client, "attendance:events")
	}

	uploads, err := upload.New(cfg.UploadDir)
	if err != nil {
		return err
	}

	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("cloudinary configured:", cfg.CloudinaryCloudName)
	}

	users := user.NewPostgresRepository(db.Client)
	authSvc := auth.NewService(users, cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)
	attSvc := attendance.NewService(attendance.NewPostgresRepository(db.Client))
	m := metrics.New(prometheus.DefaultRegisterer)

	if err := seedAdmin(ctx, cfg, authSvc); err != nil {
		return err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	h := handler.New(authSvc, users, attSvc, uploads, cdnClient, events, redisClient, m)
	h.Routes(r, auth.RequireAuth(authSvc))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// seedAdmin provisions the bootstrap admin from config. Skipped when the
// credentials are unset or the account already exists.
func seedAdmin(ctx context.Context, cfg config.App, authSvc *auth.Service) error {
	if cfg.AdminUserID == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := authSvc.Register(ctx, user.RoleAdmin, auth.RegisterInput{
		UserID:   cfg.AdminUserID,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	})
	if errors.Is(err, user.ErrDuplicateUser) {
		return nil
	}
	if err == nil {
		log.Printf("bootstrap admin %q created", cfg.AdminUserID)
	}
	return err
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
