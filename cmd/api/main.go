// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/hostel-allotment/internal/auth"
	"github.com/yourusername/hostel-allotment/internal/config"
	"github.com/yourusername/hostel-allotment/internal/store"
	"github.com/yourusername/hostel-allotment/internal/throttle"
)

const requestIDHeader = "X-Request-ID"

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	limiter, err := setupLimiter(cfg)
	if err != nil {
		log.Fatalf("Failed to set up login throttle: %v", err)
	}
	if closer, ok := limiter.(io.Closer); ok {
		defer closer.Close()
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.Use(requestID())

	// セッションを安全に構成できなければ起動しない
	sessionMiddleware, err := auth.SessionMiddleware(cfg)
	if err != nil {
		log.Fatalf("Could not initiate a safe session: %v", err)
	}
	router.Use(sessionMiddleware)

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-CSRF-Token",
		requestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token", requestIDHeader}
	router.Use(cors.New(corsConfig))

	authManager := auth.NewManager(
		auth.NewService(db, auth.OptionsFromConfig(cfg)),
		limiter,
		cfg.PagePrefix,
		log.Default(),
	)
	setupRoutes(router, cfg, authManager)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "hostel-allotment-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, authManager *auth.Manager) {
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		api.GET("/allotment/process", authManager.ProcessStatus)

		authRoutes := api.Group("/auth")
		{
			// ログイン時はセッション未生成なので CSRF 検証は不要
			authRoutes.POST("/login", authManager.Login(false))
			authRoutes.POST("/logout",
				authManager.RequireLogin(false),
				authManager.VerifyCSRF(),
				authManager.Logout(false),
			)
			authRoutes.GET("/session", authManager.RequireLogin(false), authManager.SessionInfo)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", authManager.Login(true))

			protected := admin.Group("")
			protected.Use(authManager.RequireLogin(true), authManager.VerifyCSRF())
			{
				protected.POST("/logout", authManager.Logout(true))
				protected.GET("/session", authManager.SessionInfo)
				protected.PUT("/allotment/process", authManager.UpdateProcessStatus)
				protected.PUT("/groups/:id/status", authManager.SetGroupStatus)
			}
		}
	}

	pages := router.Group(cfg.PagePrefix)
	pages.Use(authManager.RequireLogin(false), authManager.PageGate())
	{
		pages.GET("/:page", authManager.Page)
	}
}

func setupLimiter(cfg *config.Config) (throttle.Limiter, error) {
	policy := throttle.Policy{
		MaxAttempts: cfg.ThrottleMax,
		Window:      cfg.ThrottleWindow,
		Lockout:     cfg.ThrottleLockout,
	}
	if cfg.ThrottleRedis == "" {
		return throttle.NewMemoryLimiter(policy), nil
	}
	return throttle.NewRedisLimiterFromURL(cfg.ThrottleRedis, policy)
}

// requestID はリクエストごとに X-Request-ID を付与します。
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
