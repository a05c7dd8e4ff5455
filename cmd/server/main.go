package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"promptarena/config"
	"promptarena/db"
	"promptarena/internal/battleindex"
	"promptarena/internal/metrics"
	"promptarena/middlewares"
	"promptarena/routes"
	"promptarena/services"
	"promptarena/utils"
	"promptarena/websocket"

	"math/rand"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./config/config.yml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}

	initLogging(cfg.Server.Env)

	utils.SetJWTConfig(cfg.JWT.Secret, cfg.JWT.ExpiryMinutes)
	utils.SetDisposableDomains(cfg.Auth.DisposableDomains)
	services.InitGeneration(cfg.Generation.ImageBaseURL, cfg.Generation.AudioBaseURL)

	if err := db.ConnectMongoDB(cfg.Database.URI); err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("failed to create indexes")
	}
	cancel()

	battleindex.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	if err := services.InitGemini(cfg.Gemini.ApiKey); err != nil {
		zlog.Warn().Err(err).Msg("gemini client unavailable, generation endpoints will fail")
	}

	router := services.NewRouter(
		services.DefaultProfiles(),
		services.KeywordScorer{},
		rand.New(rand.NewSource(time.Now().UnixNano())),
	)
	websocket.Init(router)

	engine := setupRouter(cfg)
	port := strconv.Itoa(cfg.Server.Port)
	zlog.Info().Str("port", port).Msg("server starting")

	if err := engine.Run(":" + port); err != nil {
		zlog.Fatal().Err(err).Msg("failed to start server")
	}
}

func initLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "dev" {
		cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		zlog.Logger = zerolog.New(cw).With().Timestamp().Logger()
		return
	}
	zlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func setupRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(metrics.GinMiddleware())

	engine.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	public := api.Group("/")
	public.Use(middlewares.RateLimit(5, 10))
	routes.SetupAuthRoutes(public)

	auth := api.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		routes.SetupAccountRoutes(auth)
		routes.SetupBattleRoutes(auth)

		generation := auth.Group("/")
		generation.Use(middlewares.RateLimit(2, 5))
		routes.SetupGenerationRoutes(generation)

		auth.GET("/chat/stream", websocket.StreamHandler)
	}

	return engine
}
