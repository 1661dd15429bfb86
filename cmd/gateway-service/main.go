package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/database"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/gateway"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/middleware"
	cassandrarepo "github.com/ywet290-beep/solid-octo-parakeet/internal/repository/cassandra"
	postgresrepo "github.com/ywet290-beep/solid-octo-parakeet/internal/repository/postgres"
	redisrepo "github.com/ywet290-beep/solid-octo-parakeet/internal/repository/redis"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/store"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/constants"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/env"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/jwt"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/logger"
)

func main() {
	// 1. Setup structured logging
	logger.InitDefault()
	defer logger.Sync()

	// 2. Setup JWT Manager
	jwtSecret := env.GetStringFromFile("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters")
	}

	jwtManager := jwt.NewManager(jwtSecret, env.GetDuration("JWT_TOKEN_DURATION", 15*time.Minute))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Connect to Redis with degraded mode support
	redisConfig := &database.RedisConfig{
		Host:     env.GetString("REDIS_HOST", "localhost"),
		Port:     env.GetInt("REDIS_PORT", 6379),
		Password: env.GetStringFromFile("REDIS_PASSWORD", ""),
		DB:       0,
		PoolSize: env.GetInt("REDIS_POOL_SIZE", 10),
		Timeout:  5 * time.Second,
	}

	redisDB, err := database.NewRedisDB(redisConfig)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisDB.Close()
	redisDB.StartHealthCheck(ctx, 10*time.Second)

	log.Println("✅ Connected to Redis")

	// 4. Connect to the external store backends, unless running as a
	// pure relay
	var gatewayStore *store.Store
	var presence gateway.PresenceMarker

	if env.GetBool("PERSISTENCE_ENABLED", true) {
		cassandraConfig := &database.CassandraConfig{
			Hosts:    []string{env.GetString("CASSANDRA_HOST", "localhost")},
			Keyspace: env.GetString("CASSANDRA_KEYSPACE", "chatrelay_ks"),
			Username: env.GetStringFromFile("CASSANDRA_USER", ""),
			Password: env.GetStringFromFile("CASSANDRA_PASSWORD", ""),
			Timeout:  10 * time.Second,
		}
		cassandraDB, err := database.NewCassandraDB(cassandraConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Cassandra: %v", err)
		}
		defer cassandraDB.Close()

		log.Println("✅ Connected to Cassandra")

		postgresConfig := &database.PostgresConfig{
			Host:     env.GetString("POSTGRES_HOST", "localhost"),
			Port:     env.GetInt("POSTGRES_PORT", 5432),
			User:     env.GetString("POSTGRES_USER", "postgres"),
			Password: env.GetStringFromFile("POSTGRES_PASSWORD", ""),
			Database: env.GetString("POSTGRES_DATABASE", "chatrelay_db"),
			SSLMode:  env.GetString("POSTGRES_SSLMODE", "disable"),
			MaxConns: int32(env.GetInt("POSTGRES_MAX_CONNS", 10)),
		}
		postgresDB, err := database.NewPostgresDB(ctx, postgresConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer postgresDB.Close()

		log.Println("✅ Connected to Postgres")

		gatewayStore = &store.Store{
			Messages: cassandrarepo.NewMessageRepository(cassandraDB),
			Rooms:    postgresrepo.NewRoomRepository(postgresDB.Pool),
			Users:    postgresrepo.NewUserRepository(postgresDB.Pool),
		}
		presence = redisrepo.NewPresenceRepository(redisDB)
	} else {
		log.Println("⚠️  Persistence disabled, running as pure relay")
	}

	// 5. Initialize the gateway and its background sweeper
	gw := gateway.New(gateway.Config{
		Store:               gatewayStore,
		Presence:            presence,
		TypingTTL:           env.GetDuration("TYPING_TTL", constants.TypingTTL),
		TypingSweepInterval: env.GetDuration("TYPING_SWEEP_INTERVAL", constants.TypingSweepInterval),
		StoreWriteTimeout:   env.GetDuration("STORE_WRITE_TIMEOUT", constants.StoreWriteTimeout),
	})
	go gw.Run(ctx)

	// 6. Authentication for the WebSocket upgrade
	verifier := gateway.NewJWTVerifier(jwtManager, gateway.NewRedisRevocationChecker(redisDB))

	// 7. Setup Gin Router
	if env.GetString("ENV", "development") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.SetTrustedProxies(nil)

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "gateway-service",
			"time":    time.Now().UTC(),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", gateway.ServeWS(gw, verifier))
	}

	// 8. Start server
	port := env.GetString("PORT", "8082")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Gateway Service starting on port %s\n", port)
		log.Println("📡 WebSocket endpoint: /v1/ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 9. Graceful shutdown
	<-ctx.Done()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
