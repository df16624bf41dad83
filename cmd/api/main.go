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

	"github.com/redis/go-redis/v9"

	"github.com/testvault-io/testvault-backend/config"
	"github.com/testvault-io/testvault-backend/internal/bootstrap"
	"github.com/testvault-io/testvault-backend/internal/cache"
	"github.com/testvault-io/testvault-backend/internal/db"
	projrepo "github.com/testvault-io/testvault-backend/internal/projects/repository"
	projservice "github.com/testvault-io/testvault-backend/internal/projects/service"
	tccron "github.com/testvault-io/testvault-backend/internal/testcases/cron"
	tcrepo "github.com/testvault-io/testvault-backend/internal/testcases/repository"
	tcservice "github.com/testvault-io/testvault-backend/internal/testcases/service"
	"github.com/testvault-io/testvault-backend/internal/users"
)

const serviceName = "test-management"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	database, err := db.Open(ctx, db.Options{
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	userRepo := users.NewRepo(database.Pool)
	projectRepo := projrepo.NewProjectRepository(database.SQL)
	testCaseRepo := tcrepo.NewTestCaseRepository(database.SQL)

	var statsCache tcservice.StatsCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, stats cache disabled: %v", err)
		} else {
			statsCache = cache.NewStatsCache(client, cfg.Redis.StatsCacheTTL)
		}
	}

	projectService := projservice.NewProjectService(projectRepo)
	testCaseService := tcservice.NewTestCaseService(testCaseRepo, projectRepo, userRepo, statsCache)

	if statsCache != nil && cfg.Redis.WarmCronSpec != "" {
		warmer := tccron.NewStatsWarmer(projectRepo, testCaseService, statsCache, cfg.Redis.WarmCronSpec)
		warmer.Start()
		defer warmer.Stop()
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		JWTSecret:   cfg.Auth.JWTSecret,
		CORSOrigins: cfg.Server.CORSOrigins,
		DB:          database.Pool,
		Users:       userRepo,
		Projects:    projectService,
		TestCases:   testCaseService,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("%s listening on :%s", serviceName, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
