package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/janus/internal/api/rest"
	"github.com/fortuna/janus/internal/api/websocket"
	"github.com/fortuna/janus/internal/backfill"
	"github.com/fortuna/janus/internal/cache"
	"github.com/fortuna/janus/internal/config"
	"github.com/fortuna/janus/internal/publisher"
	"github.com/fortuna/janus/internal/scheduler"
	"github.com/fortuna/janus/internal/service"
	"github.com/fortuna/janus/internal/store"
	"github.com/fortuna/janus/internal/store/repository"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API, websocket feed, backfill workers and scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cfg)
	},
}

func serve(c config.Config) error {
	log.Printf("Starting %s v%s - NHL play-by-play service", serviceName, serviceVersion)

	p, err := buildPipeline(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := service.GameServiceOptions{CacheTTL: c.CacheTTL}

	if c.RedisURL != "" {
		redisCache, err := connectRedis(c.RedisURL)
		if err != nil {
			return err
		}
		defer redisCache.Close()

		opts.Cache = redisCache
		opts.Publisher = publisher.NewRedisStreamPublisher(redisCache.Client())
		log.Println("✓ Connected to Redis")
	} else {
		log.Println("⚠️  JANUS_REDIS_URL not set, running without cache and streams")
	}

	wsServer := websocket.NewServer(nil)
	defer wsServer.Close()
	opts.Broadcaster = wsServer

	results := service.NewPostgresResults(db)
	games := service.NewGameService(p, results, opts)

	runner := backfill.NewRunner(p, newLoader(c), games, c.Workers, nil)
	backfillService := backfill.NewService(db, runner, nil)
	backfillService.Start()
	log.Println("✓ Backfill service started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewOrchestrator(backfillService, repository.NewGameRepository(db).LatestGameID, &scheduler.Config{
		InboxDir:           c.InboxDir,
		InboxPollInterval:  c.InboxPollInterval,
		InboxSettle:        2 * time.Second,
		DailyIngestionHour: c.DailyIngestionHour,
		CurrentSeason:      c.CurrentSeason,
		DailyBatch:         16,
		EnableInbox:        c.InboxDir != "",
		EnableDaily:        c.EnableDaily,
		MaxRetries:         3,
		RetryDelay:         5 * time.Second,
	}, nil)
	go sched.Start(ctx)
	log.Println("✓ Scheduler started")

	handler := rest.NewHandler(games, service.NewStatsService(results), results, db.HealthCheck)
	router := rest.NewRouter(handler, rest.NewBackfillHandler(backfillService), wsServer)
	restServer := rest.NewServer(c.RESTPort, router)

	go func() {
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s", c.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s/ws/games", c.RESTPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := backfillService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Backfill shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
	return nil
}

func openDatabase(c config.Config) (*store.Database, error) {
	db, err := store.NewDatabase(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Println("✓ Connected to database")

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Println("✓ Database migrations applied")
	return db, nil
}

// connectRedis retries while a freshly started Redis comes up
func connectRedis(url string) (*cache.RedisCache, error) {
	const maxRetries = 30
	retryDelay := 2 * time.Second

	var err error
	for i := 0; i < maxRetries; i++ {
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(url)
		if err == nil {
			return rc, nil
		}
		if i < maxRetries-1 {
			log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("connect redis after %d attempts: %w", maxRetries, err)
}
