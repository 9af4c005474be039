// Package app wires the tracker together: storage, upstream clients,
// the poller, alert delivery and the HTTP API.
package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insider-tracker/alerts"
	"insider-tracker/api"
	"insider-tracker/cache"
	"insider-tracker/config"
	"insider-tracker/database"
	"insider-tracker/gamma"
	"insider-tracker/hashdive"
	"insider-tracker/insider"
	"insider-tracker/llm"
	"insider-tracker/notifier"
	"insider-tracker/poller"
	"insider-tracker/realtime"
)

// App represents the main application
type App struct {
	config *config.Config
	db     *database.Database
	redis  *cache.RedisClient
	repo   *database.Repository
	broker *realtime.Broker
	poller *poller.Poller
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Start starts the application
func (a *App) Start() error {
	// 1. Database connection and schema
	fmt.Println("🗄️  Connecting to database...")
	db, err := database.Connect(database.Config{
		Host:     a.config.DatabaseHost,
		Port:     a.config.DatabasePort,
		User:     a.config.DatabaseUser,
		Password: a.config.DatabasePassword,
		DBName:   a.config.DatabaseName,
	})
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	a.repo = database.NewRepository(a.db)
	if err := a.repo.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// 2. Redis connection (classifier verdict cache)
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)
	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Caching disabled.")
	} else {
		a.redis = redisClient
	}

	// 3. Upstream trade source
	fetcher := hashdive.NewClient(a.config.Hashdive.BaseURL, a.config.Hashdive.APIKey)

	// 4. Alert delivery
	var dispatcher *notifier.Dispatcher
	var probe api.Notifier
	if a.config.Email.Host != "" && len(a.config.Email.To) > 0 {
		emailNotifier := notifier.NewEmailNotifier(
			a.config.Email.Host,
			a.config.Email.Port,
			a.config.Email.Username,
			a.config.Email.Password,
			a.config.Email.From,
			a.config.Email.To,
			a.config.Email.UseTLS,
		)
		dispatcher = notifier.NewDispatcher(emailNotifier, a.repo.AlertLog, a.config.Alerts.BatchAlerts)
		probe = emailNotifier
		log.Printf("📧 Email alerts enabled (to: %s)", emailNotifier.Recipients())
	} else {
		log.Println("ℹ️  Email alerts DISABLED (no SMTP host or recipients configured)")
	}

	policy := alerts.NewPolicy(
		alerts.MinNotionalRule{MinUSD: a.config.Alerts.MinTradeSizeUSD},
	)

	// 5. Realtime broker
	a.broker = realtime.NewBroker()
	go a.broker.Run()
	if dispatcher != nil {
		dispatcher.SetEventPublisher(a.broker)
	}

	// 6. Poller
	a.poller = poller.New(a.repo.Wallets, a.repo.Trades, fetcher, policy, dispatcher, poller.Config{
		Interval:    time.Duration(a.config.Poller.IntervalSeconds) * time.Second,
		WalletDelay: time.Duration(a.config.Poller.WalletDelayMS) * time.Millisecond,
		Lookback:    time.Duration(a.config.Poller.LookbackHours) * time.Hour,
		FetchLimit:  a.config.Poller.FetchLimit,
	})
	a.poller.SetEventPublisher(a.broker)
	a.poller.Start()

	// 7. Insider market classifier (LLM-assisted, optional)
	var llmClient insider.LLMClient
	if a.config.LLM.Enabled {
		llmClient = llm.NewClient(a.config.LLM.Endpoint, a.config.LLM.APIKey, a.config.LLM.Model)
		log.Printf("✅ LLM insider classification ENABLED (Model: %s)", a.config.LLM.Model)
	} else {
		log.Println("ℹ️  LLM insider classification DISABLED (keyword screening only)")
	}
	classifier := insider.NewClassifier(llmClient, cache.NewClassifierCache(a.redis))
	gammaClient := gamma.NewClient("")

	// 8. HTTP API
	apiServer := api.NewServer(a.repo, a.poller, probe)
	apiServer.SetInsiderScreen(gammaClient, classifier)
	apiServer.SetStream(a.broker)

	go func() {
		if err := apiServer.Start(a.config.APIPort); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	// 9. Wait for interrupt and perform graceful shutdown
	return a.gracefulShutdown()
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown() error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	shutdownComplete := make(chan struct{})
	go func() {
		fmt.Println("🔄 Stopping trade poller...")
		a.poller.Stop()

		if a.redis != nil {
			fmt.Println("🧠 Closing Redis connection...")
			a.redis.Close()
		}

		fmt.Println("🗄️  Closing database connection...")
		if err := a.db.Close(); err != nil {
			log.Printf("⚠️  Error closing database: %v", err)
		}

		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown complete")
	case <-time.After(10 * time.Second):
		fmt.Println("⚠️  Shutdown timeout reached, forcing exit")
	}
	return nil
}
