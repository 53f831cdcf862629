package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/stockinsights/sp500-collector/internal/api"
	"github.com/stockinsights/sp500-collector/internal/cache"
	"github.com/stockinsights/sp500-collector/internal/collector"
	"github.com/stockinsights/sp500-collector/internal/config"
	"github.com/stockinsights/sp500-collector/internal/database"
	"github.com/stockinsights/sp500-collector/internal/finnhub"
	"github.com/stockinsights/sp500-collector/internal/kafka"
	"github.com/stockinsights/sp500-collector/internal/scheduler"
)

var (
	symbol        string
	maxCompanies  int
	force         bool
	targetTime    string
	runOnce       bool
	migrationsDir string

	// Separate per command so each keeps its own default.
	collectBatchSize int
	collectDelay     float64
	dailyBatchSize   int
	dailyDelay       float64
)

var rootCmd = &cobra.Command{
	Use:   "collector",
	Short: "Daily metrics collection for S&P 500 constituents",
	Long: `Collects daily market metrics (prices, valuation ratios, moving averages)
for S&P 500 companies from the Finnhub API under a per-minute call quota and
persists one record per company per day.`,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		deps, err := setup(ctx)
		if err != nil {
			return err
		}
		defer deps.close()

		result, err := deps.orchestrator.Run(ctx, collector.Options{
			Symbol:       symbol,
			BatchSize:    collectBatchSize,
			Delay:        time.Duration(collectDelay * float64(time.Second)),
			MaxCompanies: maxCompanies,
			Force:        force,
		})
		if err != nil {
			return err
		}
		if result.Processed > 0 && result.Successful == 0 {
			return fmt.Errorf("no companies were updated successfully")
		}
		return nil
	},
}

var runDailyCmd = &cobra.Command{
	Use:   "run-daily",
	Short: "Run the polling scheduler that collects once per trading day",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		deps, err := setup(ctx)
		if err != nil {
			return err
		}
		defer deps.close()

		collect := func(ctx context.Context) error {
			_, err := deps.orchestrator.Run(ctx, collector.Options{
				BatchSize: dailyBatchSize,
				Delay:     time.Duration(dailyDelay * float64(time.Second)),
			})
			return err
		}

		sched, err := scheduler.New(targetTime, collect)
		if err != nil {
			return err
		}
		if runOnce {
			return sched.RunOnce(ctx)
		}
		return sched.Run(ctx)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only metrics and watchlist API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		cfg := config.Load()
		db, err := database.New(cfg.Database.ConnectionString())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(migrationsDir); err != nil {
			return err
		}

		router := api.SetupRoutes(api.NewHandler(db))
		server := &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()

		log.Printf("[INFO] serving API on %s", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

// deps bundles everything a collection run needs
type deps struct {
	db           *database.DB
	profiles     *cache.ProfileCache
	producer     *kafka.Producer
	orchestrator *collector.Orchestrator
}

func (d *deps) close() {
	if d.producer != nil {
		d.producer.Close()
	}
	d.profiles.Close()
	d.db.Close()
}

// setup wires the collection pipeline from configuration. A missing or
// placeholder API key fails here, before anything runs.
func setup(ctx context.Context) (*deps, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, err
	}

	var profiles *cache.ProfileCache
	if cfg.Redis.Addr != "" {
		profiles, err = cache.New(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Printf("[WARN] profile cache disabled: %v", err)
			profiles = nil
		}
	}

	client := finnhub.New(cfg.Finnhub.BaseURL, cfg.Finnhub.APIKey)
	fetcher := collector.NewFetcher(client, profiles)

	var producer *kafka.Producer
	var events collector.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		events = producer
	}

	orch := collector.NewOrchestrator(db, fetcher, collector.DefaultLimiter(), events)

	return &deps{
		db:           db,
		profiles:     profiles,
		producer:     producer,
		orchestrator: orch,
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func init() {
	collectCmd.Flags().StringVar(&symbol, "symbol", "", "update a specific company symbol only")
	collectCmd.Flags().IntVar(&collectBatchSize, "batch-size", 60, "number of companies to process per batch")
	collectCmd.Flags().Float64Var(&collectDelay, "delay", 1.0, "delay between API calls in seconds")
	collectCmd.Flags().IntVar(&maxCompanies, "max-companies", 0, "maximum number of companies to process in this run")
	collectCmd.Flags().BoolVar(&force, "force", false, "force update even if data already exists for today")

	runDailyCmd.Flags().StringVar(&targetTime, "target-time", "16:30", "target time to run collection (HH:MM)")
	runDailyCmd.Flags().BoolVar(&runOnce, "run-once", false, "run collection once and exit")
	runDailyCmd.Flags().IntVar(&dailyBatchSize, "batch-size", 10, "number of companies to process per batch")
	runDailyCmd.Flags().Float64Var(&dailyDelay, "delay", 1.0, "delay between API calls in seconds")

	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations", "db/migrations", "path to database migrations")

	rootCmd.AddCommand(collectCmd, runDailyCmd, serveCmd)
}

func main() {
	// Missing .env is fine; environment variables may be set directly.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}
