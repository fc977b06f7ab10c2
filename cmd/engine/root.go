package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workpulse/prodscore-engine-go/internal/config"
	appHTTP "github.com/workpulse/prodscore-engine-go/internal/handler/http"
	"github.com/workpulse/prodscore-engine-go/internal/domain/role"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/cron"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/database"
	"github.com/workpulse/prodscore-engine-go/internal/repository/postgresql"
	"github.com/workpulse/prodscore-engine-go/internal/service/ingest"
	"github.com/workpulse/prodscore-engine-go/internal/service/scoring"
)

var rootCmd = &cobra.Command{
	Use:   "prodscore-engine",
	Short: "Productivity scoring engine",
	Long: "Converts raw clock intervals and production-activity events into " +
		"daily per-employee productivity scores.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(reopenCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})))
}

// engine bundles everything a command needs after wiring.
type engine struct {
	cfg     *config.Config
	db      *database.DB
	service *scoring.Service
	jobs    *cron.ScoringJobs
	router  http.Handler
}

func buildEngine() (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(cfg.App.LogLevel)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	scoreRepo := postgresql.NewDailyScoreRepository(db)
	idleRepo := postgresql.NewIdlePeriodRepository(db)
	eventRepo := postgresql.NewActivityEventRepository(db)
	clockRepo := postgresql.NewClockIntervalRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	roleRepo := postgresql.NewRoleConfigRepository(db)
	lockRepo := postgresql.NewLockRepository(db)
	runRepo := postgresql.NewRunStatusRepository(db)

	roleProvider := role.NewCachingProvider(roleRepo, cfg.Engine.RoleCacheTTL)

	scoringService := scoring.NewService(
		postgresql.NewTxManager(db),
		scoreRepo,
		idleRepo,
		eventRepo,
		clockRepo,
		employeeRepo,
		roleProvider,
		cfg.Engine.IdleThresholdMinutes,
	)

	jobs := cron.NewScoringJobs(
		scoringService,
		scoreRepo,
		employeeRepo,
		lockRepo,
		runRepo,
		cfg.Engine.BatchSize,
		cfg.Engine.LockTTL,
	)

	statusHandler := appHTTP.NewStatusHandler(runRepo, scoreRepo, idleRepo)
	router := appHTTP.NewRouter(statusHandler, cfg.App.Env)

	return &engine{
		cfg:     cfg,
		db:      db,
		service: scoringService,
		jobs:    jobs,
		router:  router,
	}, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the engine: background jobs plus the status listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.db.Close()

		scheduler := cron.NewScheduler()
		eng.jobs.RegisterJobs(scheduler, eng.cfg.Engine.RecomputeInterval, eng.cfg.Engine.FinalizeInterval)
		scheduler.Start()
		defer scheduler.Stop()

		addr := fmt.Sprintf(":%d", eng.cfg.App.StatusPort)
		server := &http.Server{Addr: addr, Handler: eng.router}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("Status listener running", "addr", addr)
			errCh <- server.ListenAndServe()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-stop:
			slog.Info("Shutting down", "signal", sig.String())
			_ = server.Close()
			return nil
		case err := <-errCh:
			return fmt.Errorf("status listener failed: %w", err)
		}
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute one employee's score for one local date",
	RunE: func(cmd *cobra.Command, args []string) error {
		employeeID, _ := cmd.Flags().GetString("employee")
		date, _ := cmd.Flags().GetString("date")

		eng, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.db.Close()

		result, err := eng.service.RecomputeAndPersist(cmd.Context(), employeeID, date)
		if err != nil {
			return err
		}

		slog.Info("Score recomputed",
			"employee_id", result.EmployeeID,
			"score_date", result.ScoreDate,
			"clocked_minutes", result.ClockedMinutes,
			"active_minutes", result.ActiveMinutes,
			"idle_minutes", result.IdleMinutes,
			"items_processed", result.ItemsProcessed,
			"points_earned", result.PointsEarned)
		return nil
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen",
	Short: "Reopen a finalized day for backfill corrections (audited)",
	RunE: func(cmd *cobra.Command, args []string) error {
		employeeID, _ := cmd.Flags().GetString("employee")
		date, _ := cmd.Flags().GetString("date")
		actor, _ := cmd.Flags().GetString("actor")

		eng, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.db.Close()

		return eng.service.Reopen(cmd.Context(), employeeID, date, actor)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import raw events from a JSON file (mirrors the sync adapters)",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")

		eng, err := buildEngine()
		if err != nil {
			return err
		}
		defer eng.db.Close()

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()

		importSvc := ingest.NewService(
			postgresql.NewActivityEventWriter(eng.db),
			postgresql.NewClockIntervalWriter(eng.db),
		)

		summary, err := importSvc.Import(cmd.Context(), f)
		if err != nil {
			return err
		}

		slog.Info("Raw events imported",
			"events", summary.EventsUpserted,
			"intervals", summary.IntervalsUpserted)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for engine-owned tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		version, _ := cmd.Flags().GetInt("version")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := database.Migrate(cfg.DatabaseURL(), version); err != nil {
			return err
		}
		slog.Info("Migrations applied")
		return nil
	},
}

func init() {
	recomputeCmd.Flags().String("employee", "", "employee id (required)")
	recomputeCmd.Flags().String("date", "", "local date YYYY-MM-DD (required)")
	_ = recomputeCmd.MarkFlagRequired("employee")
	_ = recomputeCmd.MarkFlagRequired("date")

	reopenCmd.Flags().String("employee", "", "employee id (required)")
	reopenCmd.Flags().String("date", "", "local date YYYY-MM-DD (required)")
	reopenCmd.Flags().String("actor", "", "who is reopening, recorded in the audit note (required)")
	_ = reopenCmd.MarkFlagRequired("employee")
	_ = reopenCmd.MarkFlagRequired("date")
	_ = reopenCmd.MarkFlagRequired("actor")

	importCmd.Flags().String("file", "", "path to a JSON payload (required)")
	_ = importCmd.MarkFlagRequired("file")

	migrateCmd.Flags().Int("version", -1, "target schema version (-1 = latest, 0 = rollback all)")
}
