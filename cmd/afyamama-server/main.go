package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/afyamama/afyamama/internal/config"
	"github.com/afyamama/afyamama/internal/domain/delivery"
	"github.com/afyamama/afyamama/internal/domain/immunization"
	"github.com/afyamama/afyamama/internal/domain/mothers"
	"github.com/afyamama/afyamama/internal/domain/pregnancy"
	"github.com/afyamama/afyamama/internal/domain/reminders"
	"github.com/afyamama/afyamama/internal/platform/audit"
	"github.com/afyamama/afyamama/internal/platform/auth"
	"github.com/afyamama/afyamama/internal/platform/clock"
	"github.com/afyamama/afyamama/internal/platform/db"
	"github.com/afyamama/afyamama/internal/platform/middleware"
	"github.com/afyamama/afyamama/internal/platform/sms"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "afyamama-server",
		Short: "AfyaMama maternal and child health API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(remindCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

// serviceClock runs on facility local time so that "today" matches the
// clinic day, not UTC.
func serviceClock() clock.Clock {
	loc, err := time.LoadLocation("Africa/Nairobi")
	if err != nil {
		loc = time.UTC
	}
	return clock.NewSystem(loc)
}

func newSender(cfg *config.Config, logger zerolog.Logger) sms.Sender {
	if cfg.SMSProvider == "mock" {
		return &sms.MockSender{}
	}
	return sms.NewConsoleSender(logger, cfg.SMSSenderID)
}

// parseDay parses a --date flag value, defaulting to today when empty.
func parseDay(value string, clk clock.Clock) (time.Time, error) {
	if value == "" {
		return clk.Today(), nil
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return day, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

// seedCmd loads the vaccine catalog and reminder templates. Both seeds are
// idempotent, so re-running after an upgrade only inserts what is new.
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the vaccine catalog and reminder templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			clk := serviceClock()
			auditor := audit.NewPGSink(pool, logger)

			immSvc := immunization.NewService(
				immunization.NewVaccineRepoPG(pool),
				immunization.NewScheduleRepoPG(pool),
				delivery.NewBabyRepoPG(pool),
				clk, auditor, logger,
			)
			vaccines, err := immSvc.SeedCatalog(ctx)
			if err != nil {
				return fmt.Errorf("seed vaccine catalog: %w", err)
			}
			fmt.Printf("Seeded %d vaccine type(s).\n", vaccines)

			remSvc := reminders.NewService(
				reminders.NewTemplateRepoPG(pool),
				reminders.NewSentRepoPG(pool),
				clk,
			)
			templates, err := remSvc.SeedTemplates(ctx)
			if err != nil {
				return fmt.Errorf("seed reminder templates: %w", err)
			}
			fmt.Printf("Seeded %d reminder template(s).\n", templates)
			return nil
		},
	}
}

// remindCmd is the daily reminder run, intended for cron. It scans the
// schedule for due reminders, records them, and optionally dispatches
// immediately instead of waiting for the send window.
func remindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Generate reminders for upcoming, due and missed events",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			sendNow, _ := cmd.Flags().GetBool("send-now")
			dateFlag, _ := cmd.Flags().GetString("date")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			clk := serviceClock()
			day, err := parseDay(dateFlag, clk)
			if err != nil {
				return err
			}

			auditor := audit.NewPGSink(pool, logger)
			sentRepo := reminders.NewSentRepoPG(pool)

			scheduler := reminders.NewScheduler(
				reminders.NewTemplateRepoPG(pool),
				sentRepo,
				reminders.NewCandidateRepoPG(pool),
				clk, auditor, logger, cfg.ReminderLeadDays,
			)

			stats, err := scheduler.Run(ctx, day, dryRun)
			if err != nil {
				return fmt.Errorf("reminder run failed: %w", err)
			}

			mode := "created"
			if dryRun {
				mode = "would create"
			}
			fmt.Printf("Reminder run for %s (%s %d reminder(s)):\n",
				day.Format("2006-01-02"), mode, stats.Total())
			for _, row := range []struct {
				kind  string
				count int
			}{
				{reminders.KindANCUpcoming, stats.ANCUpcoming},
				{reminders.KindANCToday, stats.ANCToday},
				{reminders.KindANCMissed, stats.ANCMissed},
				{reminders.KindVaccineUpcoming, stats.VaccineUpcoming},
				{reminders.KindVaccineToday, stats.VaccineToday},
				{reminders.KindVaccineMissed, stats.VaccineMissed},
				{reminders.KindDeliveryApproaching, stats.DeliveryApproaching},
				{reminders.KindOverduePregnancy, stats.OverduePregnancy},
				{reminders.KindDangerSigns, stats.DangerSigns},
			} {
				fmt.Printf("  %-22s %d\n", row.kind, row.count)
			}

			if sendNow && !dryRun {
				tracker := reminders.NewTracker(sentRepo, newSender(cfg, logger), clk, auditor, logger)
				sent, failed, err := tracker.DispatchPending(ctx)
				if err != nil {
					return fmt.Errorf("dispatch failed: %w", err)
				}
				fmt.Printf("Dispatched %d, failed %d.\n", sent, failed)
			}
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Report what would be created without writing")
	cmd.Flags().Bool("send-now", false, "Dispatch created reminders immediately")
	cmd.Flags().String("date", "", "Run as of this date (YYYY-MM-DD, default today)")
	return cmd
}

// sweepCmd flags visits and doses that have passed their grace period as
// missed, and retries failed SMS deliveries that are due for another attempt.
func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark overdue visits and doses as missed, retry failed sends",
		RunE: func(cmd *cobra.Command, args []string) error {
			dateFlag, _ := cmd.Flags().GetString("date")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			clk := serviceClock()
			day, err := parseDay(dateFlag, clk)
			if err != nil {
				return err
			}

			auditor := audit.NewPGSink(pool, logger)

			pregSvc := pregnancy.NewService(
				pregnancy.NewPregnancyRepoPG(pool),
				pregnancy.NewVisitRepoPG(pool),
				clk, auditor, logger,
			)
			missedVisits, err := pregSvc.SweepMissed(ctx, day)
			if err != nil {
				return fmt.Errorf("visit sweep failed: %w", err)
			}

			immSvc := immunization.NewService(
				immunization.NewVaccineRepoPG(pool),
				immunization.NewScheduleRepoPG(pool),
				delivery.NewBabyRepoPG(pool),
				clk, auditor, logger,
			)
			missedDoses, err := immSvc.SweepMissed(ctx, day)
			if err != nil {
				return fmt.Errorf("dose sweep failed: %w", err)
			}

			tracker := reminders.NewTracker(
				reminders.NewSentRepoPG(pool),
				newSender(cfg, logger), clk, auditor, logger,
			)
			retried, retryFailed, err := tracker.RetrySweep(ctx)
			if err != nil {
				return fmt.Errorf("retry sweep failed: %w", err)
			}

			fmt.Printf("Sweep for %s: %d visit(s) missed, %d dose(s) missed, %d retry send(s), %d retry failure(s).\n",
				day.Format("2006-01-02"), missedVisits, missedDoses, retried, retryFailed)
			return nil
		},
	}
	cmd.Flags().String("date", "", "Sweep as of this date (YYYY-MM-DD, default today)")
	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	clk := serviceClock()
	auditor := audit.NewPGSink(pool, logger)
	sender := newSender(cfg, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.JWTSigningKey),
		}))
	}

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")

	// -- Register domain handlers --

	// Mothers
	motherRepo := mothers.NewRepoPG(pool)
	motherSvc := mothers.NewService(motherRepo)
	mothers.NewHandler(motherSvc).RegisterRoutes(apiV1)

	// Pregnancy and ANC visits
	pregRepo := pregnancy.NewPregnancyRepoPG(pool)
	visitRepo := pregnancy.NewVisitRepoPG(pool)
	pregSvc := pregnancy.NewService(pregRepo, visitRepo, clk, auditor, logger)
	pregnancy.NewHandler(pregSvc).RegisterRoutes(apiV1)

	// Immunization (built before delivery, which generates schedules through it)
	babyRepo := delivery.NewBabyRepoPG(pool)
	immSvc := immunization.NewService(
		immunization.NewVaccineRepoPG(pool),
		immunization.NewScheduleRepoPG(pool),
		babyRepo, clk, auditor, logger,
	)
	immunization.NewHandler(immSvc).RegisterRoutes(apiV1)

	// Delivery and newborns
	deliverySvc := delivery.NewService(
		delivery.NewDeliveryRepoPG(pool),
		babyRepo, pregRepo, immSvc, auditor, logger,
	)
	delivery.NewHandler(deliverySvc).RegisterRoutes(apiV1)

	// Reminders
	templateRepo := reminders.NewTemplateRepoPG(pool)
	sentRepo := reminders.NewSentRepoPG(pool)
	remSvc := reminders.NewService(templateRepo, sentRepo, clk)
	scheduler := reminders.NewScheduler(
		templateRepo, sentRepo,
		reminders.NewCandidateRepoPG(pool),
		clk, auditor, logger, cfg.ReminderLeadDays,
	)
	tracker := reminders.NewTracker(sentRepo, sender, clk, auditor, logger)
	reminders.NewHandler(remSvc, scheduler, tracker).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
