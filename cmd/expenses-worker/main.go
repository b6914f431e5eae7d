package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/digest"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/share"
	"expenses/internal/sheets"
	gsheet "expenses/internal/sheets/google"
	memsheet "expenses/internal/sheets/memory"
	"expenses/internal/store"
	"expenses/internal/worker"
)

// digestTimeout bounds one digest run: render, then SMTP delivery.
const digestTimeout = 2 * time.Minute

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting expenses-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo, closeStore, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer closeStore()

	mirror, err := newMirror(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := cli.OpenAMQP(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	syncWorker := worker.NewSyncWorker(repo, mirror, logger)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		// Don't exit - the periodic sync retries
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeWithReconnect(gctx, syncWorker.HandleChangeMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP message consumption - relying on periodic sync")
	}

	g.Go(func() error {
		syncWorker.RunPeriodic(gctx, cfg.SyncInterval)
		return nil
	})

	if cfg.DigestEnabled() {
		scheduler, err := newDigestScheduler(cfg, repo, logger)
		if err != nil {
			logger.Error("Failed to schedule digest", log.FieldError, err)
			os.Exit(1)
		}
		g.Go(func() error {
			scheduler.Run(gctx)
			return nil
		})
	} else {
		logger.Info("Weekly digest disabled - SMTP host, sender or recipients missing")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func newMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.Mirror, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - mirroring to memory only")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// newDigestScheduler wires the last-week report e-mail. The worker holds no
// publisher: the digest only reads.
func newDigestScheduler(cfg *config.Config, repo *store.Repository, logger *log.Logger) (*digest.Scheduler, error) {
	svc := services.NewExpenseService(repo, nil, logger)
	mailer := digest.NewMailer(digest.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.DigestFrom,
		To:       cfg.DigestTo,
	}, logger)

	d := digest.New(svc, mailer, share.NewFormatter(cfg.ShareLocale, cfg.ShareCurrency), logger)
	return digest.NewScheduler(cfg.DigestSchedule, d.Run, digestTimeout, logger)
}
