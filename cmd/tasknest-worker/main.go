package main

import (
	"context"
	"os"

	"tasknest/internal/amqp"
	"tasknest/internal/cli"
	"tasknest/internal/config"
	"tasknest/internal/log"
	"tasknest/internal/sheets"
	gsheet "tasknest/internal/sheets/google"
	mem "tasknest/internal/sheets/memory"
	"tasknest/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting tasknest-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	var reports sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleReportSheet,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client",
				log.FieldErrorType, log.ErrorTypeConfiguration,
				log.FieldError, err)
			os.Exit(1)
		}
		if err := client.EnsureHeader(context.Background()); err != nil {
			logger.Warn("Failed to write report header", log.FieldError, err)
		}
		reports = client
		logger.Info("Google Sheets report sink initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleReportSheet)
	} else {
		reports = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, reports kept in memory")
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client",
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		if err := consumer.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
	})

	w := worker.NewReportWorker(reports, logger)
	if err := w.Run(ctx, consumer); err != nil {
		logger.Error("Report worker failed", log.FieldError, err)
		_ = consumer.Close()
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}
