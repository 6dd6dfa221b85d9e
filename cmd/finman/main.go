package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"finman/internal/cli"
	"finman/internal/console"
	"finman/internal/log"
	"finman/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(log.New(log.DefaultConfig()))
	logger, closeLog := cli.SetupLogger(cfg)
	defer closeLog()

	repo := cli.InitSQLite(logger, cfg.DBPath)
	events, closeEvents := cli.InitEvents(logger, cfg)

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			closeEvents()
			if err := repo.Close(); err != nil {
				logger.Error("Failed to close database", log.FieldError, err)
			}
		})
	}
	ctx, done := cli.GracefulShutdown(logger, 5*time.Second, cleanup)
	ctx = log.NewContext(ctx, logger)

	budgets := services.NewBudgetService(repo, events, logger)
	app := console.New(console.Config{
		In:  os.Stdin,
		Out: os.Stdout,
		Services: console.Services{
			Auth:    services.NewAuthService(repo, cfg.BcryptCost, logger),
			Ledger:  services.NewLedgerService(repo, budgets, events, logger),
			Budgets: budgets,
			Reports: services.NewReportService(repo, repo, logger),
			Backups: services.NewBackupService(repo, cfg.BackupDir, logger),
		},
	})

	logger.Info("Starting finman", log.FieldOperation, log.OpStartup, log.FieldPath, cfg.DBPath)

	result := make(chan error, 1)
	go func() { result <- app.Run(ctx) }()

	select {
	case err := <-result:
		cleanup()
		if err != nil {
			logger.Error("Console stopped", log.FieldError, err)
			os.Exit(1)
		}
	case <-done:
		// stdin is still blocked in a read; leave it behind
		fmt.Println("\nGoodbye!")
	}
}
