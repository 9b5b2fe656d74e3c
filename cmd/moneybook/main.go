// Command moneybook is a maintenance tool for the local database: it runs
// the data migrations and prints an account report. The app itself consumes
// the same packages in-process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"moneybook/internal/cli"
	"moneybook/internal/migration"
	"moneybook/internal/services"
	"moneybook/internal/storage"
)

func main() {
	forceMigrate := flag.Bool("force-migrate", false,
		"wipe all relational data and rerun every migration phase (destructive)")
	flag.Parse()

	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(slog.Default())
	level, _ := cfg.SlogLevel()
	logger := cli.SetupLogger(level)

	repo := cli.InitStorage(logger, cfg.DBPath)
	defer repo.Close()

	ctx := context.Background()
	engine := migration.NewEngine(repo)

	if *forceMigrate {
		if err := engine.ForceMigration(ctx); err != nil {
			logger.Error("Forced migration failed", "error", err)
			os.Exit(1)
		}
	} else if err := engine.Run(ctx); err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	if err := report(ctx, repo); err != nil {
		logger.Error("Report failed", "error", err)
		os.Exit(1)
	}
}

func report(ctx context.Context, repo *storage.Repository) error {
	accounts := services.NewAccountService(repo)
	transactions := services.NewTransactionService(repo)

	stats, err := accounts.GetAllAccountsWithStats(ctx)
	if err != nil {
		return err
	}
	total, err := transactions.GetCurrentBalance(ctx)
	if err != nil {
		return err
	}

	for _, st := range stats {
		last := "never"
		if st.LastTransaction != nil {
			last = st.LastTransaction.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-24s balance=%s transactions=%d last=%s\n",
			st.Account.Name, st.Balance.String(), st.TransactionCount, last)
	}
	fmt.Printf("total balance: %s\n", total.String())
	return nil
}
