package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/backup"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/logutil"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/statepaths"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/stats"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
	"github.com/spf13/viper"
)

// loadStore opens the tables under the configured data dir.
func loadStore(ctx context.Context, logger *slog.Logger) (*triggers.FileStore, error) {
	dir := statepaths.DataDir()
	store := triggers.NewFileStore(dir, triggers.Options{Logger: logger})
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load tables from %s: %w", dir, err)
	}
	return store, nil
}

func backupManagerFromViper(store *triggers.FileStore, logger *slog.Logger) *backup.Manager {
	return backup.NewManager(store, backup.Options{
		Dir:    statepaths.BackupDir(),
		Keep:   viper.GetInt("backup.keep"),
		Logger: logger,
	})
}

func reporterFromViper(store *triggers.FileStore) *stats.Reporter {
	return stats.NewReporter(store, stats.Options{
		PageSize:   viper.GetInt("ui.max_list_items"),
		MaxResults: viper.GetInt("ui.max_search_results"),
		TopSenders: viper.GetInt("ui.top_senders"),
	})
}

func loggerFromViper() (*slog.Logger, error) {
	logger, err := logutil.LoggerFromViper()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
