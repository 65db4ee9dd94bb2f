package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/statepaths"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "RESPONDER"
	configBaseName = "responder"
)

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "responder",
		Short:        "Telegram sticker and keyword auto-responder",
		SilenceUsage: true,
	}
	cobra.OnInitialize(initConfig)

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file path. Without it responder.yaml is looked up in the data dir and the working dir.")
	flags.String("data-dir", "", "Directory holding the trigger tables (defaults to ~/.responder).")
	flags.String("log-level", "", "Logging level: debug|info|warn|error (defaults to info; debug if --trace).")
	flags.String("log-format", "text", "Logging format: text|json.")
	flags.Bool("log-add-source", false, "Include source file:line in logs.")
	flags.Bool("trace", false, "Log at debug level unless --log-level is set.")
	bindFlags(flags, map[string]string{
		"config":             "config",
		"data_dir":           "data-dir",
		"logging.level":      "log-level",
		"logging.format":     "log-format",
		"logging.add_source": "log-add-source",
		"trace":              "trace",
	})

	cmd.AddCommand(
		newRunCmd(),
		newBackupCmd(),
		newStatsCmd(),
		newVersionCmd(),
	)
	return cmd
}

func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

func initConfig() {
	initViperDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	// Older deployments export BOT_TOKEN.
	_ = viper.BindEnv("telegram.bot_token", envPrefix+"_TELEGRAM_BOT_TOKEN", "BOT_TOKEN")

	if err := readConfigFile(strings.TrimSpace(viper.GetString("config"))); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
	}
}

// readConfigFile loads path, or the first responder.{yaml,json,toml} found
// when path is empty. Finding no file is fine.
func readConfigFile(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
		return viper.ReadInConfig()
	}
	viper.SetConfigName(configBaseName)
	viper.AddConfigPath(statepaths.DataDir())
	viper.AddConfigPath(".")
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}
