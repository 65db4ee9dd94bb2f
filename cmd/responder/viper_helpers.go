package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagOr returns the flag value when it was passed explicitly, then the
// configured value for key, then the flag default.
func flagOr[T any](cmd *cobra.Command, flag, key string, fromFlag func(*pflag.FlagSet, string) (T, error), fromViper func(string) T) T {
	v, _ := fromFlag(cmd.Flags(), flag)
	if !cmd.Flags().Changed(flag) && key != "" && viper.IsSet(key) {
		return fromViper(key)
	}
	return v
}

func flagOrViperString(cmd *cobra.Command, flag, key string) string {
	return flagOr(cmd, flag, key, (*pflag.FlagSet).GetString, viper.GetString)
}

func flagOrViperInt(cmd *cobra.Command, flag, key string) int {
	return flagOr(cmd, flag, key, (*pflag.FlagSet).GetInt, viper.GetInt)
}

func flagOrViperDuration(cmd *cobra.Command, flag, key string) time.Duration {
	return flagOr(cmd, flag, key, (*pflag.FlagSet).GetDuration, viper.GetDuration)
}

// idsFromViper reads a list of Telegram ids. Entries may themselves be comma
// or space separated, which is how they arrive from environment variables.
func idsFromViper(key string) ([]int64, error) {
	return parseIDList(viper.GetStringSlice(key), key)
}

func parseIDList(items []string, key string) ([]int64, error) {
	var out []int64
	seen := map[int64]bool{}
	for _, item := range items {
		for _, field := range strings.FieldsFunc(item, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}) {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s entry %q: %w", key, field, err)
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
