package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/authz"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/conversation"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/adminhttp"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/channelruntime/telegram"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/outputfmt"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/statepaths"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/tablewatch"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/telegramapi"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/matcher"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/responder"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll Telegram and answer triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(flagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token, %s_TELEGRAM_BOT_TOKEN or BOT_TOKEN)", envPrefix)
			}
			outputfmt.SetSecrets(token, viper.GetString("admin_http.token"))
			logger, err := loggerFromViper()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := loadStore(ctx, logger)
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := store.Flush(flushCtx); err != nil {
					logger.Error("store_flush_failed", "error", outputfmt.FormatErrorForDisplay(err))
					return
				}
				logger.Info("store_flushed", "dir", store.Root())
			}()

			pollTimeout := flagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout")
			api := telegramapi.New(
				&http.Client{Timeout: pollTimeout + 30*time.Second},
				viper.GetString("telegram.base_url"),
				token,
				logger,
			)

			gateCfg, err := gateConfigFromViper()
			if err != nil {
				return err
			}
			gate := authz.New(gateCfg, api, logger)
			reporter := reporterFromViper(store)
			backups := backupManagerFromViper(store, logger)

			r := responder.New(responder.Deps{
				Store: store,
				Gate:  gate,
				Engine: conversation.New(store, conversation.Options{
					IdleTimeout: viper.GetDuration("conversation.idle_timeout"),
					Logger:      logger,
				}),
				Matcher:  matcher.New(store, matcher.Options{Fuzzy: viper.GetBool("replies.fuzzy")}),
				Reporter: reporter,
				Backup:   backups,
				Logger:   logger,
			}, responderConfigFromViper())

			var wg sync.WaitGroup
			defer wg.Wait()
			bgCtx, stopBackground := context.WithCancel(ctx)
			defer stopBackground()

			if viper.GetBool("watch.enabled") {
				w, err := tablewatch.New(statepaths.DataDir(), store, tablewatch.Options{
					Debounce: viper.GetDuration("watch.debounce"),
					Logger:   logger,
				})
				if err != nil {
					logger.Warn("tablewatch_disabled", "error", outputfmt.FormatErrorForDisplay(err))
				} else {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_ = w.Run(bgCtx)
					}()
				}
			}
			if viper.GetBool("admin_http.enabled") {
				srv := adminhttp.New(adminhttp.Options{
					Listen:   viper.GetString("admin_http.listen"),
					Token:    viper.GetString("admin_http.token"),
					Reporter: reporter,
					Reloader: store,
					Backup:   backups,
					Logger:   logger,
				})
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := srv.Run(bgCtx); err != nil {
						logger.Error("adminhttp_failed", "error", err.Error())
					}
				}()
			}

			return telegram.Run(ctx, telegram.Dependencies{
				API:     api,
				Handler: r,
				Logger:  logger,
			}, telegram.RunOptions{
				BotToken:       token,
				PollTimeout:    pollTimeout,
				MaxConcurrency: flagOrViperInt(cmd, "telegram-max-concurrency", "telegram.max_concurrency"),
				AttachmentKey:  viper.GetString("telegram.attachment_key"),
			})
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout for getUpdates.")
	cmd.Flags().Int("telegram-max-concurrency", 1, "Max number of senders handled concurrently.")
	return cmd
}

func gateConfigFromViper() (authz.Config, error) {
	admins, err := idsFromViper("auth.admin_ids")
	if err != nil {
		return authz.Config{}, err
	}
	supers, err := idsFromViper("auth.super_admin_ids")
	if err != nil {
		return authz.Config{}, err
	}
	blocked, err := idsFromViper("auth.blocked_ids")
	if err != nil {
		return authz.Config{}, err
	}
	if len(admins) == 0 && len(supers) == 0 {
		slog.Warn("authz_no_admins", "hint", "set auth.admin_ids to allow authoring in private chats")
	}
	return authz.Config{
		AdminIDs:              admins,
		SuperAdminIDs:         supers,
		BlockedIDs:            blocked,
		GroupAdmins:           viper.GetBool("auth.group_admins"),
		MemberCacheTTL:        viper.GetDuration("auth.member_cache_ttl"),
		PrivilegedOnlyReplies: viper.GetBool("replies.privileged_only"),
	}, nil
}

func responderConfigFromViper() responder.Config {
	return responder.Config{
		BotName:        viper.GetString("bot.name"),
		BotVersion:     currentVersion().Version,
		RepliesEnabled: viper.GetBool("replies.enabled"),
		ImageReplies:   viper.GetBool("replies.images"),
		TextReplies:    viper.GetBool("replies.text"),
		ReplyDelay:     viper.GetDuration("replies.delay"),
		Fuzzy:          viper.GetBool("replies.fuzzy"),
		PrivilegedOnly: viper.GetBool("replies.privileged_only"),
		GroupAdmins:    viper.GetBool("auth.group_admins"),
		PageSize:       viper.GetInt("ui.max_list_items"),
		MaxResults:     viper.GetInt("ui.max_search_results"),
		ShowErrors:     viper.GetBool("ui.show_errors"),
		DateFormat:     viper.GetString("ui.date_format"),
		UsersLimit:     viper.GetInt("ui.users_limit"),
	}
}
