package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Storage
	viper.SetDefault("data_dir", "~/.responder")
	viper.SetDefault("backup.dir", "backups")
	viper.SetDefault("backup.keep", 10)

	// Telegram
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.max_concurrency", 1)
	viper.SetDefault("telegram.attachment_key", "file_unique_id")

	// Authorization
	viper.SetDefault("auth.admin_ids", []string{})
	viper.SetDefault("auth.super_admin_ids", []string{})
	viper.SetDefault("auth.blocked_ids", []string{})
	viper.SetDefault("auth.group_admins", true)
	viper.SetDefault("auth.member_cache_ttl", time.Minute)

	// Replies
	viper.SetDefault("replies.enabled", true)
	viper.SetDefault("replies.images", true)
	viper.SetDefault("replies.text", true)
	viper.SetDefault("replies.delay", time.Duration(0))
	viper.SetDefault("replies.privileged_only", true)
	viper.SetDefault("replies.fuzzy", false)

	viper.SetDefault("conversation.idle_timeout", 15*time.Minute)

	// Chat rendering
	viper.SetDefault("bot.name", "")
	viper.SetDefault("ui.max_list_items", 50)
	viper.SetDefault("ui.max_search_results", 10)
	viper.SetDefault("ui.top_senders", 5)
	viper.SetDefault("ui.users_limit", 10)
	viper.SetDefault("ui.show_errors", true)
	viper.SetDefault("ui.date_format", "2006-01-02 15:04")

	// Operator surfaces
	viper.SetDefault("admin_http.enabled", false)
	viper.SetDefault("admin_http.listen", "127.0.0.1:8790")
	viper.SetDefault("admin_http.token", "")
	viper.SetDefault("watch.enabled", true)
	viper.SetDefault("watch.debounce", 100*time.Millisecond)

	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("trace", false)
}
