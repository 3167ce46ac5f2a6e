package cli

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/ppiankov/depicta/internal/model"
)

var envReplacer = strings.NewReplacer(".", "_")

// setDefaults registers every scalar default with viper so that environment
// variables such as DEPICTA_SERVER_BASE_URL are picked up by Unmarshal.
func setDefaults(cfg *model.Config) {
	viper.SetDefault("server.base_url", cfg.Server.BaseURL)
	viper.SetDefault("server.domain", cfg.Server.Domain)
	viper.SetDefault("server.username", cfg.Server.Username)
	viper.SetDefault("server.timeout", cfg.Server.Timeout)
	viper.SetDefault("server.user_agent", cfg.Server.UserAgent)
	viper.SetDefault("server.http_proxy", cfg.Server.HTTPProxy)
	viper.SetDefault("server.https_proxy", cfg.Server.HTTPSProxy)

	viper.SetDefault("search.endpoint", cfg.Search.Endpoint)
	viper.SetDefault("search.language", cfg.Search.Language)
	viper.SetDefault("search.limit", cfg.Search.Limit)
	viper.SetDefault("search.timeout", cfg.Search.Timeout)
	viper.SetDefault("search.requests_per_second", cfg.Search.RequestsPerSecond)
	viper.SetDefault("search.burst", cfg.Search.Burst)

	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_dir", cfg.Cache.DiskDir)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)

	viper.SetDefault("store.dsn", cfg.Store.DSN)
	viper.SetDefault("store.listen", cfg.Store.Listen)

	viper.SetDefault("log.mode", cfg.Log.Mode)
}
