package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/ghlist/pkg/client"
	"github.com/Sternrassler/ghlist/pkg/logging"
	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/Sternrassler/ghlist/pkg/snapshot"
	"github.com/google/go-github/github"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "GHLIST"

// config is the resolved CLI configuration. Flags take precedence over
// GHLIST_* environment variables.
type config struct {
	Token       string
	RedisURL    string
	BaseURL     string
	UserAgent   string
	LogLevel    logging.LogLevel
	Pretty      bool
	PageSize    int
	RateLimit   float64
	SnapshotTTL time.Duration
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ghlist",
		Short:         "Page through GitHub lists with cached first pages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	v := newConfigViper(rootCmd)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(v)
		if err != nil {
			return err
		}
		logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.Pretty, Output: cmd.ErrOrStderr()})
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(
		newBrowseCommand(),
		newWarmCommand(),
	)

	return rootCmd
}

// newConfigViper registers the persistent configuration flags on cmd and
// binds them, with GHLIST_* environment fallbacks, to a fresh viper instance.
func newConfigViper(cmd *cobra.Command) *viper.Viper {
	flags := cmd.PersistentFlags()
	flags.String("token", "", "GitHub token (env GHLIST_TOKEN)")
	flags.String("redis-url", "redis://localhost:6379/0", "Redis URL or host:port (env GHLIST_REDIS_URL)")
	flags.String("base-url", "", "GitHub API base URL, empty for api.github.com (env GHLIST_BASE_URL)")
	flags.String("user-agent", "ghlist/0.1.0", "User-Agent sent to GitHub")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error, disabled")
	flags.Bool("pretty", true, "Human-readable logs")
	flags.Int("page-size", pagination.DefaultPageSize, "Items per page (1-100)")
	flags.Float64("rate-limit", 10, "Client-side request pacing in requests per second, 0 disables")
	flags.Duration("snapshot-ttl", 7*24*time.Hour, "How long stored first pages are kept")

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig resolves and validates the configuration.
func loadConfig(v *viper.Viper) (config, error) {
	level, err := logging.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return config{}, err
	}

	cfg := config{
		Token:       v.GetString("token"),
		RedisURL:    v.GetString("redis-url"),
		BaseURL:     v.GetString("base-url"),
		UserAgent:   v.GetString("user-agent"),
		LogLevel:    level,
		Pretty:      v.GetBool("pretty"),
		PageSize:    v.GetInt("page-size"),
		RateLimit:   v.GetFloat64("rate-limit"),
		SnapshotTTL: v.GetDuration("snapshot-ttl"),
	}

	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return config{}, fmt.Errorf("page-size must be between 1 and 100 (got %d)", cfg.PageSize)
	}
	if cfg.RedisURL == "" {
		return config{}, fmt.Errorf("redis-url is required")
	}
	if cfg.SnapshotTTL <= 0 {
		return config{}, fmt.Errorf("snapshot-ttl must be > 0 (got %s)", cfg.SnapshotTTL)
	}
	return cfg, nil
}

type configKey struct{}

func withConfig(ctx context.Context, cfg config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) config {
	cfg, _ := ctx.Value(configKey{}).(config)
	return cfg
}

// runtime holds the connections shared by commands.
type runtime struct {
	cfg    config
	redis  *redis.Client
	gh     *github.Client
	store  *snapshot.Store
	viewer string
}

// redisOptions accepts both redis:// URLs and bare host:port addresses.
func redisOptions(raw string) (*redis.Options, error) {
	if !strings.Contains(raw, "://") {
		return &redis.Options{Addr: raw}, nil
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

func newRuntime(ctx context.Context, cfg config) (*runtime, error) {
	opts, err := redisOptions(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	ccfg := client.DefaultConfig(rdb, cfg.UserAgent)
	ccfg.RateLimit = cfg.RateLimit

	httpClient, err := client.NewHTTPClient(ccfg, cfg.Token)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("create github http client: %w", err)
	}

	gh, err := client.NewGitHubClient(httpClient, cfg.BaseURL)
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return &runtime{
		cfg:    cfg,
		redis:  rdb,
		gh:     gh,
		store:  snapshot.NewStore(rdb, cfg.SnapshotTTL),
		viewer: client.ViewerID(cfg.Token),
	}, nil
}

func (r *runtime) Close() error {
	return r.redis.Close()
}
