package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/ghlist/pkg/feeds"
	"github.com/Sternrassler/ghlist/pkg/logging"
	"github.com/Sternrassler/ghlist/pkg/metrics"
	"github.com/Sternrassler/ghlist/pkg/snapshot"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type warmOptions struct {
	windows     []string
	languages   []string
	users       []string
	ownRepos    bool
	interval    time.Duration
	once        bool
	addr        string
	concurrency int
}

func newWarmCommand() *cobra.Command {
	var o warmOptions

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Keep stored first pages fresh",
		Long: `Periodically fetch page 1 of the configured sessions and store it, so the
next browse paints it before the network answers. Serves /health, /ready
and /metrics while running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !o.once && o.interval <= 0 {
				return fmt.Errorf("interval must be > 0 (got %s)", o.interval)
			}

			ctx := cmd.Context()
			rt, err := newRuntime(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer rt.Close()

			return runWarm(ctx, rt, o)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&o.windows, "windows", []string{string(feeds.SinceDaily), string(feeds.SinceWeekly), string(feeds.SinceMonthly)}, "Trending windows to warm")
	f.StringSliceVar(&o.languages, "languages", []string{""}, "Trending languages to warm, empty for all languages")
	f.StringSliceVar(&o.users, "users", nil, "Users whose received events are warmed")
	f.BoolVar(&o.ownRepos, "own-repos", false, "Warm the token owner's repository list")
	f.DurationVar(&o.interval, "interval", 15*time.Minute, "Time between warm runs")
	f.BoolVar(&o.once, "once", false, "Run once and exit without serving HTTP")
	f.StringVar(&o.addr, "addr", ":8080", "Listen address for /health, /ready and /metrics")
	f.IntVar(&o.concurrency, "concurrency", snapshot.DefaultWarmerConfig().MaxConcurrency, "Sessions fetched in parallel")

	return cmd
}

// warmJobs builds one job per warmed session.
func warmJobs(rt *runtime, o warmOptions) ([]snapshot.Job, error) {
	var jobs []snapshot.Job
	perPage := rt.cfg.PageSize

	for _, window := range o.windows {
		for _, lang := range o.languages {
			f := feeds.TrendingFilter{Since: feeds.Since(window), Language: lang}
			fetcher, err := feeds.Trending(rt.gh, f)
			if err != nil {
				return nil, err
			}
			key, _ := f.SessionKey()
			jobs = append(jobs, snapshot.FirstPageJob(key, fetcher, feeds.ToRepoRecord, perPage))
		}
	}

	for _, user := range o.users {
		f := feeds.EventFilter{User: user}
		fetcher, err := feeds.Events(rt.gh, f)
		if err != nil {
			return nil, err
		}
		key, _ := f.SessionKey()
		jobs = append(jobs, snapshot.FirstPageJob(key, fetcher, feeds.EventToEventRecord, perPage))
	}

	if o.ownRepos {
		if rt.viewer == "" {
			return nil, errors.New("own-repos needs a token")
		}
		f := feeds.UserRepoFilter{}
		fetcher, err := feeds.UserRepos(rt.gh, f)
		if err != nil {
			return nil, err
		}
		key, _ := f.SessionKey(rt.viewer)
		jobs = append(jobs, snapshot.FirstPageJob(key, fetcher, feeds.ToRepoRecord, perPage))
	}

	return jobs, nil
}

func runWarm(ctx context.Context, rt *runtime, o warmOptions) error {
	logger := logging.NewLogger("warm")

	jobs, err := warmJobs(rt, o)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return errors.New("nothing to warm")
	}

	cfg := snapshot.DefaultWarmerConfig()
	if o.concurrency > 0 {
		cfg.MaxConcurrency = o.concurrency
	}
	warmer := snapshot.NewWarmer(rt.store, cfg)

	if o.once {
		_, err := runOnce(ctx, warmer, jobs, logger)
		return err
	}

	server := &http.Server{
		Addr:              o.addr,
		Handler:           newMux(rt.redis),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", o.addr).Msg("Serving health and metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		// Failed jobs are logged by runOnce; the next tick retries them.
		runOnce(ctx, warmer, jobs, logger)

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Info().Msg("Shutting down")
			return server.Shutdown(shutdownCtx)
		case err := <-serverErr:
			return fmt.Errorf("http server: %w", err)
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, warmer *snapshot.Warmer, jobs []snapshot.Job, logger zerolog.Logger) (snapshot.Report, error) {
	report, err := warmer.Run(ctx, jobs)
	event := logger.Info()
	if err != nil {
		event = logger.Warn().Err(err)
	}
	event.
		Int("stored", report.Stored).
		Int("empty", report.Empty).
		Int("failed", report.Failed).
		Msg("Warm run finished")
	return report, err
}

func newMux(rdb *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(rdb))
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports 503 while Redis is unreachable.
func readyHandler(rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := rdb.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}
