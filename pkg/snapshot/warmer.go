package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/rs/zerolog/log"
)

// WarmerConfig holds warmer configuration
type WarmerConfig struct {
	// MaxConcurrency is the maximum number of sessions fetched in parallel.
	// GitHub allows 5000 authenticated requests/hour; a handful of workers is plenty.
	MaxConcurrency int
	// Timeout per job
	Timeout time.Duration
}

// DefaultWarmerConfig returns safe default configuration
func DefaultWarmerConfig() WarmerConfig {
	return WarmerConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// Job fetches the first page of one session configuration.
type Job struct {
	Key Key
	// Fetch returns the transformed records of page 1 and their count.
	Fetch func(ctx context.Context) (records any, count int, err error)
}

// FirstPageJob builds a Job that loads page 1 through fetcher and transform.
func FirstPageJob[R, T any](key Key, fetcher pagination.Fetcher[R], transform pagination.Transformer[R, T], perPage int) Job {
	if perPage <= 0 {
		perPage = pagination.DefaultPageSize
	}
	return Job{
		Key: key,
		Fetch: func(ctx context.Context) (any, int, error) {
			result, err := fetcher.FetchPage(ctx, pagination.Request{Page: 1, PerPage: perPage})
			if err != nil {
				return nil, 0, err
			}
			records, _ := pagination.TransformPage(result.Items, transform, log.Logger)
			return records, len(records), nil
		},
	}
}

// JobResult is the outcome of one warm job.
type JobResult struct {
	Key   Key
	Count int
	Error error
}

// Report summarizes a warm run.
type Report struct {
	Stored  int
	Empty   int
	Failed  int
	Results []JobResult
}

// Warmer refreshes stored first pages for many sessions in parallel.
// Sessions are independent, so unlike a paging session they may be fetched concurrently.
type Warmer struct {
	store  *Store
	config WarmerConfig
}

// NewWarmer creates a new warmer
func NewWarmer(store *Store, config WarmerConfig) *Warmer {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Warmer{
		store:  store,
		config: config,
	}
}

// Run executes all jobs using a worker pool and stores non-empty first pages.
// Failed jobs are reported; they do not stop the others.
func (w *Warmer) Run(ctx context.Context, jobs []Job) (Report, error) {
	start := time.Now()
	report := Report{}

	if len(jobs) == 0 {
		return report, nil
	}

	log.Info().
		Int("jobs", len(jobs)).
		Int("workers", w.config.MaxConcurrency).
		Msg("Starting snapshot warm run")

	queue := make(chan Job, len(jobs))
	results := make(chan JobResult, len(jobs))

	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < w.config.MaxConcurrency; i++ {
		wg.Add(1)
		go w.worker(ctx, queue, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		report.Results = append(report.Results, result)
		switch {
		case result.Error != nil:
			report.Failed++
			WarmJobs.WithLabelValues("failed").Inc()
		case result.Count == 0:
			report.Empty++
			WarmJobs.WithLabelValues("empty").Inc()
		default:
			report.Stored++
			WarmJobs.WithLabelValues("stored").Inc()
		}
	}

	log.Info().
		Int("stored", report.Stored).
		Int("empty", report.Empty).
		Int("failed", report.Failed).
		Dur("duration", time.Since(start)).
		Msg("Snapshot warm run complete")

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("warm run interrupted (%d/%d jobs done): %w", len(report.Results), len(jobs), err)
	}
	if report.Failed > 0 {
		return report, fmt.Errorf("%d of %d warm jobs failed", report.Failed, len(jobs))
	}
	return report, nil
}

// worker processes jobs from the queue
func (w *Warmer) worker(ctx context.Context, queue <-chan Job, results chan<- JobResult, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for job := range queue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("jobs_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		results <- w.runJob(ctx, job)
		processed++
	}

	if processed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("jobs_processed", processed).
			Msg("Worker completed")
	}
}

func (w *Warmer) runJob(ctx context.Context, job Job) JobResult {
	jobCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	records, count, err := job.Fetch(jobCtx)
	if err != nil {
		log.Warn().Err(err).Str("key", job.Key.String()).Msg("Warm job failed")
		return JobResult{Key: job.Key, Error: err}
	}
	if count == 0 {
		return JobResult{Key: job.Key}
	}

	if err := w.store.save(jobCtx, job.Key, records, count); err != nil {
		log.Warn().Err(err).Str("key", job.Key.String()).Msg("Failed to store snapshot")
		return JobResult{Key: job.Key, Error: err}
	}

	log.Debug().Str("key", job.Key.String()).Int("records", count).Msg("Snapshot stored")
	return JobResult{Key: job.Key, Count: count}
}
