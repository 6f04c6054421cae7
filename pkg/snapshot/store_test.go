package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client on a scratch DB.
// Tests are skipped when no local Redis is available; the integration
// suite runs the same flows against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

type repo struct {
	Name  string `json:"name"`
	Stars int    `json:"stars"`
}

func TestNewStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewStore should panic with nil redis client")
		}
	}()
	NewStore(nil, time.Minute)
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := NewStore(setupTestRedis(t), time.Minute)
	ctx := context.Background()
	key := Key{Feed: "trending", Params: map[string]string{"since": "daily"}}

	want := []repo{{Name: "go", Stars: 120000}, {Name: "kubernetes", Stars: 110000}}
	if err := Save(ctx, store, key, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load[repo](ctx, store, key)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestStore_SaveSkipsEmptyPage(t *testing.T) {
	store := NewStore(setupTestRedis(t), time.Minute)
	ctx := context.Background()
	key := Key{Feed: "events"}

	if err := Save(ctx, store, key, []repo{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := Load[repo](ctx, store, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(setupTestRedis(t), time.Minute)
	ctx := context.Background()
	key := Key{Feed: "events"}

	if err := Save(ctx, store, key, []repo{{Name: "x"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := Load[repo](ctx, store, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_InvalidSnapshot(t *testing.T) {
	client := setupTestRedis(t)
	store := NewStore(client, time.Minute)
	ctx := context.Background()
	key := Key{Feed: "broken"}

	if err := client.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := Load[repo](ctx, store, key); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("Load() error = %v, want ErrInvalidSnapshot", err)
	}
}

func TestRestore(t *testing.T) {
	store := NewStore(setupTestRedis(t), time.Minute)
	ctx := context.Background()
	key := Key{Feed: "trending"}

	if _, ok := Restore[repo](ctx, store, key).Current(); ok {
		t.Error("Restore on a miss should yield no snapshot")
	}

	persist := Persister[repo](store, key)
	if err := persist(ctx, []repo{{Name: "go"}}); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	records, ok := Restore[repo](ctx, store, key).Current()
	if !ok || len(records) != 1 || records[0].Name != "go" {
		t.Errorf("Restore() = %v, %v; want stored page", records, ok)
	}
}

func TestRestore_NilStore(t *testing.T) {
	if _, ok := Restore[repo](context.Background(), nil, Key{Feed: "x"}).Current(); ok {
		t.Error("Restore with nil store should yield no snapshot")
	}
}

func TestWarmer_Run(t *testing.T) {
	store := NewStore(setupTestRedis(t), time.Minute)
	ctx := context.Background()

	fetcher := func(n int) pagination.Fetcher[repo] {
		return pagination.FetcherFunc[repo](func(ctx context.Context, req pagination.Request) (pagination.Result[repo], error) {
			out := make([]repo, n)
			for i := range out {
				out[i] = repo{Name: "r", Stars: i}
			}
			return pagination.Result[repo]{Items: out}, nil
		})
	}
	failing := pagination.FetcherFunc[repo](func(ctx context.Context, req pagination.Request) (pagination.Result[repo], error) {
		return pagination.Result[repo]{}, pagination.HTTPError(500, "boom")
	})

	jobs := []Job{
		FirstPageJob[repo, repo](Key{Feed: "a"}, fetcher(3), pagination.Identity[repo], 30),
		FirstPageJob[repo, repo](Key{Feed: "b"}, fetcher(0), pagination.Identity[repo], 30),
		FirstPageJob[repo, repo](Key{Feed: "c"}, failing, pagination.Identity[repo], 30),
	}

	report, err := NewWarmer(store, DefaultWarmerConfig()).Run(ctx, jobs)
	if err == nil {
		t.Error("Run should report the failed job")
	}
	if report.Stored != 1 || report.Empty != 1 || report.Failed != 1 {
		t.Errorf("report = %+v, want 1 stored, 1 empty, 1 failed", report)
	}

	got, err := Load[repo](ctx, store, Key{Feed: "a"})
	if err != nil || len(got) != 3 {
		t.Errorf("Load(a) = %v, %v; want 3 records", got, err)
	}
}

func TestWarmer_NoJobs(t *testing.T) {
	w := NewWarmer(&Store{}, WarmerConfig{})
	report, err := w.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Results) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}
