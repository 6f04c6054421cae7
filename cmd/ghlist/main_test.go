package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/ghlist/pkg/feeds"
	"github.com/Sternrassler/ghlist/pkg/logging"
	"github.com/Sternrassler/ghlist/pkg/snapshot"
	"github.com/spf13/cobra"
)

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		v := newConfigViper(&cobra.Command{Use: "test"})
		cfg, err := loadConfig(v)
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.PageSize != 30 || cfg.LogLevel != logging.LevelWarn || cfg.SnapshotTTL != 7*24*time.Hour {
			t.Errorf("defaults = %+v", cfg)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("GHLIST_TOKEN", "env-token")
		t.Setenv("GHLIST_REDIS_URL", "redis://cache:6379/2")
		t.Setenv("GHLIST_PAGE_SIZE", "50")
		t.Setenv("GHLIST_LOG_LEVEL", "debug")

		cfg, err := loadConfig(newConfigViper(&cobra.Command{Use: "test"}))
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.Token != "env-token" || cfg.RedisURL != "redis://cache:6379/2" || cfg.PageSize != 50 || cfg.LogLevel != logging.LevelDebug {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("flag wins over environment", func(t *testing.T) {
		t.Setenv("GHLIST_PAGE_SIZE", "50")

		cmd := &cobra.Command{Use: "test"}
		v := newConfigViper(cmd)
		if err := cmd.PersistentFlags().Set("page-size", "20"); err != nil {
			t.Fatalf("set flag: %v", err)
		}

		cfg, err := loadConfig(v)
		if err != nil {
			t.Fatalf("loadConfig failed: %v", err)
		}
		if cfg.PageSize != 20 {
			t.Errorf("PageSize = %d, want 20", cfg.PageSize)
		}
	})

	invalid := map[string]string{
		"GHLIST_PAGE_SIZE":    "500",
		"GHLIST_LOG_LEVEL":    "loud",
		"GHLIST_SNAPSHOT_TTL": "-1h",
	}
	for env, value := range invalid {
		t.Run("invalid "+env, func(t *testing.T) {
			t.Setenv(env, value)
			if _, err := loadConfig(newConfigViper(&cobra.Command{Use: "test"})); err == nil {
				t.Errorf("%s=%s should fail", env, value)
			}
		})
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("localhost:6380")
	if err != nil || opts.Addr != "localhost:6380" {
		t.Errorf("bare address: %+v, %v", opts, err)
	}

	opts, err = redisOptions("redis://cache:6379/3")
	if err != nil || opts.Addr != "cache:6379" || opts.DB != 3 {
		t.Errorf("url: %+v, %v", opts, err)
	}

	if _, err := redisOptions("http://cache:6379"); err == nil {
		t.Error("non-redis scheme should fail")
	}
}

func TestSplitRepo(t *testing.T) {
	owner, name, err := splitRepo(" golang/go ")
	if err != nil || owner != "golang" || name != "go" {
		t.Errorf("splitRepo = %q, %q, %v", owner, name, err)
	}

	for _, bad := range []string{"", "golang", "/go", "golang/", "a/b/c"} {
		if _, _, err := splitRepo(bad); err == nil {
			t.Errorf("splitRepo(%q) should fail", bad)
		}
	}
}

func TestSessionKey(t *testing.T) {
	key := snapshot.Key{Feed: "trending"}

	if sessionKey(key, true, false) == nil {
		t.Error("cacheable session should get a key")
	}
	if sessionKey(key, false, false) != nil {
		t.Error("non-cacheable session should not get a key")
	}
	if sessionKey(key, true, true) != nil {
		t.Error("--no-cache should disable the key")
	}
}

func TestBrowse_UnknownFeed(t *testing.T) {
	err := browse(context.Background(), io.Discard, &runtime{}, "starred", browseOptions{})
	if err == nil || !strings.Contains(err.Error(), "unknown feed") {
		t.Errorf("err = %v, want unknown feed", err)
	}
}

func TestPrinter(t *testing.T) {
	repos := []feeds.RepoRecord{
		{FullName: "golang/go", Stars: 120000, Language: "Go", Description: "The Go programming language"},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		p := newPrinter(&buf, "text", renderRepo)
		p.heading("live")
		if err := p.records(repos); err != nil {
			t.Fatalf("records failed: %v", err)
		}
		p.note("no results")

		out := buf.String()
		for _, want := range []string{"== live ==", "golang/go", "120000★", "-- no results"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		p := newPrinter(&buf, "json", renderRepo)
		p.heading("live")
		if err := p.records(repos); err != nil {
			t.Fatalf("records failed: %v", err)
		}

		var got feeds.RepoRecord
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not one JSON record: %v\n%s", err, buf.String())
		}
		if got.FullName != "golang/go" {
			t.Errorf("FullName = %q", got.FullName)
		}
	})
}

func TestRenderers(t *testing.T) {
	var buf bytes.Buffer

	renderIssue(&buf, feeds.IssueRecord{Number: 7, State: "open", Title: "crash", Author: "gopher", IsPull: true})
	renderIssue(&buf, feeds.IssueRecord{CommentID: 1, Author: "rob", Body: "LGTM\nmore text"})
	renderEvent(&buf, feeds.EventRecord{Kind: "mention", Repo: "golang/go", Title: "Ping", Unread: true})

	out := buf.String()
	for _, want := range []string{"#7", "pr", "@gopher", "@rob: LGTM", "* ", "golang/go: Ping"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "more text") {
		t.Error("comment body should be cut to its first line")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("ünïcödé text", 5); got != "ünïc…" {
		t.Errorf("truncate = %q", got)
	}
}

func TestWarmCommand_Validation(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"warm", "--interval", "0"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "interval") {
		t.Errorf("err = %v, want interval validation error", err)
	}
}

func TestBrowseCommand_Validation(t *testing.T) {
	for _, args := range [][]string{
		{"browse", "trending", "--format", "xml"},
		{"browse", "trending", "--pages", "-1"},
		{"browse"},
	} {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)

		if err := cmd.Execute(); err == nil {
			t.Errorf("%v should fail", args)
		}
	}
}
