package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/ghlist/pkg/feeds"
)

// printer writes records as text lines or JSON lines. Headings and notes
// only appear in text output.
type printer[T any] struct {
	out    io.Writer
	json   *json.Encoder
	render func(io.Writer, T)
}

func newPrinter[T any](out io.Writer, format string, render func(io.Writer, T)) *printer[T] {
	p := &printer[T]{out: out, render: render}
	if format == "json" {
		p.json = json.NewEncoder(out)
	}
	return p
}

func (p *printer[T]) heading(name string) {
	if p.json == nil {
		fmt.Fprintf(p.out, "== %s ==\n", name)
	}
}

func (p *printer[T]) note(msg string) {
	if p.json == nil {
		fmt.Fprintf(p.out, "-- %s\n", msg)
	}
}

func (p *printer[T]) records(items []T) error {
	for _, item := range items {
		if p.json != nil {
			if err := p.json.Encode(item); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			continue
		}
		p.render(p.out, item)
	}
	return nil
}

func renderRepo(w io.Writer, r feeds.RepoRecord) {
	fmt.Fprintf(w, "%-40s %7d★ %-12s %s\n", r.FullName, r.Stars, r.Language, truncate(r.Description, 60))
}

func renderIssue(w io.Writer, r feeds.IssueRecord) {
	if r.CommentID != 0 {
		fmt.Fprintf(w, "%s @%s: %s\n", r.CreatedAt.Format("2006-01-02"), r.Author, truncate(firstLine(r.Body), 80))
		return
	}
	kind := "issue"
	if r.IsPull {
		kind = "pr"
	}
	fmt.Fprintf(w, "#%-6d %-6s %-5s %s (@%s, %d comments)\n", r.Number, r.State, kind, truncate(r.Title, 70), r.Author, r.Comments)
}

func renderEvent(w io.Writer, r feeds.EventRecord) {
	marker := " "
	if r.Unread {
		marker = "*"
	}
	who := r.Actor
	if who == "" {
		who = r.Kind
	}
	title := r.Title
	if r.Actor == "" && r.Repo != "" {
		title = r.Repo + ": " + title
	}
	fmt.Fprintf(w, "%s %s %-20s %s\n", marker, r.CreatedAt.Format("2006-01-02 15:04"), who, truncate(title, 80))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
