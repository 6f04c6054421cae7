package feeds

import (
	"errors"
	"time"
)

// ErrIncompleteItem is returned by transformers for items missing the fields
// a record needs. The item is dropped from its page.
var ErrIncompleteItem = errors.New("item is missing required fields")

// RepoRecord is a repository as shown in repository lists.
type RepoRecord struct {
	FullName    string    `json:"full_name"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Watchers    int       `json:"watchers"`
	Fork        bool      `json:"fork,omitempty"`
	HTMLURL     string    `json:"html_url"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// IssueRecord is an issue or an issue comment.
type IssueRecord struct {
	// Number is the issue number; 0 for comments.
	Number    int       `json:"number,omitempty"`
	CommentID int64     `json:"comment_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body,omitempty"`
	State     string    `json:"state,omitempty"`
	Author    string    `json:"author"`
	Comments  int       `json:"comments,omitempty"`
	IsPull    bool      `json:"is_pull,omitempty"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRecord is an activity event or a notification.
type EventRecord struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Actor     string    `json:"actor,omitempty"`
	Repo      string    `json:"repo"`
	Title     string    `json:"title,omitempty"`
	Unread    bool      `json:"unread,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
