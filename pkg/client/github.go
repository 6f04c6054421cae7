package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/github"
)

// NewGitHubClient wraps httpClient in a go-github client. baseURL selects a
// GitHub Enterprise or test server; empty means api.github.com.
func NewGitHubClient(httpClient *http.Client, baseURL string) (*github.Client, error) {
	gh := github.NewClient(httpClient)
	if baseURL == "" {
		return gh, nil
	}

	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", baseURL)
	}
	gh.BaseURL = u
	return gh, nil
}
