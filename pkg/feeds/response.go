package feeds

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/google/go-github/github"
)

// listOptions converts a page request into go-github list options.
func listOptions(req pagination.Request) github.ListOptions {
	return github.ListOptions{Page: req.Page, PerPage: req.PerPage}
}

// pageResult turns a go-github list call into a paging result.
// A nil slice on success means the response carried no JSON array.
func pageResult[R any](req pagination.Request, items []R, resp *github.Response, err error) (pagination.Result[R], error) {
	if err != nil {
		return pagination.Result[R]{}, fetchError(err)
	}
	if items == nil {
		return pagination.Result[R]{}, pagination.EmptyBodyError(statusCode(resp))
	}
	return pagination.Result[R]{
		Items:      items,
		TotalPages: totalPages(resp, req.Page),
	}, nil
}

// totalPages derives the page count from the parsed Link header.
func totalPages(resp *github.Response, page int) int {
	if resp == nil {
		return pagination.UnknownTotal
	}
	if resp.LastPage > 0 {
		return resp.LastPage
	}
	if resp.NextPage == 0 && resp.Response != nil && resp.Header.Get("Link") != "" {
		return page
	}
	return pagination.UnknownTotal
}

// fetchError classifies a go-github error.
func fetchError(err error) *pagination.FetchError {
	var (
		errResp  *github.ErrorResponse
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
	)

	switch {
	case errors.As(err, &rateErr):
		return pagination.HTTPError(responseStatus(rateErr.Response, http.StatusForbidden), message(rateErr.Message, http.StatusForbidden))
	case errors.As(err, &abuseErr):
		return pagination.HTTPError(responseStatus(abuseErr.Response, http.StatusForbidden), message(abuseErr.Message, http.StatusForbidden))
	case errors.As(err, &errResp):
		status := responseStatus(errResp.Response, 0)
		return pagination.HTTPError(status, message(errResp.Message, status))
	default:
		return pagination.TransportError(err)
	}
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return http.StatusOK
	}
	return resp.StatusCode
}

func responseStatus(resp *http.Response, fallback int) int {
	if resp == nil {
		return fallback
	}
	return resp.StatusCode
}

func message(msg string, status int) string {
	if msg = strings.TrimSpace(msg); msg != "" {
		return msg
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "request failed"
}
