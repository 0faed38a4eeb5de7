package jobclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Navigator moves the user to another view. It is only used on the terminal
// paths: a rejected submission goes home with an error code, a finished job
// goes to the results view.
type Navigator interface {
	Home(ctx context.Context, errorCode string) error
	Results(ctx context.Context) error
}

// OpenFunc receives the absolute URL the user should be sent to.
type OpenFunc func(ctx context.Context, target string) error

// URLNavigator resolves the home and results views against the server root
// and hands the resulting URL to an OpenFunc.
type URLNavigator struct {
	home    *url.URL
	results *url.URL
	open    OpenFunc
}

// NewURLNavigator resolves homePath and resultsPath against baseURL. Empty
// paths fall back to /home and /results/.
func NewURLNavigator(baseURL, homePath, resultsPath string, open OpenFunc) (*URLNavigator, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("jobclient: invalid navigator base url %q", baseURL)
	}
	if open == nil {
		return nil, fmt.Errorf("jobclient: navigator needs an open func")
	}
	if strings.TrimSpace(homePath) == "" {
		homePath = "/home"
	}
	if strings.TrimSpace(resultsPath) == "" {
		resultsPath = "/results/"
	}
	results := base.JoinPath(resultsPath)
	if !strings.HasSuffix(results.Path, "/") {
		results = results.JoinPath("/")
	}
	return &URLNavigator{
		home:    base.JoinPath(homePath),
		results: results,
		open:    open,
	}, nil
}

// HomeURL is <home>/<errorCode>.
func (n *URLNavigator) HomeURL(errorCode string) string {
	return n.home.JoinPath(url.PathEscape(errorCode)).String() + trailingSlashIfEmpty(errorCode)
}

// ResultsURL is <results>/.
func (n *URLNavigator) ResultsURL() string {
	return n.results.String()
}

// Home opens the home view with errorCode.
func (n *URLNavigator) Home(ctx context.Context, errorCode string) error {
	return n.open(ctx, n.HomeURL(errorCode))
}

// Results opens the results view.
func (n *URLNavigator) Results(ctx context.Context) error {
	return n.open(ctx, n.ResultsURL())
}

func trailingSlashIfEmpty(code string) string {
	if code == "" {
		return "/"
	}
	return ""
}
