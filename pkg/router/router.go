// Package router maps inbound path prefixes to upstream API URLs.
package router

import (
	"errors"
	"net/url"
	"strings"
)

// ErrRouteNotFound indicates the first path segment matched no known
// API family.
var ErrRouteNotFound = errors.New("route not found")

// Route binds a path prefix to an upstream base URL.
type Route struct {
	// Prefix is the first path segment, without slashes (e.g. "football-v2").
	Prefix string

	// BaseURL is the upstream base, without a trailing slash
	// (e.g. "https://soccer.sportmonks.com/api/v2.0").
	BaseURL string
}

// Table resolves request paths against an ordered set of routes.
type Table struct {
	routes   []Route
	apiToken string
}

// New creates a routing table. The API token is appended to every
// resolved URL as the api_token query parameter.
func New(routes []Route, apiToken string) *Table {
	return &Table{
		routes:   routes,
		apiToken: apiToken,
	}
}

// Resolve maps an inbound request path and raw query string to the
// fully-qualified upstream URL.
//
// The matched prefix is stripped, the remainder of the path is appended
// to the route's base URL, the original query string is carried over
// verbatim (no reordering: the resolved URL doubles as the cache key)
// and the credential is appended last.
func (t *Table) Resolve(path, rawQuery string) (string, error) {
	segment, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")

	for _, rt := range t.routes {
		if rt.Prefix != segment {
			continue
		}

		var b strings.Builder
		b.WriteString(rt.BaseURL)
		b.WriteString("/")
		b.WriteString(rest)
		if rawQuery != "" {
			b.WriteString("?")
			b.WriteString(rawQuery)
			b.WriteString("&")
		} else {
			b.WriteString("?")
		}
		b.WriteString("api_token=")
		b.WriteString(url.QueryEscape(t.apiToken))

		return b.String(), nil
	}

	return "", ErrRouteNotFound
}
