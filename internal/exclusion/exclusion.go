// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package exclusion supplies per-provider lists of domains the search
// executor should skip: a static deny-list plus domains learned from
// accumulated failure statistics.
package exclusion

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/game-scout/pkg/types"
)

// Source reports the dynamic exclusions currently in force for a provider.
type Source interface {
	ExcludedDomains(ctx context.Context, provider types.Provider) ([]string, error)
}

// Recorder accepts per-domain outcome reports.
type Recorder interface {
	RecordFailure(ctx context.Context, provider types.Provider, domain string) error
	RecordSuccess(ctx context.Context, provider types.Provider, domain string) error
}

// Static is a fixed list applied to every provider.
type Static []string

// ExcludedDomains returns the list unchanged for every provider.
func (s Static) ExcludedDomains(context.Context, types.Provider) ([]string, error) {
	return Union(s), nil
}

// Domain returns the lowercased host of rawURL without a leading "www.".
// Bare hosts ("example.com") are accepted. Returns "" when no host is found.
func Domain(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// Union merges domain lists, normalizing each entry and dropping duplicates.
// The result is sorted.
func Union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, d := range list {
			if n := Domain(d); n != "" {
				seen[n] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
