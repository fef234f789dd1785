// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package exclusion

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/game-scout/pkg/types"
)

const defaultFailureThreshold = 3

// DomainStat is the accumulated outcome record for one provider/domain pair.
type DomainStat struct {
	Provider    types.Provider `json:"provider" yaml:"provider"`
	Domain      string         `json:"domain" yaml:"domain"`
	Failures    int            `json:"failures" yaml:"failures"`
	Successes   int            `json:"successes" yaml:"successes"`
	LastFailure time.Time      `json:"last_failure,omitempty" yaml:"last_failure,omitempty"`
}

// Excluded reports whether the record crosses threshold failures and at
// least half of its outcomes are failures.
func (s DomainStat) Excluded(threshold int) bool {
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	return s.Failures >= threshold && s.Failures >= s.Successes
}

// Store persists per-domain failure statistics in SQLite.
type Store struct {
	db        *sql.DB
	threshold int
}

// NewStore opens or creates the statistics database at path and creates the
// schema if it does not exist.
func NewStore(path string, threshold int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating exclusion directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	s := &Store{db: db, threshold: threshold}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS domain_stats (
			provider TEXT NOT NULL,
			domain TEXT NOT NULL,
			failures INTEGER NOT NULL DEFAULT 0,
			successes INTEGER NOT NULL DEFAULT 0,
			last_failure TEXT,
			PRIMARY KEY (provider, domain)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_domain_stats_provider ON domain_stats(provider)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordFailure increments the failure count of domain for provider.
func (s *Store) RecordFailure(ctx context.Context, provider types.Provider, domain string) error {
	d := Domain(domain)
	if d == "" {
		return fmt.Errorf("invalid domain %q", domain)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO domain_stats (provider, domain, failures, successes, last_failure)
		 VALUES (?, ?, 1, 0, ?)
		 ON CONFLICT(provider, domain) DO UPDATE SET
			failures = failures + 1, last_failure = excluded.last_failure`,
		string(provider), d, now,
	)
	if err != nil {
		return fmt.Errorf("recording failure for %s: %w", d, err)
	}
	return nil
}

// RecordSuccess increments the success count of domain for provider.
func (s *Store) RecordSuccess(ctx context.Context, provider types.Provider, domain string) error {
	d := Domain(domain)
	if d == "" {
		return fmt.Errorf("invalid domain %q", domain)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO domain_stats (provider, domain, failures, successes)
		 VALUES (?, ?, 0, 1)
		 ON CONFLICT(provider, domain) DO UPDATE SET successes = successes + 1`,
		string(provider), d,
	)
	if err != nil {
		return fmt.Errorf("recording success for %s: %w", d, err)
	}
	return nil
}

// Reset deletes the statistics for domain, or for every domain of provider
// when domain is empty.
func (s *Store) Reset(ctx context.Context, provider types.Provider, domain string) error {
	var err error
	if domain == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM domain_stats WHERE provider = ?`, string(provider))
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM domain_stats WHERE provider = ? AND domain = ?`,
			string(provider), Domain(domain))
	}
	if err != nil {
		return fmt.Errorf("resetting domain stats: %w", err)
	}
	return nil
}

// Stats returns every record for provider, most failures first.
func (s *Store) Stats(ctx context.Context, provider types.Provider) ([]DomainStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, domain, failures, successes, COALESCE(last_failure, '')
		 FROM domain_stats WHERE provider = ?
		 ORDER BY failures DESC, domain ASC`,
		string(provider),
	)
	if err != nil {
		return nil, fmt.Errorf("querying domain stats: %w", err)
	}
	defer rows.Close()

	var stats []DomainStat
	for rows.Next() {
		var st DomainStat
		var p, last string
		if err := rows.Scan(&p, &st.Domain, &st.Failures, &st.Successes, &last); err != nil {
			return nil, fmt.Errorf("scanning domain stats: %w", err)
		}
		st.Provider = types.Provider(p)
		if last != "" {
			if t, err := time.Parse(time.RFC3339Nano, last); err == nil {
				st.LastFailure = t
			}
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// ExcludedDomains returns the domains of provider that cross the failure
// threshold, sorted.
func (s *Store) ExcludedDomains(ctx context.Context, provider types.Provider) ([]string, error) {
	stats, err := s.Stats(ctx, provider)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, st := range stats {
		if st.Excluded(s.threshold) {
			out = append(out, st.Domain)
		}
	}
	return Union(out), nil
}
