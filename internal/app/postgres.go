package app

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/club-scraper/internal/config"
	"github.com/riskibarqy/club-scraper/internal/platform/logging"
	"github.com/riskibarqy/club-scraper/internal/platform/querybuilder"
)

const (
	preparedBinaryParam = "disable_prepared_binary_result"
	maxTracedStatement  = 512
)

// postgresTarget is the connection string handed to lib/pq and the database
// it names.
type postgresTarget struct {
	DSN      string
	Database string
}

// resolvePostgres accepts URL ("postgres://...") and keyword/value
// ("host=... dbname=...") connection strings. An explicit
// disable_prepared_binary_result setting is never overridden.
func resolvePostgres(raw string, disablePreparedBinary bool) postgresTarget {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		if disablePreparedBinary {
			query := u.Query()
			if query.Get(preparedBinaryParam) == "" {
				query.Set(preparedBinaryParam, "yes")
				u.RawQuery = query.Encode()
			}
		}
		return postgresTarget{
			DSN:      u.String(),
			Database: strings.TrimPrefix(u.Path, "/"),
		}
	}

	target := postgresTarget{DSN: raw}
	explicit := false
	for _, token := range strings.Fields(raw) {
		key, value, _ := strings.Cut(token, "=")
		switch key {
		case "dbname":
			target.Database = strings.Trim(value, `"'`)
		case preparedBinaryParam:
			explicit = true
		}
	}
	if disablePreparedBinary && !explicit && raw != "" {
		target.DSN += " " + preparedBinaryParam + "=yes"
	}
	return target
}

func openDB(cfg config.Config, logger *logging.Logger) (*sqlx.DB, error) {
	target := resolvePostgres(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", target.DSN,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(target.Database),
		otelsql.WithQueryFormatter(func(query string) string {
			return querybuilder.Compact(query, maxTracedStatement)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres %q: %w", target.Database, err)
	}
	db.SetMaxOpenConns(4)
	logger.Info("postgres store opened", "database", target.Database)
	return db, nil
}
