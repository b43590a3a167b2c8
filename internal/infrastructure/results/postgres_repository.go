package results

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
	qb "github.com/riskibarqy/club-scraper/internal/platform/querybuilder"
)

const (
	weeklyResultsTable = "weekly_results"
	upsertBatchSize    = 500
)

var weeklyResultColumns = []string{
	"result_key",
	"iso_week",
	"athlete_id",
	"athlete_name",
	"rank",
	"activities",
	"moving_time",
	"distance",
	"elevation_gain",
	"tickets",
	"updated_at",
}

type weeklyResultTableModel struct {
	Key           string    `db:"result_key"`
	Week          string    `db:"iso_week"`
	AthleteID     string    `db:"athlete_id"`
	AthleteName   string    `db:"athlete_name"`
	Rank          int64     `db:"rank"`
	Activities    int64     `db:"activities"`
	MovingTime    int64     `db:"moving_time"`
	Distance      float64   `db:"distance"`
	ElevationGain float64   `db:"elevation_gain"`
	Tickets       int       `db:"tickets"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type PostgresRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Load(ctx context.Context) (map[string]leaderboard.WeeklyResult, error) {
	query, args, err := qb.Select(weeklyResultColumns...).From(weeklyResultsTable).
		OrderBy("iso_week", "rank").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select weekly results query: %w", err)
	}

	var rows []weeklyResultTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select weekly results: %w", err)
	}

	out := make(map[string]leaderboard.WeeklyResult, len(rows))
	for _, row := range rows {
		out[row.Key] = leaderboard.WeeklyResult{
			Week:          row.Week,
			AthleteID:     row.AthleteID,
			AthleteName:   row.AthleteName,
			Rank:          row.Rank,
			Activities:    row.Activities,
			MovingTime:    row.MovingTime,
			Distance:      row.Distance,
			ElevationGain: row.ElevationGain,
			Tickets:       row.Tickets,
		}
	}
	return out, nil
}

// Save upserts every result by key in one transaction. Stored keys absent
// from results are left alone.
func (r *PostgresRepository) Save(ctx context.Context, results map[string]leaderboard.WeeklyResult) error {
	queries, err := upsertResultsQueries(results, r.now().UTC())
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert weekly results: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q.sql, q.args...); err != nil {
			return fmt.Errorf("upsert weekly results: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert weekly results tx: %w", err)
	}
	return nil
}

type boundQuery struct {
	sql  string
	args []any
}

func upsertResultsQueries(results map[string]leaderboard.WeeklyResult, at time.Time) ([]boundQuery, error) {
	keys := sortedKeys(results)
	out := make([]boundQuery, 0, len(keys)/upsertBatchSize+1)
	for start := 0; start < len(keys); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(keys))

		insert := qb.InsertInto(weeklyResultsTable).Columns(weeklyResultColumns...)
		for _, key := range keys[start:end] {
			res := results[key]
			insert.Values(
				key,
				res.Week,
				res.AthleteID,
				res.AthleteName,
				res.Rank,
				res.Activities,
				res.MovingTime,
				res.Distance,
				res.ElevationGain,
				res.Tickets,
				at,
			)
		}
		insert.OnConflictUpdate([]string{"result_key"}, weeklyResultColumns[1:]...)

		query, args, err := insert.ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build upsert weekly results query: %w", err)
		}
		out = append(out, boundQuery{sql: query, args: args})
	}
	return out, nil
}
