package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/club-scraper/internal/domain/activity"
	"github.com/riskibarqy/club-scraper/internal/domain/club"
	"github.com/riskibarqy/club-scraper/internal/domain/dataset"
	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
	"github.com/riskibarqy/club-scraper/internal/domain/member"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
	"github.com/riskibarqy/club-scraper/internal/domain/sheet"
	"github.com/riskibarqy/club-scraper/internal/platform/logging"
)

type ClubSyncConfig struct {
	Clubs  *club.Directory
	Teams  member.Teams
	Filter activity.Filter
	// LeaderboardWeeks is how many weeks back to scrape, counting the
	// current week. Defaults to 2.
	LeaderboardWeeks  int
	ManualLeaderboard bool
	Location          *time.Location
	// DryRun reconciles without writing back.
	DryRun bool
}

// DatasetResult summarises one dataset of a sync run.
type DatasetResult struct {
	Dataset     string
	Scraped     int
	Skipped     int
	FieldErrors int
	Stored      int
	Written     int
	Table       [][]string
}

type SyncResult struct {
	Members     DatasetResult
	Activities  DatasetResult
	Leaderboard DatasetResult
	ExecutedAt  time.Time
}

type ClubSyncService struct {
	cfg      ClubSyncConfig
	scraper  ClubScraper
	geocoder Geocoder
	store    sheet.Store
	logger   *logging.Logger
	now      func() time.Time
}

func NewClubSyncService(cfg ClubSyncConfig, scraper ClubScraper, geocoder Geocoder, store sheet.Store, logger *logging.Logger) *ClubSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Clubs == nil {
		cfg.Clubs = club.NewDirectory()
	}
	if cfg.LeaderboardWeeks <= 0 {
		cfg.LeaderboardWeeks = 2
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ClubSyncService{
		cfg:      cfg,
		scraper:  scraper,
		geocoder: geocoder,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ClubSyncService) clock() time.Time {
	return s.now().In(s.cfg.Location)
}

// SyncAll runs members, activities and leaderboard in that order, then
// stamps the execution time. A failing dataset does not stop the others;
// their errors are joined.
func (s *ClubSyncService) SyncAll(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubSyncService.SyncAll")
	defer span.End()

	if err := s.ready(); err != nil {
		return SyncResult{}, err
	}

	var (
		result SyncResult
		errs   []error
	)

	members, roster, err := s.syncMembers(ctx)
	result.Members = members
	if err != nil {
		errs = append(errs, fmt.Errorf("sync members: %w", err))
	}
	if roster == nil {
		// fall back to whatever the store already knows so the other
		// datasets can still be enriched.
		var rerr error
		if roster, rerr = s.storedRoster(ctx); rerr != nil {
			s.logger.WarnContext(ctx, "stored member roster unavailable", "error", rerr)
		}
	}

	activities, fresh, err := s.syncActivities(ctx, roster)
	result.Activities = activities
	if err != nil {
		errs = append(errs, fmt.Errorf("sync activities: %w", err))
	}

	board, err := s.syncLeaderboard(ctx, roster, fresh)
	result.Leaderboard = board
	if err != nil {
		errs = append(errs, fmt.Errorf("sync leaderboard: %w", err))
	}

	result.ExecutedAt = s.clock()
	if !s.cfg.DryRun {
		if err := sheet.Replace(ctx, s.store, sheet.ExecutionTime, sheet.ExecutionStamp(result.ExecutedAt)); err != nil {
			errs = append(errs, fmt.Errorf("%w: write execution time: %v", ErrDependencyUnavailable, err))
		}
	}

	err = errors.Join(errs...)
	recordSpanError(span, err)
	s.logger.InfoContext(ctx, "club sync finished",
		"members_written", result.Members.Written,
		"activities_written", result.Activities.Written,
		"leaderboard_written", result.Leaderboard.Written,
		"failed", err != nil,
	)
	return result, err
}

// SyncMembers reconciles the member roster only.
func (s *ClubSyncService) SyncMembers(ctx context.Context) (DatasetResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubSyncService.SyncMembers")
	defer span.End()

	if err := s.ready(); err != nil {
		return DatasetResult{}, err
	}
	res, _, err := s.syncMembers(ctx)
	recordSpanError(span, err)
	return res, err
}

// SyncActivities reconciles activities, enriching them from the stored
// member roster.
func (s *ClubSyncService) SyncActivities(ctx context.Context) (DatasetResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubSyncService.SyncActivities")
	defer span.End()

	if err := s.ready(); err != nil {
		return DatasetResult{}, err
	}
	roster, err := s.storedRoster(ctx)
	if err != nil {
		return DatasetResult{}, err
	}
	res, _, err := s.syncActivities(ctx, roster)
	recordSpanError(span, err)
	return res, err
}

// SyncLeaderboard reconciles the leaderboard. Manual rows, when enabled,
// are built from a fresh activity scrape that is not written back.
func (s *ClubSyncService) SyncLeaderboard(ctx context.Context) (DatasetResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubSyncService.SyncLeaderboard")
	defer span.End()

	if err := s.ready(); err != nil {
		return DatasetResult{}, err
	}
	roster, err := s.storedRoster(ctx)
	if err != nil {
		return DatasetResult{}, err
	}
	var fresh []activity.Activity
	if s.cfg.ManualLeaderboard {
		fresh, _, err = s.scrapeActivities(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "activity scrape for manual leaderboard failed", "error", err)
		}
	}
	res, err := s.syncLeaderboard(ctx, roster, fresh)
	recordSpanError(span, err)
	return res, err
}

func (s *ClubSyncService) ready() error {
	if s.scraper == nil || s.store == nil {
		return fmt.Errorf("%w: club sync needs a scraper and a sheet store", ErrDependencyUnavailable)
	}
	if len(s.cfg.Clubs.IDs()) == 0 {
		return fmt.Errorf("%w: no clubs configured", ErrInvalidInput)
	}
	return nil
}

func (s *ClubSyncService) syncMembers(ctx context.Context) (DatasetResult, member.Roster, error) {
	incoming, res, scrapeErr := s.scrapeMembers(ctx)

	var merged []member.Member
	schema := member.Schema()
	res, err := reconcile(ctx, s, schema, res, incoming, scrapeErr, reconcileHooks[member.Member]{
		prepare: func(stored, incoming []member.Member) []member.Member {
			return s.geocodeNew(ctx, dataset.NetNew(schema, stored, incoming), incoming)
		},
		done: func(rows []member.Member) { merged = rows },
	})
	if merged == nil {
		return res, nil, err
	}
	return res, member.NewRoster(merged), err
}

func (s *ClubSyncService) syncActivities(ctx context.Context, roster member.Roster) (DatasetResult, []activity.Activity, error) {
	incoming, res, scrapeErr := s.scrapeActivities(ctx)
	res, err := reconcile(ctx, s, activity.Schema(), res, incoming, scrapeErr, reconcileHooks[activity.Activity]{
		enrich: func(rows []activity.Activity) []activity.Activity {
			return activity.Enrich(rows, roster)
		},
	})
	return res, incoming, err
}

func (s *ClubSyncService) syncLeaderboard(ctx context.Context, roster member.Roster, fresh []activity.Activity) (DatasetResult, error) {
	scraped, res, scrapeErr := s.scrapeLeaderboard(ctx)

	var manual []leaderboard.Row
	if s.cfg.ManualLeaderboard && len(fresh) > 0 {
		manual = s.inRange(leaderboard.BuildManual(fresh, s.cfg.Clubs))
	}

	return reconcile(ctx, s, leaderboard.Schema(), res, scraped, scrapeErr, reconcileHooks[leaderboard.Row]{
		prepare: func(stored, incoming []leaderboard.Row) []leaderboard.Row {
			if len(manual) == 0 {
				return incoming
			}
			added := manualAdditions(stored, incoming, manual)
			s.logger.InfoContext(ctx, "manual leaderboard rows added", "count", len(added))
			return append(append([]leaderboard.Row(nil), incoming...), added...)
		},
		enrich: func(rows []leaderboard.Row) []leaderboard.Row {
			return leaderboard.Enrich(rows, roster)
		},
	})
}

// manualAdditions keeps the manual rows the scraped leaderboard does not
// already list. A manual row for a club-week that was not scraped but is
// stored is dropped too, since it would supersede the stored week.
func manualAdditions(stored, scraped, manual []leaderboard.Row) []leaderboard.Row {
	scrapedWeeks := make(map[string]struct{}, len(scraped))
	for _, r := range scraped {
		scrapedWeeks[r.WeekKey()] = struct{}{}
	}
	storedWeeks := make(map[string]struct{}, len(stored))
	for _, r := range stored {
		storedWeeks[r.WeekKey()] = struct{}{}
	}

	candidates := manual[:0:0]
	for _, r := range manual {
		_, live := scrapedWeeks[r.WeekKey()]
		_, kept := storedWeeks[r.WeekKey()]
		if live || !kept {
			candidates = append(candidates, r)
		}
	}
	return dataset.NetNew(leaderboard.Schema(), scraped, candidates)
}

func (s *ClubSyncService) storedRoster(ctx context.Context) (member.Roster, error) {
	table, err := s.store.ReadAll(ctx, member.DatasetName)
	if err != nil {
		return nil, fmt.Errorf("%w: read stored members: %v", ErrDependencyUnavailable, err)
	}
	stored, err := dataset.Decode(member.Schema(), table, s.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("decode stored members: %w", err)
	}
	return member.NewRoster(stored), nil
}

func (s *ClubSyncService) geocodeNew(ctx context.Context, netNew, incoming []member.Member) []member.Member {
	if s.geocoder == nil || len(netNew) == 0 {
		return incoming
	}

	places := make(map[string]member.Member, len(netNew))
	for _, m := range netNew {
		if !m.NeedsGeocoding() {
			continue
		}
		place, found, err := s.geocoder.Geocode(ctx, *m.AthleteLocation)
		if err != nil {
			s.logger.WarnContext(ctx, "geocode member location failed",
				"club_id", m.ClubID,
				"athlete_id", m.AthleteID,
				"location", *m.AthleteLocation,
				"error", err,
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if found {
			places[m.Key()] = m.WithCountry(place.Country, place.CountryCode)
		}
	}

	out := make([]member.Member, len(incoming))
	for i, m := range incoming {
		if geocoded, ok := places[m.Key()]; ok {
			m = geocoded
		}
		out[i] = m
	}
	return out
}

func (s *ClubSyncService) inRange(rows []leaderboard.Row) []leaderboard.Row {
	out := rows[:0:0]
	for _, r := range rows {
		if r.InRange(s.cfg.Filter.From, s.cfg.Filter.Until) {
			out = append(out, r)
		}
	}
	return out
}

type reconcileHooks[T any] struct {
	// prepare adjusts incoming once stored is known.
	prepare func(stored, incoming []T) []T
	enrich  func([]T) []T
	done    func([]T)
}

// reconcile reads the stored dataset, merges incoming into it and writes
// the result back. Nothing is written when the stored rows cannot be read,
// when keys collide, or when the scrape failed and produced no rows.
func reconcile[T any](ctx context.Context, s *ClubSyncService, schema dataset.Schema[T], res DatasetResult, incoming []T, scrapeErr error, hooks reconcileHooks[T]) (DatasetResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubSyncService.reconcile", attribute.String("dataset", schema.Name))
	defer span.End()

	res.Dataset = schema.Name
	if scrapeErr != nil && len(incoming) == 0 {
		err := fmt.Errorf("%w: scrape %s: %v", ErrDependencyUnavailable, schema.Name, scrapeErr)
		recordSpanError(span, err)
		return res, err
	}

	table, err := s.store.ReadAll(ctx, schema.Name)
	if err != nil {
		err = fmt.Errorf("%w: read stored %s: %v", ErrDependencyUnavailable, schema.Name, err)
		recordSpanError(span, err)
		return res, err
	}
	stored, err := dataset.Decode(schema, table, s.cfg.Location)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored dataset unreadable, skipping write-back", "dataset", schema.Name, "error", err)
		recordSpanError(span, err)
		return res, fmt.Errorf("decode stored %s: %w", schema.Name, err)
	}
	res.Stored = len(stored)

	if hooks.prepare != nil {
		incoming = hooks.prepare(stored, incoming)
	}
	merged, err := dataset.Merge(schema, stored, incoming)
	if err != nil {
		s.logger.ErrorContext(ctx, "reconciliation rejected, skipping write-back", "dataset", schema.Name, "error", err)
		recordSpanError(span, err)
		return res, fmt.Errorf("%w: merge %s: %w", ErrDatasetConflict, schema.Name, err)
	}
	if hooks.enrich != nil {
		merged = hooks.enrich(merged)
	}
	if hooks.done != nil {
		hooks.done(merged)
	}

	res.Table = dataset.Encode(schema, merged)
	res.Written = len(merged)
	if s.cfg.DryRun {
		s.logger.InfoContext(ctx, "dry run, not writing dataset", "dataset", schema.Name, "rows", len(merged))
		return res, scrapeErr
	}
	if err := sheet.Replace(ctx, s.store, schema.Name, res.Table); err != nil {
		err = fmt.Errorf("%w: write %s: %v", ErrDependencyUnavailable, schema.Name, err)
		recordSpanError(span, err)
		return res, err
	}

	s.logger.InfoContext(ctx, "dataset reconciled",
		"dataset", schema.Name,
		"scraped", res.Scraped,
		"stored", res.Stored,
		"written", res.Written,
	)
	// a partial scrape still writes what it got, but the caller hears about it.
	return res, scrapeErr
}

// logAssembly reports dropped fields and untyped labels of one record.
func logAssembly[T any](ctx context.Context, logger *logging.Logger, dataset, clubID, recordID string, a record.Assembly[T]) {
	for _, fe := range a.FieldErrors {
		logger.WarnContext(ctx, "field parse failed",
			"dataset", dataset,
			"club_id", clubID,
			"record_id", recordID,
			"field", fe.Field,
			"raw", fe.Raw,
			"error", fe.Err,
		)
	}
	if len(a.Unknown) > 0 {
		logger.DebugContext(ctx, "unknown labels kept untyped",
			"dataset", dataset,
			"club_id", clubID,
			"record_id", recordID,
			"labels", a.Unknown,
			"error", record.ErrUnknownLabel,
		)
	}
}
