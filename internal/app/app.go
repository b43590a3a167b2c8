package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/riskibarqy/club-scraper/external/googlesheets"
	"github.com/riskibarqy/club-scraper/external/nominatim"
	"github.com/riskibarqy/club-scraper/external/stravaweb"
	"github.com/riskibarqy/club-scraper/internal/config"
	"github.com/riskibarqy/club-scraper/internal/domain/activity"
	"github.com/riskibarqy/club-scraper/internal/domain/club"
	"github.com/riskibarqy/club-scraper/internal/domain/member"
	"github.com/riskibarqy/club-scraper/internal/domain/sheet"
	geocache "github.com/riskibarqy/club-scraper/internal/infrastructure/cache"
	"github.com/riskibarqy/club-scraper/internal/infrastructure/results"
	"github.com/riskibarqy/club-scraper/internal/infrastructure/sheetstore/memory"
	sheetpg "github.com/riskibarqy/club-scraper/internal/infrastructure/sheetstore/postgres"
	"github.com/riskibarqy/club-scraper/internal/platform/logging"
	"github.com/riskibarqy/club-scraper/internal/platform/resilience"
	"github.com/riskibarqy/club-scraper/internal/usecase"
)

type Options struct {
	DryRun bool
	// SkipClubLookup keeps the configured club metadata instead of reading
	// each club's page.
	SkipClubLookup bool
}

// App holds the wired services for one process run.
type App struct {
	Sync   *usecase.ClubSyncService
	Report *usecase.ReportService

	logger *logging.Logger
	db     *sqlx.DB
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{logger: logger}

	if cfg.StoreBackend == config.StorePostgres {
		db, err := openDB(cfg, logger)
		if err != nil {
			return nil, err
		}
		a.db = db
	}

	store, err := a.sheetStore(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var resultsRepo usecase.ResultsRepository
	if a.db != nil {
		resultsRepo = results.NewPostgresRepository(a.db)
	} else {
		resultsRepo = results.NewFileRepository(cfg.ResultsFile)
	}

	var scraper usecase.ClubScraper
	clubs := cfg.Clubs
	if cfg.StravaSessionCookie != "" {
		client, err := stravaweb.NewClient(stravaweb.ClientConfig{
			BaseURL:           cfg.StravaBaseURL,
			SessionCookie:     cfg.StravaSessionCookie,
			Timeout:           cfg.StravaTimeout,
			MaxRetries:        cfg.StravaMaxRetries,
			MaxWorkers:        cfg.ScrapeMaxWorkers,
			RequestsPerSecond: cfg.StravaRequestRate,
			Logger:            logger,
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("build strava client: %w", err)
		}
		scraper = client
		if !opts.SkipClubLookup {
			// Clubs whose page fails keep their configured metadata.
			clubs, _ = client.ResolveClubs(ctx, clubs)
		}
	} else {
		logger.Warn("strava session cookie not set, scraping disabled")
	}

	var geocoder usecase.Geocoder
	if cfg.GeocoderEnabled {
		geocoder = geocache.NewGeocoder(nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:   cfg.GeocoderBaseURL,
			UserAgent: cfg.GeocoderUserAgent,
			MinDelay:  cfg.GeocoderMinDelay,
			Logger:    logger,
		}), cfg.GeocoderCacheTTL)
	}

	a.Sync = usecase.NewClubSyncService(usecase.ClubSyncConfig{
		Clubs: club.NewDirectory(clubs...),
		Teams: member.Teams(cfg.TeamRoster),
		Filter: activity.Filter{
			Types: cfg.FilterActivityTypes,
			From:  cfg.FilterDateMin,
			Until: cfg.FilterDateMax,
		},
		LeaderboardWeeks:  cfg.LeaderboardWeeks,
		ManualLeaderboard: cfg.LeaderboardManualEnabled,
		Location:          cfg.ReportTimezone,
		DryRun:            opts.DryRun,
	}, scraper, geocoder, store, logger)
	a.Report = usecase.NewReportService(store, resultsRepo, cfg.ReportTimezone, logger)

	logger.Info("app wired",
		"store_backend", cfg.StoreBackend,
		"clubs", len(clubs),
		"scraper", scraper != nil,
		"geocoder", geocoder != nil,
		"dry_run", opts.DryRun,
	)
	return a, nil
}

func (a *App) sheetStore(cfg config.Config) (sheet.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		return sheetpg.NewStore(a.db, cfg.SheetsSpreadsheetID), nil
	case config.StoreSheets:
		client, err := googlesheets.NewClient(googlesheets.ClientConfig{
			BaseURL:       cfg.SheetsBaseURL,
			SpreadsheetID: cfg.SheetsSpreadsheetID,
			Token:         cfg.SheetsToken,
			Timeout:       cfg.SheetsTimeout,
			Retry: resilience.RetryConfig{
				Attempts: cfg.SheetsMaxRetries + 1,
			},
			Breaker: resilience.BreakerConfig{
				Enabled:          cfg.SheetsCircuitEnabled,
				FailureThreshold: cfg.SheetsCircuitFailureCount,
				OpenTimeout:      cfg.SheetsCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SheetsCircuitHalfOpenMaxReq,
			},
			Logger: a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build google sheets client: %w", err)
		}
		return client, nil
	case config.StoreMemory:
		a.logger.Warn("using in-memory sheet store, results are lost on exit")
		return memory.NewStore(nil), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close postgres: %w", err)
	}
	return nil
}
