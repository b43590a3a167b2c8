package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/club-scraper/internal/domain/activity"
	"github.com/riskibarqy/club-scraper/internal/domain/club"
	"github.com/riskibarqy/club-scraper/internal/domain/dataset"
	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
	"github.com/riskibarqy/club-scraper/internal/domain/member"
	"github.com/riskibarqy/club-scraper/internal/domain/week"
)

// scrapeMembers assembles the member cards of every configured club.
// Clubs that fail to scrape are reported in the joined error; the others
// still contribute.
func (s *ClubSyncService) scrapeMembers(ctx context.Context) ([]member.Member, DatasetResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubSyncService.scrapeMembers")
	defer span.End()

	res := DatasetResult{Dataset: member.DatasetName}
	observed := s.clock()
	repeats := newRepeats(member.Schema())

	var (
		out  []member.Member
		errs []error
	)
	for _, clubID := range s.cfg.Clubs.IDs() {
		c, _ := s.cfg.Clubs.Get(clubID)
		raws, err := s.scraper.ClubMembers(ctx, clubID)
		if err != nil {
			errs = append(errs, fmt.Errorf("club %s: %w", clubID, err))
			s.logger.WarnContext(ctx, "scrape club members failed", "club_id", clubID, "error", err)
			continue
		}
		for _, raw := range raws {
			a, err := member.Assemble(raw, c, observed, s.cfg.Teams)
			logAssembly(ctx, s.logger, member.DatasetName, clubID, a.Record.AthleteID, a)
			res.FieldErrors += len(a.FieldErrors)
			if err != nil {
				res.Skipped++
				s.logAssemblyFailure(ctx, member.DatasetName, clubID, raw.EntityID, err)
				continue
			}
			// the members page repeats admins at the top.
			if repeats.seen(a.Record) {
				continue
			}
			out = append(out, a.Record)
		}
	}

	res.Scraped = len(out)
	err := errors.Join(errs...)
	recordSpanError(span, err)
	return out, res, err
}

// scrapeActivities assembles every club's recent activities and applies the
// configured type and date filter.
func (s *ClubSyncService) scrapeActivities(ctx context.Context) ([]activity.Activity, DatasetResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubSyncService.scrapeActivities")
	defer span.End()

	res := DatasetResult{Dataset: activity.DatasetName}
	now := s.clock()
	repeats := newRepeats(activity.Schema())

	var (
		out  []activity.Activity
		errs []error
	)
	for _, clubID := range s.cfg.Clubs.IDs() {
		raws, err := s.scraper.ClubActivities(ctx, clubID)
		if err != nil {
			errs = append(errs, fmt.Errorf("club %s: %w", clubID, err))
			s.logger.WarnContext(ctx, "scrape club activities failed", "club_id", clubID, "error", err)
			continue
		}
		for _, raw := range raws {
			a, err := activity.Assemble(raw, now)
			logAssembly(ctx, s.logger, activity.DatasetName, clubID, a.Record.ActivityID, a)
			res.FieldErrors += len(a.FieldErrors)
			if err != nil {
				res.Skipped++
				s.logAssemblyFailure(ctx, activity.DatasetName, clubID, raw.EntityID, err)
				continue
			}
			if !s.cfg.Filter.Match(a.Record) {
				res.Skipped++
				continue
			}
			if repeats.seen(a.Record) {
				continue
			}
			out = append(out, a.Record)
		}
	}

	res.Scraped = len(out)
	err := errors.Join(errs...)
	recordSpanError(span, err)
	return out, res, err
}

// scrapeLeaderboard reads LeaderboardWeeks weeks of every club's
// leaderboard, newest first.
func (s *ClubSyncService) scrapeLeaderboard(ctx context.Context) ([]leaderboard.Row, DatasetResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubSyncService.scrapeLeaderboard",
		attribute.Int("weeks", s.cfg.LeaderboardWeeks),
	)
	defer span.End()

	res := DatasetResult{Dataset: leaderboard.DatasetName}
	now := s.clock()

	var (
		out  []leaderboard.Row
		errs []error
	)
	for _, clubID := range s.cfg.Clubs.IDs() {
		c, _ := s.cfg.Clubs.Get(clubID)
		for offset := 0; offset < s.cfg.LeaderboardWeeks; offset++ {
			w := week.CurrentWeekOffset(now, offset)
			rows, err := s.scrapeLeaderboardWeek(ctx, c, w, offset, &res)
			if err != nil {
				errs = append(errs, fmt.Errorf("club %s week %s: %w", clubID, w.Label(), err))
				s.logger.WarnContext(ctx, "scrape club leaderboard failed",
					"club_id", clubID,
					"leaderboard_week", w.Label(),
					"error", err,
				)
				continue
			}
			out = append(out, rows...)
		}
	}

	res.Scraped = len(out)
	err := errors.Join(errs...)
	recordSpanError(span, err)
	return out, res, err
}

func (s *ClubSyncService) scrapeLeaderboardWeek(ctx context.Context, c club.Club, w week.Week, offset int, res *DatasetResult) ([]leaderboard.Row, error) {
	raws, err := s.scraper.ClubLeaderboard(ctx, c.ID, offset)
	if err != nil {
		return nil, err
	}

	repeats := newRepeats(leaderboard.Schema())
	out := make([]leaderboard.Row, 0, len(raws))
	for _, raw := range raws {
		a, err := leaderboard.Assemble(raw, c, w)
		logAssembly(ctx, s.logger, leaderboard.DatasetName, c.ID, a.Record.AthleteID, a)
		res.FieldErrors += len(a.FieldErrors)
		if err != nil {
			res.Skipped++
			s.logAssemblyFailure(ctx, leaderboard.DatasetName, c.ID, raw.EntityID, err)
			continue
		}
		if repeats.seen(a.Record) {
			continue
		}
		out = append(out, a.Record)
	}
	return out, nil
}

// repeats collapses records that were scraped twice with identical cells.
// Two records under one key with different cells are both kept so the
// merge rejects the dataset.
type repeats[T any] struct {
	schema dataset.Schema[T]
	first  map[string][]string
}

func newRepeats[T any](schema dataset.Schema[T]) *repeats[T] {
	return &repeats[T]{schema: schema, first: make(map[string][]string)}
}

func (r *repeats[T]) seen(row T) bool {
	key := r.schema.UniqueKey(row)
	cells := r.schema.Encode(row)
	first, ok := r.first[key]
	if !ok {
		r.first[key] = cells
		return false
	}
	return slices.Equal(first, cells)
}

func (s *ClubSyncService) logAssemblyFailure(ctx context.Context, dataset, clubID, recordID string, err error) {
	s.logger.WarnContext(ctx, "record dropped",
		"dataset", dataset,
		"club_id", clubID,
		"record_id", recordID,
		"error", err,
	)
}
