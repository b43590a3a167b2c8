package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/club-scraper/internal/domain/dataset"
	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
	"github.com/riskibarqy/club-scraper/internal/domain/sheet"
	"github.com/riskibarqy/club-scraper/internal/domain/week"
	"github.com/riskibarqy/club-scraper/internal/platform/logging"
)

type ReportFormat string

const (
	ReportFormatText     ReportFormat = "text"
	ReportFormatMarkdown ReportFormat = "markdown"
)

func ParseReportFormat(v string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(v))) {
	case "", ReportFormatText:
		return ReportFormatText, nil
	case ReportFormatMarkdown, "md":
		return ReportFormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", ErrInvalidInput, v)
	}
}

// Report is the weekly view over the stored results.
type Report struct {
	GeneratedAt  time.Time
	CurrentWeek  string
	PreviousWeek string
	Current      []leaderboard.WeeklyResult
	Previous     []leaderboard.WeeklyResult
	Summary      []leaderboard.AthleteSummary
	Deltas       []leaderboard.Delta
}

type ReportService struct {
	store    sheet.Store
	results  ResultsRepository
	location *time.Location
	logger   *logging.Logger
	now      func() time.Time
}

func NewReportService(store sheet.Store, results ResultsRepository, location *time.Location, logger *logging.Logger) *ReportService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportService{
		store:    store,
		results:  results,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// ResultKey identifies one athlete's result in one ISO week.
func ResultKey(isoWeek, athleteID string) string {
	return isoWeek + "-" + athleteID
}

// UpdateResults folds the stored leaderboard into the results repository.
// Existing keys are overwritten, others are kept. It returns how many
// results were upserted.
func (s *ReportService) UpdateResults(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.UpdateResults")
	defer span.End()

	if s.store == nil || s.results == nil {
		return 0, fmt.Errorf("%w: report needs a sheet store and a results repository", ErrDependencyUnavailable)
	}

	stored, err := s.store.ReadAll(ctx, leaderboard.DatasetName)
	if err != nil {
		err = fmt.Errorf("%w: read stored leaderboard: %v", ErrDependencyUnavailable, err)
		recordSpanError(span, err)
		return 0, err
	}
	rows, err := dataset.Decode(leaderboard.Schema(), stored, s.location)
	if err != nil {
		recordSpanError(span, err)
		return 0, fmt.Errorf("decode stored leaderboard: %w", err)
	}

	existing, err := s.results.Load(ctx)
	if err != nil {
		err = fmt.Errorf("%w: load results: %v", ErrDependencyUnavailable, err)
		recordSpanError(span, err)
		return 0, err
	}
	if existing == nil {
		existing = make(map[string]leaderboard.WeeklyResult, len(rows))
	}

	for _, r := range rows {
		isoWeek := week.ISOLabel(r.DateStart)
		existing[ResultKey(isoWeek, r.AthleteID)] = leaderboard.ResultOf(r, isoWeek)
	}

	if err := s.results.Save(ctx, existing); err != nil {
		err = fmt.Errorf("%w: save results: %v", ErrDependencyUnavailable, err)
		recordSpanError(span, err)
		return 0, err
	}
	s.logger.InfoContext(ctx, "weekly results updated", "upserted", len(rows), "total", len(existing))
	return len(rows), nil
}

// Build assembles the report for the ISO week containing now and the one
// before it.
func (s *ReportService) Build(ctx context.Context) (Report, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.Build")
	defer span.End()

	if s.results == nil {
		return Report{}, fmt.Errorf("%w: report needs a results repository", ErrDependencyUnavailable)
	}
	stored, err := s.results.Load(ctx)
	if err != nil {
		err = fmt.Errorf("%w: load results: %v", ErrDependencyUnavailable, err)
		recordSpanError(span, err)
		return Report{}, err
	}

	now := s.now().In(s.location)
	report := Report{
		GeneratedAt:  now,
		CurrentWeek:  week.ISOLabel(now),
		PreviousWeek: week.ISOLabel(now.AddDate(0, 0, -7)),
	}

	all := orderedResults(stored)
	for _, r := range all {
		switch r.Week {
		case report.CurrentWeek:
			report.Current = append(report.Current, r)
		case report.PreviousWeek:
			report.Previous = append(report.Previous, r)
		}
	}
	report.Summary = leaderboard.SummarizeByAthlete(all)
	report.Deltas = leaderboard.RankingDelta(names(report.Current), names(report.Previous))
	return report, nil
}

// orderedResults sorts by week, then rank, then athlete id.
func orderedResults(stored map[string]leaderboard.WeeklyResult) []leaderboard.WeeklyResult {
	out := make([]leaderboard.WeeklyResult, 0, len(stored))
	for _, r := range stored {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return dataset.LessID(out[i].AthleteID, out[j].AthleteID)
	})
	return out
}

func names(results []leaderboard.WeeklyResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.AthleteName
	}
	return out
}

// Render writes the report as plain text tables or markdown.
func Render(report Report, format ReportFormat) (string, error) {
	if format != ReportFormatText && format != ReportFormatMarkdown {
		return "", fmt.Errorf("%w: unknown report format %q", ErrInvalidInput, format)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	changes := make(map[string]leaderboard.Change, len(report.Deltas))
	for _, d := range report.Deltas {
		changes[d.AthleteName] = d.Change
	}

	section := func(title string, t table.Writer) {
		if buf.Len() > 0 {
			_ = buf.WriteByte('\n')
		}
		if format == ReportFormatMarkdown {
			_, _ = buf.WriteString("## " + title + "\n\n")
			_, _ = buf.WriteString(t.RenderMarkdown())
		} else {
			_, _ = buf.WriteString(title + "\n")
			_, _ = buf.WriteString(t.Render())
		}
		_ = buf.WriteByte('\n')
	}

	section("Week "+report.CurrentWeek, weekTable(report.Current, changes))
	section("Week "+report.PreviousWeek, weekTable(report.Previous, nil))
	section("Totals", summaryTable(report.Summary))

	return buf.String(), nil
}

func newReportTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func weekTable(results []leaderboard.WeeklyResult, changes map[string]leaderboard.Change) table.Writer {
	t := newReportTable()
	header := table.Row{"Rank", "Athlete", "Activities", "Moving time", "Distance (km)", "Elevation (m)", "Tickets"}
	if changes != nil {
		header = append(header, "")
	}
	t.AppendHeader(header)
	for _, r := range results {
		row := table.Row{
			rankLabel(r.Rank),
			r.AthleteName,
			r.Activities,
			formatDuration(r.MovingTime),
			strconv.FormatFloat(r.Distance/1000, 'f', 1, 64),
			strconv.FormatFloat(r.ElevationGain, 'f', 0, 64),
			r.Tickets,
		}
		if changes != nil {
			row = append(row, changes[r.AthleteName].Glyph())
		}
		t.AppendRow(row)
	}
	return t
}

func summaryTable(summary []leaderboard.AthleteSummary) table.Writer {
	t := newReportTable()
	t.AppendHeader(table.Row{"Athlete", "Weeks", "Activities", "Moving time", "Distance (km)", "Elevation (m)", "Tickets"})
	for _, s := range summary {
		t.AppendRow(table.Row{
			s.AthleteName,
			s.Weeks,
			s.Activities,
			formatDuration(s.MovingTime),
			strconv.FormatFloat(s.Distance/1000, 'f', 1, 64),
			strconv.FormatFloat(s.ElevationGain, 'f', 0, 64),
			s.Tickets,
		})
	}
	return t
}

func rankLabel(rank int64) string {
	if rank == leaderboard.RankUnranked {
		return "-"
	}
	return strconv.FormatInt(rank, 10)
}

// formatDuration renders seconds as "1h 05m".
func formatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0m"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}
