package stravaweb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/club-scraper/internal/domain/fieldparse"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
)

const feedEntries = "100"

// ClubActivities lists the activity ids in the club feed and scrapes each
// activity page. Pages that fail are left out and reported together with
// the records that were read.
func (c *Client) ClubActivities(ctx context.Context, clubID string) ([]record.Raw, error) {
	feed, err := c.page(ctx, "/dashboard", map[string]string{
		"club_id":     clubID,
		"feed_type":   "club",
		"num_entries": feedEntries,
	})
	if err != nil {
		return nil, err
	}
	ids := parseFeedActivityIDs(feed)
	if len(ids) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(min(c.maxWorkers, len(ids)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	records := make([]*record.Raw, len(ids))
	errs := make([]error, len(ids))

	var workers sync.WaitGroup
	for i, id := range ids {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			doc, err := c.page(ctx, "/activities/"+id, nil)
			if err != nil {
				errs[i] = fmt.Errorf("activity %s: %w", id, err)
				return
			}
			raw := parseActivityPage(doc, clubID, id)
			records[i] = &raw
		}); err != nil {
			workers.Done()
			errs[i] = fmt.Errorf("submit activity %s: %w", id, err)
		}
	}
	workers.Wait()

	out := make([]record.Raw, 0, len(ids))
	for _, raw := range records {
		if raw != nil {
			out = append(out, *raw)
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.WarnContext(ctx, "some activity pages failed", "club_id", clubID, "read", len(out), "total", len(ids), "error", err)
		return out, err
	}
	return out, nil
}

// parseFeedActivityIDs returns the distinct activity ids linked from feed
// entries, ascending.
func parseFeedActivityIDs(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	doc.Find(`[data-testid="activity_entry_container"]`).Each(func(_ int, entry *goquery.Selection) {
		links := entry.Find(`a[href*="/activities/"]`)
		if links.Length() == 0 {
			links = entry.ParentsFiltered(`[data-testid="web-feed-entry"]`).Find(`a[href*="/activities/"]`)
		}
		links.Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if id, err := fieldparse.ActivityID(href); err == nil {
				seen[id] = struct{}{}
			}
		})
	})

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var titleSeparator = regexp.MustCompile(`\s+[–—-]\s+`)

func parseActivityPage(doc *goquery.Document, clubID, activityID string) record.Raw {
	raw := record.Raw{ClubID: clubID, EntityID: activityID}
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			raw.Pairs = append(raw.Pairs, record.Pair{Label: label, Value: value})
		}
	}

	// "Athlete Name – Ride" with an optional third "Commute" part.
	parts := titleSeparator.Split(text(doc.Find("span.title").First()), -1)
	if len(parts) > 0 {
		add("athlete", parts[0])
	}
	if len(parts) > 1 {
		add("type", parts[1])
	}
	if len(parts) > 2 {
		add("commute", parts[2])
	}

	details := doc.Find("div.details-container").First()
	add("date", text(details.Find("time").First()))
	if href, ok := details.Find(`a[href*="/athletes/"]`).First().Attr("href"); ok {
		add("athlete_url", href)
	}
	add("name", text(details.Find("h1").First()))
	add("description", text(details.Find("div.content").First()))
	add("location", text(details.Find("span.location").First()))

	// Each stat renders its value before its label. A stat without a label
	// leaves an unpaired token and is skipped.
	doc.Find("ul.inline-stats > li").Each(func(_ int, li *goquery.Selection) {
		var tokens []string
		li.Find("strong, .label").Each(func(_ int, sel *goquery.Selection) {
			if t := text(sel); t != "" {
				tokens = append(tokens, t)
			}
		})
		pairs, _ := record.FromTokens(tokens, record.ValueFirst)
		for _, pair := range pairs {
			add(pair.Label, pair.Value)
		}
	})

	for _, pair := range parseMoreStats(doc.Find("div.more-stats").First()) {
		add(pair.Label, pair.Value)
	}

	add("device", text(doc.Find("div.device-section div.device").First()))
	add("kudos", text(doc.Find(`[data-testid="kudos_count"]`).First()))
	return raw
}

// parseMoreStats reads the expanded stats table. Rows with an average and a
// maximum column, like "Speed 25.1km/h 52.3km/h", become "Avg Speed" and
// "Max Speed".
func parseMoreStats(section *goquery.Selection) []record.Pair {
	var out []record.Pair
	section.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		label := text(tr.Find("th").First())
		if label == "" {
			return
		}
		var values []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			values = append(values, text(td))
		})
		switch len(values) {
		case 0:
		case 1:
			out = append(out, record.Pair{Label: label, Value: values[0]})
		default:
			out = append(out,
				record.Pair{Label: "Avg " + label, Value: values[0]},
				record.Pair{Label: "Max " + label, Value: values[1]},
			)
		}
	})
	return out
}
