package stravaweb

import (
	"context"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/club-scraper/internal/domain/fieldparse"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
)

// ClubLeaderboard reads one week of the club leaderboard table. Headers are
// passed through as labels; their meaning depends on the club's sport.
func (c *Client) ClubLeaderboard(ctx context.Context, clubID string, weekOffset int) ([]record.Raw, error) {
	query := map[string]string{}
	if weekOffset > 0 {
		query["week_offset"] = strconv.Itoa(weekOffset)
	}
	doc, err := c.page(ctx, "/clubs/"+clubID+"/leaderboard", query)
	if err != nil {
		return nil, err
	}
	return parseLeaderboard(doc, clubID), nil
}

func parseLeaderboard(doc *goquery.Document, clubID string) []record.Raw {
	board := doc.Find("div.leaderboard").First()
	if board.Length() == 0 {
		board = doc.Selection
	}
	if board.Find("h4.empty-results").Length() > 0 {
		return nil
	}
	table := board.Find("table.dense").First()
	if table.Length() == 0 {
		return nil
	}

	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, text(th))
	})

	var out []record.Raw
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		raw := record.Raw{ClubID: clubID}
		tr.Find("td").Each(func(i int, td *goquery.Selection) {
			if i >= len(headers) || headers[i] == "" {
				return
			}
			raw.Pairs = append(raw.Pairs, record.Pair{Label: headers[i], Value: text(td)})
		})
		if href, ok := tr.Find(`a[href*="/athletes/"]`).First().Attr("href"); ok {
			raw.Pairs = append(raw.Pairs, record.Pair{Label: "athlete_url", Value: href})
			if id, err := fieldparse.AthleteID(href); err == nil {
				raw.EntityID = id
			}
		}
		if len(raw.Pairs) > 0 {
			out = append(out, raw)
		}
	})
	return out
}
