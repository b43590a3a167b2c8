package stravaweb

import (
	"context"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/club-scraper/internal/domain/fieldparse"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
)

// ClubMembers walks every page of the club's member list.
func (c *Client) ClubMembers(ctx context.Context, clubID string) ([]record.Raw, error) {
	path := "/clubs/" + clubID + "/members"

	var out []record.Raw
	for page := 1; page <= maxMemberPages; page++ {
		doc, err := c.page(ctx, path, map[string]string{"page": strconv.Itoa(page)})
		if err != nil {
			return out, err
		}
		out = append(out, parseMembers(doc, clubID)...)
		if doc.Find("li.next_page a").Length() == 0 {
			break
		}
	}
	return out, nil
}

func parseMembers(doc *goquery.Document, clubID string) []record.Raw {
	var out []record.Raw
	doc.Find("ul.list-athletes > li").Each(func(_ int, li *goquery.Selection) {
		headline := li.Find("div.text-headline").First()
		href, _ := headline.Find("a").First().Attr("href")
		if href == "" {
			return
		}

		raw := record.Raw{ClubID: clubID}
		if id, err := fieldparse.AthleteID(href); err == nil {
			raw.EntityID = id
		}
		raw.Pairs = append(raw.Pairs,
			record.Pair{Label: "athlete_url", Value: href},
			record.Pair{Label: "name", Value: text(headline)},
		)
		if location := li.Find("div.location").First(); location.Length() > 0 {
			raw.Pairs = append(raw.Pairs, record.Pair{Label: "location", Value: text(location)})
		}
		if src, ok := li.Find("img.avatar-img").First().Attr("src"); ok {
			raw.Pairs = append(raw.Pairs, record.Pair{Label: "avatar", Value: src})
		}
		out = append(out, raw)
	})
	return out
}
