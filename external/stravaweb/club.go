package stravaweb

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sourcegraph/conc/iter"

	"github.com/riskibarqy/club-scraper/internal/domain/club"
)

// Club reads the club header: name, sport and location.
func (c *Client) Club(ctx context.Context, clubID string) (club.Club, error) {
	doc, err := c.page(ctx, "/clubs/"+clubID, nil)
	if err != nil {
		return club.Club{}, err
	}
	return parseClub(doc, clubID), nil
}

// ResolveClubs fills in name, sport and location for each configured club
// from its page. Values already set on a club are kept. Clubs whose page
// could not be read are returned unchanged alongside the error.
func (c *Client) ResolveClubs(ctx context.Context, clubs []club.Club) ([]club.Club, error) {
	mapper := iter.Mapper[club.Club, club.Club]{MaxGoroutines: c.maxWorkers}
	resolved, err := mapper.MapErr(clubs, func(configured *club.Club) (club.Club, error) {
		scraped, err := c.Club(ctx, configured.ID)
		if err != nil {
			return *configured, fmt.Errorf("club %s: %w", configured.ID, err)
		}
		return mergeClub(*configured, scraped), nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "club profile lookup failed", "error", err)
		return resolved, err
	}
	return resolved, nil
}

func mergeClub(configured, scraped club.Club) club.Club {
	if configured.Name == "" {
		configured.Name = scraped.Name
	}
	if configured.ActivityType == "" {
		configured.ActivityType = scraped.ActivityType
	}
	if configured.Location == "" {
		configured.Location = scraped.Location
	}
	return configured
}

func parseClub(doc *goquery.Document, clubID string) club.Club {
	out := club.Club{ID: clubID}

	// The heading carries badges on following lines.
	heading := strings.TrimSpace(doc.Find("h1.mb-sm").First().Text())
	if name, _, _ := strings.Cut(heading, "\n"); name != "" {
		out.Name = strings.Join(strings.Fields(name), " ")
	}

	location := doc.Find("div.club-meta div.location").First()
	sport := text(location.Find("span.app-icon-wrapper").First())
	out.ActivityType = club.ActivityType(sport)
	out.Location = strings.TrimSpace(strings.TrimPrefix(text(location), sport))
	return out
}
