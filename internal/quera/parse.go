package quera

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/erfnzdeh/edusync/internal/model"
)

// Selectors matching the deadline cards on the course dashboard.
const (
	selCard   = "div.css-ardi2f"
	selDay    = "span.css-lvorr0"
	selMonth  = "span.css-itvw0n"
	selTitle  = "a.css-15qlil8"
	selCourse = "span.css-x4152s"
)

// parseAssignments extracts raw deadline tuples from the course page.
// Cards with missing fields are skipped individually.
func (c *Client) parseAssignments(doc *goquery.Document) []model.RawAssignment {
	var raws []model.RawAssignment

	doc.Find(selCard).Each(func(_ int, card *goquery.Selection) {
		day := strings.TrimSpace(card.Find(selDay).First().Text())
		month := strings.TrimSpace(card.Find(selMonth).First().Text())

		titleLink := card.Find(selTitle).First()
		title := strings.TrimSpace(titleLink.Text())
		href, _ := titleLink.Attr("href")

		course := strings.TrimSpace(card.Find(selCourse).First().Text())

		if day == "" || month == "" || title == "" || course == "" || href == "" {
			c.log.Warn("skipping incomplete assignment card",
				zap.String("title", title),
				zap.String("course", course),
			)
			return
		}

		raws = append(raws, model.RawAssignment{
			Title:    title,
			Course:   course,
			DateText: day + " " + month,
			Link:     c.baseURL + href,
		})
	})

	return raws
}
