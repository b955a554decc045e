package lessongen

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var lessonPolicy = newLessonHTMLPolicy()

func newLessonHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("section", "article", "aside", "figure", "figcaption")
	policy.AllowAttrs("class").OnElements("section", "article", "aside", "figure", "figcaption", "p", "span", "div", "h2", "h3", "ul", "ol", "li", "blockquote")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// SanitizeLessonHTML strips scripts, styles and unknown markup from generated HTML.
func SanitizeLessonHTML(raw string) string {
	return strings.TrimSpace(lessonPolicy.Sanitize(raw))
}

type HTMLReport struct {
	WordCount       int
	Headings        []string
	MissingHeadings []string
}

// InspectLessonHTML counts words and checks that every planned subsection
// appears as an h2/h3 heading, in order.
func InspectLessonHTML(html string, subsections []string) (HTMLReport, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return HTMLReport{}, err
	}
	rep := HTMLReport{WordCount: countWords(doc)}
	doc.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
		rep.Headings = append(rep.Headings, normalizeHeading(s.Text()))
	})

	pos := 0
	for _, want := range subsections {
		w := normalizeHeading(want)
		found := false
		for i := pos; i < len(rep.Headings); i++ {
			if rep.Headings[i] == w {
				pos = i + 1
				found = true
				break
			}
		}
		if !found {
			rep.MissingHeadings = append(rep.MissingHeadings, want)
		}
	}
	return rep, nil
}

// countWords counts per text node so adjacent blocks do not merge words.
func countWords(doc *goquery.Document) int {
	body := doc.Find("body")
	n := 0
	body.Find("*").AddSelection(body).Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			n += len(strings.Fields(s.Text()))
		}
	})
	return n
}

func normalizeHeading(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
