package wiki

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/graphweave/internal/domain"
)

// ParsePage extracts sections, outbound wiki links and categories from
// Parsoid-rendered article HTML. Link targets come from rel="mw:WikiLink"
// anchors; categories from rel="mw:PageProp/Category" link elements.
func ParsePage(title string, r io.Reader) (*domain.Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	page := &domain.Page{
		Title:      title,
		Sections:   extractSections(doc),
		Links:      extractLinks(doc),
		Categories: extractCategories(doc),
	}

	return page, nil
}

// extractSections splits the article body on h2 headings. Text before the
// first heading becomes the lead section with an empty heading.
func extractSections(doc *goquery.Document) []domain.Section {
	var sections []domain.Section

	current := domain.Section{}
	var text strings.Builder

	flush := func() {
		body := strings.TrimSpace(text.String())
		if body != "" || current.Heading != "" {
			current.Text = body
			sections = append(sections, current)
		}
		text.Reset()
	}

	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		// Parsoid wraps each section in a <section> element.
		if goquery.NodeName(s) == "section" {
			s.Children().Each(func(_ int, child *goquery.Selection) {
				appendSectionNode(child, &current, &text, flush)
			})
			return
		}
		appendSectionNode(s, &current, &text, flush)
	})
	flush()

	return sections
}

// appendSectionNode folds one top-level node into the running section.
func appendSectionNode(
	s *goquery.Selection,
	current *domain.Section,
	text *strings.Builder,
	flush func(),
) {
	switch goquery.NodeName(s) {
	case "h2", "h3":
		flush()
		*current = domain.Section{Heading: strings.TrimSpace(s.Text())}
	case "p", "ul", "ol", "blockquote":
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(strings.TrimSpace(s.Text()))
	}
}

// extractLinks returns the outbound article titles referenced by wiki links,
// in document order, unescaped and with underscores restored to spaces.
func extractLinks(doc *goquery.Document) []string {
	var links []string

	doc.Find(`a[rel~="mw:WikiLink"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if title := hrefToTitle(href); title != "" {
			links = append(links, title)
		}
	})

	return links
}

// extractCategories returns the article's category names without the
// namespace prefix.
func extractCategories(doc *goquery.Document) []string {
	var categories []string

	doc.Find(`link[rel~="mw:PageProp/Category"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		title := hrefToTitle(href)
		categories = append(categories, strings.TrimPrefix(title, "Category:"))
	})

	return categories
}

// hrefToTitle converts a Parsoid relative href ("./Alan_Turing#Legacy") to
// a plain article title ("Alan Turing").
func hrefToTitle(href string) string {
	href = strings.TrimPrefix(href, "./")

	if idx := strings.IndexByte(href, '#'); idx >= 0 {
		href = href[:idx]
	}

	decoded, err := url.PathUnescape(href)
	if err != nil {
		decoded = href
	}

	return strings.TrimSpace(strings.ReplaceAll(decoded, "_", " "))
}
