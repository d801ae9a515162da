// Package linkfilter decides which candidate link titles are real content
// articles. Wiki pages link heavily into meta, file and index namespaces;
// those references carry no graph value and are dropped before the frontier
// ever sees them. Rejection here is expected, high-volume behavior, not an
// error.
package linkfilter

import "strings"

// minTitleLength is the shortest title accepted as a content article.
const minTitleLength = 2

// namespacePrefixes are non-content namespaces. Any title carrying one of
// these prefixes is a meta page, not an article.
var namespacePrefixes = []string{
	"Talk:",
	"User:",
	"User talk:",
	"Wikipedia:",
	"Wikipedia talk:",
	"Help:",
	"Category:",
	"Portal:",
	"Template:",
	"Template talk:",
	"Draft:",
	"Special:",
	"Module:",
	"MediaWiki:",
	"TimedText:",
	"Book:",
}

// filePrefixes are media references rendered inline in article bodies.
var filePrefixes = []string{
	"File:",
	"Image:",
	"Media:",
}

// IsContent reports whether title names a content article worth adding to
// the graph.
func IsContent(title string) bool {
	title = strings.TrimSpace(title)
	if len(title) < minTitleLength {
		return false
	}

	for _, prefix := range namespacePrefixes {
		if strings.HasPrefix(title, prefix) {
			return false
		}
	}

	for _, prefix := range filePrefixes {
		if strings.HasPrefix(title, prefix) {
			return false
		}
	}

	// Index articles enumerate other articles; the frontier discovers those
	// targets through their own inbound links instead.
	if strings.HasPrefix(title, "List of ") || strings.HasPrefix(title, "Lists of ") {
		return false
	}

	if strings.HasSuffix(title, "(disambiguation)") {
		return false
	}

	return true
}

// Filter returns the subset of titles that pass IsContent, preserving order.
func Filter(titles []string) []string {
	kept := make([]string, 0, len(titles))
	for _, title := range titles {
		if IsContent(title) {
			kept = append(kept, title)
		}
	}
	return kept
}
