// Package annotation extracts image-suggestion directives from a model reply.
//
// The model is asked to put directives on lines of their own:
//
//	DIRECT_IMAGE_URL: https://example.com/photo.jpg
//	IMAGE_SEARCH_TERM_1: Kyoto Kinkaku-ji Golden Pavilion
//	IMAGE_SEARCH_TERM_2: Beautiful beaches in Santorini
//
// Matching is by exact, case-sensitive prefix on the trimmed line. A directive
// whose value is missing or unusable stays in the text as an ordinary line.
package annotation

import (
	"strings"
)

const (
	DirectImageURLPrefix = "DIRECT_IMAGE_URL:"
	SearchTerm1Prefix    = "IMAGE_SEARCH_TERM_1:"
	SearchTerm2Prefix    = "IMAGE_SEARCH_TERM_2:"
)

// Kind is the classification of a single reply line
type Kind int

const (
	KindPlainText Kind = iota
	KindDirectImageURL
	KindSearchTerm
)

func (k Kind) String() string {
	switch k {
	case KindPlainText:
		return "plain_text"
	case KindDirectImageURL:
		return "direct_image_url"
	case KindSearchTerm:
		return "search_term"
	default:
		return "unknown"
	}
}

// Line is one classified line of a reply
type Line struct {
	Kind Kind
	// Raw is the line exactly as it appeared in the reply.
	Raw string
	// Value is the extracted URL or search term. Empty for plain text.
	Value string
	// Slot is 1 or 2 for search terms, 0 otherwise.
	Slot int
}

// Dropped reports whether the line is removed from the display text
func (l Line) Dropped() bool {
	return l.Kind != KindPlainText
}

// Result is the outcome of parsing one complete reply
type Result struct {
	DisplayText     string
	DirectImageURLs []string
	SearchTerms     []string
	Lines           []Line
}

// Classify inspects one line. Rules are checked in order and the first match wins.
func Classify(line string) Line {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, DirectImageURLPrefix) {
		url := strings.TrimSpace(strings.TrimPrefix(trimmed, DirectImageURLPrefix))
		if url != "" && (strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")) {
			return Line{Kind: KindDirectImageURL, Raw: line, Value: url}
		}
		return Line{Kind: KindPlainText, Raw: line}
	}

	for slot, prefix := range []string{SearchTerm1Prefix, SearchTerm2Prefix} {
		if !strings.HasPrefix(trimmed, prefix) {
			continue
		}
		term := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
		if term == "" {
			return Line{Kind: KindPlainText, Raw: line}
		}
		return Line{Kind: KindSearchTerm, Raw: line, Value: term, Slot: slot + 1}
	}

	return Line{Kind: KindPlainText, Raw: line}
}

// Parse splits a complete reply into display text, direct image URLs and
// search terms. It must only be called on the fully received reply: a
// directive cut in half by a stream chunk boundary would be misread.
func Parse(reply string) Result {
	rawLines := strings.Split(reply, "\n")

	res := Result{
		DirectImageURLs: []string{},
		SearchTerms:     []string{},
		Lines:           make([]Line, 0, len(rawLines)),
	}

	kept := make([]string, 0, len(rawLines))
	for _, raw := range rawLines {
		line := Classify(raw)
		res.Lines = append(res.Lines, line)

		switch line.Kind {
		case KindDirectImageURL:
			res.DirectImageURLs = append(res.DirectImageURLs, line.Value)
		case KindSearchTerm:
			res.SearchTerms = append(res.SearchTerms, line.Value)
		default:
			kept = append(kept, line.Raw)
		}
	}

	res.DisplayText = strings.TrimSpace(strings.Join(kept, "\n"))
	return res
}

// HasAnnotations reports whether any directive was recognised
func (r Result) HasAnnotations() bool {
	return len(r.DirectImageURLs) > 0 || len(r.SearchTerms) > 0
}
