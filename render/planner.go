package render

import (
	"fmt"
	"net/url"

	"github.com/nachoal/bolt-agent-go/annotation"
)

// MaxInlineImages is the number of direct image URLs shown per reply.
const MaxInlineImages = 2

// imageSearchBase is the Google Images query endpoint used for search links.
const imageSearchBase = "https://www.google.com/search?tbm=isch&q="

// Image is an inline image candidate with its caption.
type Image struct {
	URL     string
	Caption string
}

// SearchLink is a clickable image search for a suggested term.
type SearchLink struct {
	Term string
	URL  string
}

// Plan is the presentation-neutral description of one assistant reply.
type Plan struct {
	DisplayText string
	Images      []Image
	SearchLinks []SearchLink
	// Dropped counts direct image URLs beyond MaxInlineImages.
	Dropped int
}

// HasMedia reports whether the plan shows anything besides the text.
func (p Plan) HasMedia() bool {
	return len(p.Images) > 0 || len(p.SearchLinks) > 0
}

// Planner turns parsed replies into plans.
type Planner struct {
	BotName string
}

// NewPlanner creates a planner captioning single images with botName.
func NewPlanner(botName string) Planner {
	return Planner{BotName: botName}
}

// Plan builds the render plan for a parsed reply.
func (p Planner) Plan(res annotation.Result) Plan {
	plan := Plan{
		DisplayText: res.DisplayText,
		Images:      []Image{},
		SearchLinks: []SearchLink{},
	}

	urls := res.DirectImageURLs
	if len(urls) > MaxInlineImages {
		plan.Dropped = len(urls) - MaxInlineImages
		urls = urls[:MaxInlineImages]
	}

	switch len(urls) {
	case 1:
		plan.Images = append(plan.Images, Image{URL: urls[0], Caption: fmt.Sprintf("%s's Visual Suggestion!", p.BotName)})
	case 2:
		for i, u := range urls {
			plan.Images = append(plan.Images, Image{URL: u, Caption: fmt.Sprintf("Visual %d", i+1)})
		}
	}

	for _, term := range res.SearchTerms {
		plan.SearchLinks = append(plan.SearchLinks, SearchLink{Term: term, URL: SearchURL(term)})
	}

	return plan
}

// SearchURL returns the image search URL for term.
func SearchURL(term string) string {
	return imageSearchBase + url.QueryEscape(term)
}
