// Package page analyzes parsed HTML: locating paragraph-like text containers
// under an event target and extracting page metadata.
package page

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	// maxAncestorDepth bounds the upward walk from the event target.
	maxAncestorDepth = 10
	// highConfidenceScore stops the walk early once a candidate reaches it.
	highConfidenceScore = 80
	// minTextLength rejects candidates with less extracted text than this.
	minTextLength = 2
	// maxTextLength bounds what still counts as one readable paragraph.
	maxTextLength = 5000
)

// Locate walks up from n and returns the best-scoring paragraph-like
// ancestor, or nil when nothing within reach qualifies.
//
// Text nodes resolve to their parent element first. At each of at most
// maxAncestorDepth levels the element's whitespace-normalized text is scored;
// the walk stops early at a high-confidence candidate and otherwise returns
// the best one seen.
func Locate(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}

	current := n
	if current.Type == html.TextNode {
		current = current.Parent
	}
	if current == nil || current.Type != html.ElementNode {
		return nil
	}

	var best *html.Node
	bestScore := 0

	for i := 0; i < maxAncestorDepth && current != nil; i++ {
		if current.Type == html.ElementNode {
			text := ExtractText(current)

			if len([]rune(text)) >= minTextLength {
				score := scoreText(text, current.Data)

				if score > bestScore {
					bestScore = score
					best = current
				}

				if score >= highConfidenceScore {
					break
				}
			}
		}

		current = current.Parent
	}

	return best
}

// ExtractText returns the element's text content with runs of whitespace
// collapsed to single spaces and the ends trimmed.
func ExtractText(n *html.Node) string {
	if n == nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(sb.String()), " ")
}

// IsParagraphLike reports whether text has the size of one readable block.
func IsParagraphLike(text string) bool {
	length := len([]rune(text))
	return length >= minTextLength && length <= maxTextLength
}

// scoreText rates text quality for a candidate element, capped at 100.
// Longer text, terminal punctuation and semantic block tags score higher.
func scoreText(text, tag string) int {
	score := 0

	length := len([]rune(text))
	switch {
	case length >= 500:
		score += 80
	case length >= 100:
		score += 40
	case length >= 50:
		score += 20
	case length >= 20:
		score += 10
	}

	score += punctuationBonus(text)
	score += tagBonus(tag)

	if score > 100 {
		score = 100
	}
	return score
}

// punctuationBonus rewards text that ends like a finished sentence. Clause
// punctuation (comma, colon, semicolon) is a lesser signal.
func punctuationBonus(text string) int {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}

	switch runes[len(runes)-1] {
	case '.', '!', '?', '。', '！', '？', '…':
		return 20
	case ',', ';', ':', '，', '；', '：':
		return 10
	}
	return 0
}

// tagBonus rates the element type: headings highest, semantic block tags
// next, inline tags lowest.
func tagBonus(tag string) int {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return 90
	case "p", "div", "article", "section", "li", "blockquote":
		return 80
	case "span", "a":
		return 10
	}
	return 0
}
