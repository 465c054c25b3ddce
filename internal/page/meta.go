package page

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Meta is the page metadata attached to agent contexts.
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExtractMeta pulls the document title and meta description.
func ExtractMeta(doc *goquery.Document) Meta {
	meta := Meta{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	doc.Find(`meta[name="description"], meta[property="og:description"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if content, ok := sel.Attr("content"); ok {
			meta.Description = strings.TrimSpace(content)
			return meta.Description == ""
		}
		return true
	})

	return meta
}

// MetaCache computes metadata once per document and reuses it for the page's
// lifetime.
type MetaCache struct {
	mu    sync.Mutex
	cache map[*html.Node]Meta
}

// NewMetaCache creates an empty cache.
func NewMetaCache() *MetaCache {
	return &MetaCache{cache: make(map[*html.Node]Meta)}
}

// Get returns the metadata for root, extracting it on first use.
func (c *MetaCache) Get(root *html.Node) Meta {
	c.mu.Lock()
	defer c.mu.Unlock()

	if meta, ok := c.cache[root]; ok {
		return meta
	}

	meta := ExtractMeta(goquery.NewDocumentFromNode(root))
	c.cache[root] = meta
	return meta
}
