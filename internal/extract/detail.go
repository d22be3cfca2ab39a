package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"lianbo/internal/ports"
)

// ErrExhausted signals that no strategy produced usable content.
var ErrExhausted = errors.New("extract: all detail strategies exhausted")

// loadMorePlaceholder is what empty video containers render before the
// client-side script fills them in.
const loadMorePlaceholder = "加载更多"

// contentSelectors is the known-container cascade for transcript bodies,
// in priority order. The tail entries cover video-description pages.
var contentSelectors = []string{
	".cnt_bd",
	"#content_body",
	".article-body",
	".content",
	".main-content",
	".article_content",
	".news-content",
	".text-content",
	".content-article",
	"#content",
	".detail-content",
	".articleDetail",
	".newsText",
	".text",
	".article",
	".allcontent",
	".video-info",
	".video-description",
	".video-content",
}

// contentFields are the content-bearing keys tried against contentid API
// responses, in order.
var contentFields = []string{"content", "description", "body", "text", "intro"}

func contentAPIURLs(contentID string) []string {
	return []string{
		"https://api.cctv.com/video/detail?id=" + contentID,
		"https://vdn.apps.cntv.cn/api/getHttpVideoInfo.do?pid=" + contentID,
		"https://api.cctv.com/content/article/" + contentID,
	}
}

// DetailExtractor pulls the cleaned transcript body out of an item-detail
// page via a cascade of fallback strategies. The fetcher is only used by the
// contentid API strategy.
type DetailExtractor struct {
	fetcher ports.Fetcher
	logger  *slog.Logger
}

// NewDetailExtractor wires the fetcher used for contentid API lookups.
func NewDetailExtractor(fetcher ports.Fetcher, logger *slog.Logger) *DetailExtractor {
	return &DetailExtractor{fetcher: fetcher, logger: logger}
}

// Extract runs the strategy cascade over the raw page and applies the cleanup
// pass to the winning result. It returns ErrExhausted when nothing usable
// could be found.
func (d *DetailExtractor) Extract(ctx context.Context, page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse detail page: %w", err)
	}

	content := d.selectorCascade(doc)

	if needsMore(content) {
		content = d.contentIDFallback(ctx, doc, content)
	}
	if needsMore(content) {
		content = paragraphConcat(doc, content)
	}
	if needsMore(content) {
		content = wholeDocumentStrip(doc)
	}
	if needsMore(content) {
		content = summaryContainer(doc, content)
	}
	if needsMore(content) {
		content = articleTag(doc, content)
	}
	if needsMore(content) {
		content = contentIDSubstring(doc, content)
	}
	if needsMore(content) {
		content = d.readabilityFallback(page, content)
	}

	if content == "" {
		return "", ErrExhausted
	}

	return CleanContent(content), nil
}

// needsMore gates the fall-through between strategies.
func needsMore(content string) bool {
	return content == "" || strings.TrimSpace(content) == loadMorePlaceholder
}

// longEnough is the shared acceptance length check. Exactly 50 runes is
// still too short.
func longEnough(text string) bool {
	return utf8.RuneCountInString(text) > 50
}

func (d *DetailExtractor) selectorCascade(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		text := selectionText(container)
		if text != "" && strings.TrimSpace(text) != loadMorePlaceholder && longEnough(text) {
			d.debug("selector matched", "selector", sel)
			return text
		}
	}
	return ""
}

// contentIDFallback reads the page's contentid metadata tag and tries the
// known API endpoints built from it, treating each response first as
// structured data, then as markup.
func (d *DetailExtractor) contentIDFallback(ctx context.Context, doc *goquery.Document, content string) string {
	contentID, ok := doc.Find(`meta[name="contentid"]`).First().Attr("content")
	if !ok || contentID == "" || d.fetcher == nil {
		return content
	}
	d.debug("trying contentid APIs", "contentid", contentID)

	for _, apiURL := range contentAPIURLs(contentID) {
		body, err := d.fetcher.Fetch(ctx, apiURL)
		if err != nil {
			continue
		}

		var payload map[string]any
		if json.Unmarshal([]byte(body), &payload) == nil {
			for _, field := range contentFields {
				if v, ok := payload[field]; ok && v != nil {
					if s := fmt.Sprintf("%v", v); s != "" {
						return s
					}
				}
			}
			continue
		}

		apiDoc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			continue
		}
		if text := selectionText(apiDoc.Selection); longEnough(text) {
			return text
		}
	}

	return content
}

// paragraphConcat joins the text of every paragraph element.
func paragraphConcat(doc *goquery.Document, content string) string {
	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := selectionText(p); text != "" {
			parts = append(parts, text)
		}
	})
	joined := strings.Join(parts, "\n")
	if longEnough(joined) {
		return joined
	}
	return content
}

// wholeDocumentStrip removes non-content elements and takes everything that
// remains visible. Accepted without a length check; the document is mutated,
// which is fine because later strategies only want content-bearing nodes.
func wholeDocumentStrip(doc *goquery.Document) string {
	doc.Find("script,style,iframe,nav,header,footer,aside").Remove()
	return selectionText(doc.Selection)
}

// summaryContainer keeps only substantial lines from the video-summary
// container.
func summaryContainer(doc *goquery.Document, content string) string {
	container := doc.Find("div.allcontent").First()
	if container.Length() == 0 {
		return content
	}
	var lines []string
	for _, line := range strings.Split(selectionText(container), "\n") {
		if utf8.RuneCountInString(line) > 10 {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return content
	}
	return strings.Join(lines, "\n")
}

func articleTag(doc *goquery.Document, content string) string {
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return content
	}
	if text := selectionText(article); longEnough(text) {
		return text
	}
	return content
}

// contentIDSubstring takes the first div whose id mentions "content".
func contentIDSubstring(doc *goquery.Document, content string) string {
	result := content
	doc.Find("div[id]").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		id, _ := div.Attr("id")
		if !strings.Contains(strings.ToLower(id), "content") {
			return true
		}
		if text := selectionText(div); longEnough(text) {
			result = text
			return false
		}
		return true
	})
	return result
}

var siteOriginURL, _ = url.Parse(SiteOrigin)

// readabilityFallback is the last resort: a generic article extraction over
// the original page markup.
func (d *DetailExtractor) readabilityFallback(page string, content string) string {
	article, err := readability.FromReader(strings.NewReader(page), siteOriginURL)
	if err != nil {
		return content
	}
	if text := strings.TrimSpace(article.TextContent); longEnough(text) {
		d.debug("readability fallback matched")
		return text
	}
	return content
}

// selectionText collects the stripped text nodes under a selection joined by
// newlines, skipping whitespace-only nodes.
func selectionText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

func (d *DetailExtractor) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
