package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lianbo/internal/domain"
)

// SiteOrigin is the fixed origin relative links resolve against.
const SiteOrigin = "https://tv.cctv.com"

// DayURLs returns the candidate day-page URL shapes in priority order. The
// day subdirectory form works for historical dates the flat form 404s on.
func DayURLs(date string) []string {
	compact := strings.ReplaceAll(date, "-", "")
	return []string{
		fmt.Sprintf("%s/lm/xwlb/day/%s.shtml", SiteOrigin, compact),
		fmt.Sprintf("%s/lm/xwlb/%s.shtml", SiteOrigin, compact),
		fmt.Sprintf("%s/lm/xwlb/%s-1.shtml", SiteOrigin, compact),
		fmt.Sprintf("%s/lm/xwlb/index.shtml?date=%s", SiteOrigin, compact),
	}
}

type rawItem struct {
	title string
	link  string
}

// ExtractList locates the day's news items via a cascade of scan strategies,
// stopping at the first strategy that yields at least one usable item. Items
// come back renumbered 1..n in extraction order. The result is never empty:
// the final strategy synthesizes a single item from the page title.
func ExtractList(doc *goquery.Document, date string) []domain.NewsItem {
	strategies := []func(*goquery.Document) []rawItem{
		scanKnownLists,
		scanGenericContainers,
		scanHeuristicLinks,
		scanKeywordLinks,
	}

	for _, scan := range strategies {
		if items := collect(scan(doc)); len(items) > 0 {
			return items
		}
	}

	return []domain.NewsItem{titleFallback(doc, date)}
}

// collect applies the shared filter and cleaning to raw candidates and
// renumbers the survivors.
func collect(raw []rawItem) []domain.NewsItem {
	var items []domain.NewsItem
	for _, r := range raw {
		if r.link == "" || r.title == "" {
			continue
		}
		if IsFullProgram(r.title) {
			continue
		}
		items = append(items, domain.NewsItem{
			Index: len(items) + 1,
			Title: CleanTitle(r.title),
			Link:  absoluteLink(r.link),
		})
	}
	return items
}

func absoluteLink(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return SiteOrigin + href
}

// scanKnownLists walks the list containers the site has used historically,
// one anchor per list entry.
func scanKnownLists(doc *goquery.Document) []rawItem {
	var raw []rawItem
	for _, sel := range []string{"ul.rililist", "ul#content", "ul.news-items"} {
		doc.Find(sel).First().Find("li").Each(func(_ int, li *goquery.Selection) {
			a := li.Find("a").First()
			if a.Length() == 0 {
				return
			}
			href, _ := a.Attr("href")
			raw = append(raw, rawItem{title: strings.TrimSpace(a.Text()), link: href})
		})
	}
	return raw
}

// scanGenericContainers applies the same anchor extraction to a broader set
// of div-like containers under alternate class/id names.
func scanGenericContainers(doc *goquery.Document) []rawItem {
	var raw []rawItem
	selectors := []string{
		"div.news-list", "div#news-list", "div.list-content",
		"div.content-list", "div.video-list", "div#video-list",
	}
	for _, sel := range selectors {
		doc.Find(sel).First().Find("a").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			raw = append(raw, rawItem{title: strings.TrimSpace(a.Text()), link: href})
		})
	}
	return raw
}

// scanHeuristicLinks keeps any anchor whose href looks like a news or video
// detail page.
func scanHeuristicLinks(doc *goquery.Document) []rawItem {
	var raw []rawItem
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		title := strings.TrimSpace(a.Text())
		if href == "" || title == "" {
			return
		}
		if strings.Contains(href, "news") || strings.Contains(href, "video") || strings.Contains(href, "VID") {
			raw = append(raw, rawItem{title: title, link: href})
		}
	})
	return raw
}

var listKeywords = []string{"新闻联播", "视频", "联播快讯", "央视网"}

// scanKeywordLinks keeps anchors whose title or href mentions one of the
// program keywords.
func scanKeywordLinks(doc *goquery.Document) []rawItem {
	var raw []rawItem
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		title := strings.TrimSpace(a.Text())
		if href == "" || title == "" {
			return
		}
		for _, kw := range listKeywords {
			if strings.Contains(title, kw) || strings.Contains(href, kw) {
				raw = append(raw, rawItem{title: title, link: href})
				return
			}
		}
	})
	return raw
}

// titleFallback synthesizes exactly one item from the page <title>. When that
// title is itself the aggregate-broadcast marker a generated placeholder is
// used instead.
func titleFallback(doc *goquery.Document, date string) domain.NewsItem {
	link := DayURLs(date)[0]

	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
	if pageTitle == "" {
		pageTitle = fmt.Sprintf("%s 新闻联播", date)
	}

	if IsFullProgram(pageTitle) {
		return domain.NewsItem{
			Index: 1,
			Title: fmt.Sprintf("%s 新闻联播主要内容", date),
			Link:  link,
		}
	}

	return domain.NewsItem{Index: 1, Title: CleanTitle(pageTitle), Link: link}
}
