package extract

import (
	"regexp"
	"strings"
)

// Aggregate-broadcast markers. Day pages carry one entry per bracket style
// for the full program recording; it is not a discrete news item.
const (
	fullProgramMarkerCN    = "完整版《新闻联播》"
	fullProgramMarkerASCII = "完整版<新闻联播>"
)

var (
	timeOfDayExpr = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)
	digitDateExpr = regexp.MustCompile(`\d{8}`)
	dashDateExpr  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// IsFullProgram reports whether a raw title denotes the aggregate full
// broadcast entry rather than a single news item.
func IsFullProgram(title string) bool {
	return strings.HasPrefix(title, fullProgramMarkerCN) ||
		strings.HasPrefix(title, fullProgramMarkerASCII)
}

// CleanTitle strips the site's video tags and embedded time/date noise from a
// raw anchor title. Prefixes are removed at their first occurrence only; the
// result of cleaning twice equals cleaning once.
func CleanTitle(raw string) string {
	t := strings.Replace(raw, "完整版[视频]", "", 1)
	t = strings.Replace(t, "完整版", "", 1)
	t = strings.Replace(t, "[视频]", "", 1)
	t = timeOfDayExpr.ReplaceAllString(t, "")
	t = digitDateExpr.ReplaceAllString(t, "")
	t = dashDateExpr.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// boilerplate phrases stripped from extracted transcript text. Order matters:
// removing "编辑：" first leaves "责任" behind for the later entry to catch.
var boilerplate = []string{
	"央视网消息（新闻联播）：",
	"央视网消息\n（新闻联播）：",
	"央视网消息\n（新闻联播）：\n",
	"主要内容",
	"编辑：",
	"责任编辑：",
	"责任",
	"陈平丽",
	"刘亮",
}

var bylineExprs = []*regexp.Regexp{
	regexp.MustCompile(`^编辑：`),
	regexp.MustCompile(`^责任编辑：`),
	regexp.MustCompile(`^文\s*/\s*`),
	regexp.MustCompile(`^图\s*/\s*`),
	regexp.MustCompile(`^摄影\s*：`),
	regexp.MustCompile(`^记者\s*：`),
	regexp.MustCompile(`^\s*作者\s*：`),
}

// nameExpr matches a bare 2-4 character personal-name-shaped token.
var nameExpr = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}]{2,4}$`)

// CleanContent applies the post-extraction cleanup pass: boilerplate removal,
// blank-line dropping, a backward byline suffix trim, and removal of a bare
// editor name trailing the final sentence punctuation.
func CleanContent(content string) string {
	if content == "" {
		return content
	}

	for _, phrase := range boilerplate {
		content = strings.ReplaceAll(content, phrase, "")
	}

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			lines = append(lines, l)
		}
	}

	// Suffix trim only: the backward scan stops at the first line that is
	// neither a byline nor a bare name. If everything would go, keep the
	// untrimmed lines.
	trimmed := lines
	for len(trimmed) > 0 {
		last := trimmed[len(trimmed)-1]
		if !isByline(last) && !nameExpr.MatchString(last) {
			break
		}
		trimmed = trimmed[:len(trimmed)-1]
	}
	if len(trimmed) == 0 {
		trimmed = lines
	}

	content = strings.Join(trimmed, "\n")
	content = trimNameAfterLast(content, "。")
	content = trimNameAfterLast(content, ".")
	return content
}

func isByline(line string) bool {
	for _, expr := range bylineExprs {
		if expr.MatchString(line) {
			return true
		}
	}
	return false
}

// trimNameAfterLast truncates the text at its last occurrence of punct when
// everything after it is a bare name token (an editor credit).
func trimNameAfterLast(text, punct string) string {
	i := strings.LastIndex(text, punct)
	if i < 0 {
		return text
	}
	after := strings.TrimSpace(text[i+len(punct):])
	if after == "" || !nameExpr.MatchString(after) {
		return text
	}
	return strings.TrimSpace(text[:i+len(punct)])
}

var (
	htmlTagExpr = regexp.MustCompile(`<[^>]+>`)
	// control bytes and latin-1 garbage from mis-decoded pages; \n survives
	// so the cleaned line structure is preserved
	garbageExpr = regexp.MustCompile(`[\x00-\x09\x0b-\x1f\x7f-\x{00ff}]+`)
	// whitelist: CJK, ASCII alphanumerics, whitespace, CJK punctuation
	nonTextExpr = regexp.MustCompile(`[^\x{4e00}-\x{9fa5}a-zA-Z0-9\s，。！？：；“”‘’（）《》【】、·…—]+`)
)

// stray script fragments that leak into extracted text on some video pages
var scriptLeaks = []string{
	`ent").css("display","none");`,
	`if ($.trim($("#content_area").html())==""){`,
}

// SanitizeContent is the last scrub before persistence: residual markup,
// leaked script fragments, and characters outside the transcript alphabet
// are removed.
func SanitizeContent(content string) string {
	if content == "" {
		return content
	}

	cleaned := htmlTagExpr.ReplaceAllString(content, "")
	for _, leak := range scriptLeaks {
		if i := strings.Index(cleaned, leak); i >= 0 {
			cleaned = cleaned[:i]
		}
	}
	cleaned = garbageExpr.ReplaceAllString(cleaned, "")
	cleaned = nonTextExpr.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
