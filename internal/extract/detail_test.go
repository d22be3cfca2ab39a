package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned bodies for the contentid API strategy.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return "", ErrExhausted
}

// longBody is comfortably over the 50-rune acceptance threshold.
const longBody = "央视网消息（新闻联播）：今天上午，有关部门召开了重要会议，会议强调要扎实推进各项重点工作，持续巩固发展成果，进一步增强发展动力。"

func newExtractor() *DetailExtractor {
	return NewDetailExtractor(&fakeFetcher{}, nil)
}

func TestExtractSelectorCascade(t *testing.T) {
	t.Parallel()

	page := `<html><body><div class="cnt_bd"><p>` + longBody + `</p></div></body></html>`

	got, err := newExtractor().Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Contains(t, got, "重要会议")
	assert.NotContains(t, got, "央视网消息")
}

func TestExtractSelectorPriorityOrder(t *testing.T) {
	t.Parallel()

	// .cnt_bd outranks .content even when .content appears first in the page
	page := `<html><body>
	<div class="content">乙版报道：` + longBody + `</div>
	<div class="cnt_bd">甲版报道：` + longBody + `</div>
	</body></html>`

	got, err := newExtractor().Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Contains(t, got, "甲版报道")
	assert.NotContains(t, got, "乙版报道")
}

func TestExtractRejectsExactlyFiftyRunes(t *testing.T) {
	t.Parallel()

	fifty := strings.Repeat("字", 50)
	page := `<html><body><div class="cnt_bd">` + fifty + `</div></body></html>`

	// the selector cascade rejects length 50; the whole-document strip picks
	// the text up instead, so the boundary shows as a fall-through
	got, err := newExtractor().Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, fifty, got)
}

func TestExtractLoadMorePlaceholderFallsThrough(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	<div class="cnt_bd">加载更多</div>
	<p>` + longBody + `第一段</p>
	<p>第二段补充内容说明具体情况</p>
	</body></html>`

	got, err := newExtractor().Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Contains(t, got, "第一段")
	assert.Contains(t, got, "第二段补充内容说明具体情况")
}

func TestExtractContentIDAPIFallback(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://api.cctv.com/video/detail?id=ABC123": `{"content":"` + longBody + `"}`,
	}}
	ex := NewDetailExtractor(fetcher, nil)

	page := `<html><head><meta name="contentid" content="ABC123"></head><body></body></html>`

	got, err := ex.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Contains(t, got, "重要会议")
}

func TestExtractContentIDAPITriesLaterEndpoints(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://api.cctv.com/content/article/ABC123": `{"description":"` + longBody + `"}`,
	}}
	ex := NewDetailExtractor(fetcher, nil)

	page := `<html><head><meta name="contentid" content="ABC123"></head><body></body></html>`

	got, err := ex.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Contains(t, got, "重要会议")
}

func TestExtractWholeDocumentStripDropsChrome(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	<script>var x = 1;</script>
	<nav>导航</nav>
	<div>短正文</div>
	<footer>页脚</footer>
	</body></html>`

	got, err := newExtractor().Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Contains(t, got, "短正文")
	assert.NotContains(t, got, "var x")
	assert.NotContains(t, got, "导航")
	assert.NotContains(t, got, "页脚")
}

func TestSummaryContainerFiltersShortLines(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<html><body><div class="allcontent">
	<p>短</p>
	<p>这一行明显超过了十个字符的长度要求</p>
	</div></body></html>`)

	assert.Equal(t, "这一行明显超过了十个字符的长度要求", summaryContainer(doc, ""))
}

func TestSummaryContainerKeepsPriorContent(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<html><body><div class="other"></div></body></html>`)
	assert.Equal(t, "既有内容", summaryContainer(doc, "既有内容"))
}

func TestArticleTagNeedsLength(t *testing.T) {
	t.Parallel()

	accept := mustDoc(t, `<html><body><article>`+longBody+`</article></body></html>`)
	assert.Contains(t, articleTag(accept, ""), "重要会议")

	short := mustDoc(t, `<html><body><article>太短</article></body></html>`)
	assert.Equal(t, "", articleTag(short, ""))
}

func TestContentIDSubstringMatchesCaseInsensitive(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<html><body>
	<div id="sidebar">栏目导航内容列表栏目导航内容列表栏目导航内容列表栏目导航内容列表栏目导航内容列表栏目</div>
	<div id="Content_Area">`+longBody+`</div>
	</body></html>`)

	assert.Contains(t, contentIDSubstring(doc, ""), "重要会议")
}

func TestExtractExhaustedOnEmptyPage(t *testing.T) {
	t.Parallel()

	_, err := newExtractor().Extract(context.Background(), `<html><body></body></html>`)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestExtractCleanupTrimsTrailingEditor(t *testing.T) {
	t.Parallel()

	page := `<html><body><div class="cnt_bd">` + longBody + `作出了重要指示。李梓萌</div></body></html>`

	got, err := newExtractor().Extract(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "作出了重要指示。"), "got %q", got)
}
