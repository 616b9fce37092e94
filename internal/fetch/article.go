package fetch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nonContentSelectors lists elements stripped before body extraction.
const nonContentSelectors = "script, style, nav, header, footer, aside, form, iframe, noscript"

// containerSelectors are tried in order when hunting for the article body.
// The first container whose text clears minArticleWords wins; otherwise the
// longest candidate is kept.
var containerSelectors = []string{
	"article",
	"[class*='article-body']",
	"[class*='article-content']",
	"[class*='post-content']",
	"[class*='entry-content']",
	"[itemprop='articleBody']",
	"main",
	"body",
}

// minArticleWords is the minimum word count for a container to be accepted
// outright.
const minArticleWords = 80

// ExtractArticle pulls the readable article text out of an HTML page. Text
// is assembled from heading, paragraph and list elements so navigation
// crumbs and widgets do not leak in.
func ExtractArticle(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(nonContentSelectors).Remove()

	var best string
	for _, sel := range containerSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		text := collectBlocks(container)
		if wordCount(text) >= minArticleWords {
			return text, nil
		}
		if len(text) > len(best) {
			best = text
		}
	}
	return best, nil
}

// collectBlocks joins the text of block-level content elements with blank
// lines, dropping fragments too short to be prose.
func collectBlocks(s *goquery.Selection) string {
	var blocks []string
	s.Find("h1, h2, h3, h4, p, li").Each(func(_ int, el *goquery.Selection) {
		t := strings.Join(strings.Fields(el.Text()), " ")
		if len(t) >= 20 {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		return strings.Join(strings.Fields(s.Text()), " ")
	}
	return strings.Join(blocks, "\n\n")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
