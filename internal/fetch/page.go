package fetch

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageMeta carries the page-level metadata the pipeline cares about beyond
// the article text.
type PageMeta struct {
	// Image is the best lead-image URL found, absolute; empty when none.
	Image string
	// Language is a two-letter code guessed from the markup; empty when
	// undeclared.
	Language string
}

// ExtractMeta reads lead image and language hints from an HTML page.
// pageURL resolves relative image references.
func ExtractMeta(html []byte, pageURL string) (PageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return PageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	base, _ := url.Parse(pageURL)
	return PageMeta{
		Image:    findLeadImage(doc, base),
		Language: findLanguage(doc),
	}, nil
}

// findLeadImage tries metadata sources in order of reliability: Open Graph,
// Twitter card, rel=image_src, then the largest srcset entry or the first
// plausible inline image.
func findLeadImage(doc *goquery.Document, base *url.URL) string {
	metaSelectors := []string{
		"meta[property='og:image']",
		"meta[property='og:image:url']",
		"meta[name='twitter:image']",
		"meta[name='twitter:image:src']",
	}
	for _, sel := range metaSelectors {
		if src, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(src) != "" {
			return absolute(base, src)
		}
	}

	if src, ok := doc.Find("link[rel='image_src']").First().Attr("href"); ok && strings.TrimSpace(src) != "" {
		return absolute(base, src)
	}

	if src := bestFromSrcsets(doc); src != "" {
		return absolute(base, src)
	}

	var first string
	doc.Find("img[src]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		src, _ := el.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}
		first = src
		return false
	})
	return absolute(base, first)
}

// bestFromSrcsets scans every srcset and keeps the candidate with the
// largest width descriptor.
func bestFromSrcsets(doc *goquery.Document) string {
	var best string
	bestWidth := 0
	doc.Find("img[srcset], source[srcset]").Each(func(_ int, el *goquery.Selection) {
		srcset, _ := el.Attr("srcset")
		for _, cand := range strings.Split(srcset, ",") {
			parts := strings.Fields(strings.TrimSpace(cand))
			if len(parts) == 0 {
				continue
			}
			w := 0
			if len(parts) > 1 && strings.HasSuffix(parts[1], "w") {
				w, _ = strconv.Atoi(strings.TrimSuffix(parts[1], "w"))
			}
			if w > bestWidth {
				bestWidth = w
				best = parts[0]
			}
		}
	})
	return best
}

// findLanguage prefers the html lang attribute, then og:locale.
func findLanguage(doc *goquery.Document) string {
	if lang, ok := doc.Find("html").Attr("lang"); ok {
		if code := langCode(lang); code != "" {
			return code
		}
	}
	if locale, ok := doc.Find("meta[property='og:locale']").Attr("content"); ok {
		return langCode(locale)
	}
	return ""
}

// langCode reduces "en-US" or "tr_TR" to the primary subtag.
func langCode(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	for i, r := range s {
		if r == '-' || r == '_' {
			s = s[:i]
			break
		}
	}
	if len(s) < 2 || len(s) > 3 {
		return ""
	}
	return s
}

func absolute(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
