package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/pagefetch/models"
)

// ExtractMetadata reads the page title and language from the serialized DOM.
// The Open Graph title wins over <title>, which often carries a site suffix.
func ExtractMetadata(rawHTML string, sourceURL string) models.Metadata {
	meta := models.Metadata{SourceURL: sourceURL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return meta
	}

	doc.Find("meta[property]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if prop, _ := s.Attr("property"); prop == "og:title" {
			meta.Title = strings.TrimSpace(s.AttrOr("content", ""))
			return false
		}
		return true
	})
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if lang, ok := doc.Find("html").Attr("lang"); ok {
		meta.Language = strings.TrimSpace(lang)
	} else if lang, ok := doc.Find(`meta[http-equiv="content-language"]`).Attr("content"); ok {
		meta.Language = strings.TrimSpace(lang)
	}

	return meta
}
