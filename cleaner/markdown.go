package cleaner

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// mdConverter is created once and shared; Converter is goroutine-safe.
var mdConverter = newMarkdownConverter()

// newMarkdownConverter creates a Converter configured for compact output:
//
//   - base plugin: strips script, style, iframe, noscript, head, meta, link,
//     input, textarea and HTML comments.
//   - commonmark plugin: standard Markdown rendering.
//   - table plugin: keeps table structure with minimal cell padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// ToMarkdown converts clean HTML to Markdown using html-to-markdown v2.
//
// The domain parameter is used to resolve relative URLs in <a> and <img> tags
// into absolute URLs, so the Markdown output is self-contained.
func ToMarkdown(htmlContent string, domain string) (string, error) {
	return mdConverter.ConvertString(htmlContent, converter.WithDomain(domain))
}
