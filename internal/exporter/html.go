package exporter

import (
	"fmt"
	"html"
	"strings"

	"github.com/clipdeck/clipdeck/internal/preview"
)

// HTMLExporter renders the markdown export through goldmark.
type HTMLExporter struct{}

func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

func (e *HTMLExporter) Export(req ExportRequest) error {
	body, err := preview.MarkdownToHTML(renderMarkdown(req))
	if err != nil {
		return err
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(req.Title))
	page.WriteString("</head>\n<body>\n")
	page.WriteString(body)
	page.WriteString("</body>\n</html>\n")

	return writeFile(req.FilePath, []byte(page.String()))
}
