package exporter

import (
	"fmt"
	"strings"

	"github.com/clipdeck/clipdeck/internal/clip"
	"github.com/clipdeck/clipdeck/internal/infra/storage"
	"github.com/clipdeck/clipdeck/internal/preview"
)

type MarkdownExporter struct{}

func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

func (e *MarkdownExporter) Export(req ExportRequest) error {
	return writeFile(req.FilePath, []byte(renderMarkdown(req)))
}

func renderMarkdown(req ExportRequest) string {
	var doc strings.Builder

	fmt.Fprintf(&doc, "# %s\n\n", req.Title)
	fmt.Fprintf(&doc, "_Exported %s, %d clips_\n", req.Now.Format("2006-01-02 15:04"), len(req.Clips))

	for _, c := range req.Clips {
		doc.WriteString("\n")
		fmt.Fprintf(&doc, "## #%d%s\n\n", c.ID, badges(c))
		doc.WriteString(markdownBody(c, req.Mask))
		doc.WriteString("\n")
	}
	return doc.String()
}

func badges(c *storage.ClipItem) string {
	var b strings.Builder
	if c.Pinned {
		b.WriteString(" (pinned)")
	}
	if c.Favorite {
		b.WriteString(" (favorite)")
	}
	return b.String()
}

func markdownBody(c *storage.ClipItem, mask bool) string {
	value := clipValue(c, mask)
	switch {
	case mask:
		return fenced("", value)
	case c.Kind == clip.KindURL:
		return fmt.Sprintf("<%s>\n", value)
	case c.Kind == clip.KindMarkdown:
		return value + "\n"
	case c.Kind == clip.KindCode:
		return fenced(strings.ToLower(preview.Language(value)), value)
	default:
		return fenced("", value)
	}
}

// fenced wraps value in a code block whose fence is longer than any
// backtick run inside it, so the value cannot close the block early.
func fenced(lang, value string) string {
	longest, run := 0, 0
	for _, r := range value {
		if r != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	fence := strings.Repeat("`", max(3, longest+1))
	return fence + lang + "\n" + strings.TrimRight(value, "\n") + "\n" + fence + "\n"
}
