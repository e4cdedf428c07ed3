package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/clipdeck/clipdeck/internal/clip"
	"github.com/clipdeck/clipdeck/internal/infra/storage"
)

// ExportRequest contains all data needed for export
type ExportRequest struct {
	Title    string
	Clips    []*storage.ClipItem
	FilePath string
	Mask     bool // mask clip values
	Now      time.Time
}

// Exporter defines the interface for history exporters
type Exporter interface {
	Export(req ExportRequest) error
	FileExtension() string
}

var exporters = map[string]Exporter{
	"json":     &JSONExporter{},
	"markdown": &MarkdownExporter{},
	"html":     &HTMLExporter{},
}

// Export exports clips to the specified format
func Export(format string, req ExportRequest) error {
	exporter, ok := exporters[format]
	if !ok {
		return fmt.Errorf("unsupported export format: %s", format)
	}

	if req.FilePath == "" {
		return fmt.Errorf("export path is required")
	}
	if req.Title == "" {
		req.Title = "Clipboard history"
	}
	if req.Now.IsZero() {
		req.Now = time.Now()
	}

	if err := os.MkdirAll(filepath.Dir(req.FilePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return exporter.Export(req)
}

// FileExtension returns the extension for a format, or "" if unknown.
func FileExtension(format string) string {
	if e, ok := exporters[format]; ok {
		return e.FileExtension()
	}
	return ""
}

// SupportedFormats returns list of supported export formats
func SupportedFormats() []string {
	formats := make([]string, 0, len(exporters))
	for format := range exporters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func clipValue(c *storage.ClipItem, mask bool) string {
	if mask {
		return clip.Mask(c.Value)
	}
	return c.Value
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
