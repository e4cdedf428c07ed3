package exporter

import (
	"encoding/json"
	"fmt"
	"time"
)

type JSONExporter struct{}

type jsonExport struct {
	Title      string     `json:"title"`
	ExportedAt time.Time  `json:"exported_at"`
	Clips      []jsonClip `json:"clips"`
}

type jsonClip struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Value     string    `json:"value"`
	Pinned    bool      `json:"pinned,omitempty"`
	Favorite  bool      `json:"favorite,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *JSONExporter) FileExtension() string {
	return ".json"
}

func (e *JSONExporter) Export(req ExportRequest) error {
	doc := jsonExport{
		Title:      req.Title,
		ExportedAt: req.Now,
		Clips:      make([]jsonClip, 0, len(req.Clips)),
	}
	for _, c := range req.Clips {
		doc.Clips = append(doc.Clips, jsonClip{
			ID:        c.ID,
			Kind:      string(c.Kind),
			Value:     clipValue(c, req.Mask),
			Pinned:    c.Pinned,
			Favorite:  c.Favorite,
			CreatedAt: c.CreatedAt,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	return writeFile(req.FilePath, data)
}
