package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"github.com/clipdeck/clipdeck/internal/bridge"
	"github.com/clipdeck/clipdeck/internal/clip"
	"github.com/clipdeck/clipdeck/internal/config"
	"github.com/clipdeck/clipdeck/internal/exporter"
	"github.com/clipdeck/clipdeck/internal/infra/logger"
	"github.com/clipdeck/clipdeck/internal/infra/storage"
	"github.com/clipdeck/clipdeck/internal/perf"
	"github.com/clipdeck/clipdeck/internal/preview"
)

var (
	listSearch string
	listLimit  int
	listJSON   bool

	importLines bool

	exportFormat string
	exportOutput string
	exportSearch string

	previewWidth int
)

var addCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Save text to the history (reads stdin when no text is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = strings.TrimRight(string(data), "\n")
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("nothing to add")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := saveAndTrim(cmd.Context(), a, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved clip #%d\n", item.ID)
		return nil
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Save the current system clipboard to the history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := bridge.SystemClipboard().ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read clipboard: %w", err)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("clipboard is empty")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := saveAndTrim(cmd.Context(), a, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Captured clip #%d (%s)\n", item.ID, item.Kind)
		return nil
	},
}

func saveAndTrim(ctx context.Context, a *app, text string) (*storage.ClipItem, error) {
	collection, err := a.collection(ctx)
	if err != nil {
		return nil, err
	}
	item, err := a.store.SaveClip(ctx, collection, text)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.TrimHistory(ctx, collection, a.cfg.HistoryLimit); err != nil {
		return nil, err
	}
	return item, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the clipboard history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		query, _ := json.Marshal(map[string]any{"search": listSearch, "limit": listLimit})
		out, err := a.bridge.Invoke(cmd.Context(), "get_clipboard_history", string(query))
		if err != nil {
			return err
		}
		if listJSON {
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}

		var items []*storage.ClipItem
		if err := json.Unmarshal([]byte(out), &items); err != nil {
			return fmt.Errorf("failed to decode history: %w", err)
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No clips yet")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-6s %-9s %-16s %s\n", "ID", "KIND", "UPDATED", "VALUE")
		for _, item := range items {
			fmt.Fprintf(w, "%-6d %-9s %-16s %s\n", item.ID, item.Kind,
				clip.FormatTimeAgo(item.UpdatedAt), summary(item.Value, a.cfg.MaskSensitive, 60))
		}
		return nil
	},
}

// summary returns the first line of value cut to width.
func summary(value string, mask bool, width uint) string {
	if mask {
		value = clip.Mask(value)
	}
	line, _, more := strings.Cut(strings.TrimSpace(value), "\n")
	out := truncate.StringWithTail(line, width, "…")
	if more && out == line {
		out += " …"
	}
	return out
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one clip with syntax highlighting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := a.store.GetClip(cmd.Context(), id)
		if err != nil {
			return err
		}
		value := item.Value
		if a.cfg.MaskSensitive {
			value = clip.Mask(value)
		}
		fmt.Fprintln(cmd.OutOrStdout(), preview.Highlight(value, previewWidth))
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Copy a clip back to the system clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return invokeAndReport(cmd, "copy_clip_item", map[string]any{"historyId": id}, fmt.Sprintf("✓ Copied clip #%d", id))
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id...>",
	Short: "Delete clips from the history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(args))
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return invokeAndReport(cmd, "delete_clipboard_history_by_ids", map[string]any{"historyIds": ids},
			fmt.Sprintf("✓ Deleted %d clips", len(ids)))
	},
}

func invokeAndReport(cmd *cobra.Command, name string, args map[string]any, done string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	if _, err := a.bridge.Invoke(cmd.Context(), name, string(data)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid clip id: %s", s)
	}
	return id, nil
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import clips from a file, one per paragraph (or per line with --lines)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()

		values, err := splitClips(f, importLines)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		collection, err := a.collection(ctx)
		if err != nil {
			return err
		}

		saved, failed := importClips(ctx, a, collection, values)
		if _, err := a.store.TrimHistory(ctx, collection, a.cfg.HistoryLimit); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %s clips\n", humanize.Comma(saved))
		if failed > 0 {
			return fmt.Errorf("%s clips could not be imported", humanize.Comma(failed))
		}
		return nil
	},
}

// importClips saves values through a batch processor so large imports are
// written in bounded transactions.
func importClips(ctx context.Context, a *app, collection string, values []string) (saved, failed int64) {
	var savedN, failedN atomic.Int64

	p := perf.NewBatchProcessor(func(ctx context.Context, batch []string) error {
		n, err := a.store.SaveClips(ctx, collection, batch)
		if err != nil {
			return err
		}
		savedN.Add(int64(n))
		return nil
	}, perf.BatchConfig{
		BatchSize: a.cfg.List.BatchSize,
		Delay:     a.cfg.List.BatchDelay(),
		Logger:    logger.L(),
	})
	p.OnError(func(batch []string, err error) {
		failedN.Add(int64(len(batch)))
	})

	p.AddMultiple(values)
	if err := p.Wait(ctx); err != nil {
		logger.Warn("Import interrupted", logger.Err(err), logger.Int("pending", p.Pending()))
		failedN.Add(int64(p.Pending()))
		p.Clear()
	}
	p.Close()

	return savedN.Load(), failedN.Load()
}

// splitClips reads one clip per blank-line separated paragraph, or one per
// line when byLine is set.
func splitClips(r io.Reader, byLine bool) ([]string, error) {
	var (
		values []string
		para   []string
	)
	flush := func() {
		if v := strings.Join(para, "\n"); strings.TrimSpace(v) != "" {
			values = append(values, v)
		}
		para = para[:0]
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case byLine:
			if strings.TrimSpace(line) != "" {
				values = append(values, line)
			}
		case strings.TrimSpace(line) == "":
			flush()
		default:
			para = append(para, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	flush()
	return values, nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history to a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ext := exporter.FileExtension(exportFormat)
		if ext == "" {
			return fmt.Errorf("unsupported export format: %s (supported: %s)",
				exportFormat, strings.Join(exporter.SupportedFormats(), ", "))
		}
		output := exportOutput
		if output == "" {
			output = "clipdeck-history" + ext
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		collection, err := a.collection(ctx)
		if err != nil {
			return err
		}
		items, err := a.store.ListHistory(ctx, storage.HistoryQuery{Search: exportSearch, CollectionID: collection})
		if err != nil {
			return err
		}

		err = exporter.Export(exportFormat, exporter.ExportRequest{
			Clips:    items,
			FilePath: output,
			Mask:     a.cfg.MaskSensitive,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d clips to %s\n", len(items), output)
		return nil
	},
}

var invokeCmd = &cobra.Command{
	Use:   "invoke <command> [json-args]",
	Short: "Run a bridge command and print its result",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, name := range bridge.Commands() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		payload := ""
		if len(args) == 2 {
			payload = args[1]
		}
		out, err := a.bridge.Invoke(cmd.Context(), args[0], payload)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List clip collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		collections, err := a.store.ListCollections(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		marker := func(selected bool) string {
			if selected {
				return "❯"
			}
			return " "
		}
		current, err := a.collection(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %-36s %s\n", marker(current == ""), "", "Default")
		for _, c := range collections {
			fmt.Fprintf(w, "%s %-36s %s\n", marker(c.Selected), c.ID, c.Title)
		}
		return nil
	},
}

var collectionsCreateCmd = &cobra.Command{
	Use:   "create <title> [description]",
	Short: "Create a collection",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		description := ""
		if len(args) == 2 {
			description = args[1]
		}
		c, err := a.store.CreateCollection(cmd.Context(), args[0], description)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created collection %s (%s)\n", c.Title, c.ID)
		return nil
	},
}

var collectionsSelectCmd = &cobra.Command{
	Use:   "select [id]",
	Short: "Select a collection (no id selects the default one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return invokeAndReport(cmd, "select_collection_by_id", map[string]any{"collectionId": id}, "✓ Collection selected")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change settings",
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(schema))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invokeAndReport(cmd, "update_setting", map[string]any{"name": args[0], "value": args[1]},
			fmt.Sprintf("✓ %s = %s", args[0], args[1]))
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Only show clips containing this text")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of clips to show (0 for all)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print raw JSON")

	showCmd.Flags().IntVarP(&previewWidth, "width", "w", 100, "Wrap plain text at this width")

	importCmd.Flags().BoolVar(&importLines, "lines", false, "Import one clip per line instead of per paragraph")

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json",
		"Export format: "+strings.Join(exporter.SupportedFormats(), "|"))
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default clipdeck-history.<ext>)")
	exportCmd.Flags().StringVarP(&exportSearch, "search", "s", "", "Only export clips containing this text")

	collectionsCmd.AddCommand(collectionsCreateCmd, collectionsSelectCmd)
	configCmd.AddCommand(configSchemaCmd, configPathCmd, configSetCmd)
}
