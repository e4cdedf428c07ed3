// Package bridge exposes the history store, the clipboard and settings as
// named commands taking JSON arguments. The history list and the invoke
// subcommand call into it.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/clipdeck/clipdeck/internal/config"
	"github.com/clipdeck/clipdeck/internal/infra/storage"
)

// OK is the result of every command that returns no data.
const OK = "ok"

var (
	// ErrUnknownCommand is returned for names that are not registered.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidArgs is returned when the argument JSON is malformed or
	// misses a required field.
	ErrInvalidArgs = errors.New("invalid arguments")
)

type handler func(b *Bridge, ctx context.Context, args gjson.Result) (string, error)

var commands = map[string]handler{
	"copy_text":                       (*Bridge).copyText,
	"copy_clip_item":                  (*Bridge).copyClipItem,
	"get_clipboard_history":           (*Bridge).getClipboardHistory,
	"update_clipboard_history_by_id":  (*Bridge).updateClipboardHistoryByID,
	"update_clipboard_history_by_ids": (*Bridge).updateClipboardHistoryByIDs,
	"delete_clipboard_history_by_ids": (*Bridge).deleteClipboardHistoryByIDs,
	"get_collections":                 (*Bridge).getCollections,
	"select_collection_by_id":         (*Bridge).selectCollectionByID,
	"update_setting":                  (*Bridge).updateSetting,
}

// Bridge dispatches commands.
type Bridge struct {
	store     *storage.Store
	cfg       *config.Config
	clipboard Clipboard
	log       *zap.Logger
	now       func() time.Time

	// persist saves cfg after update_setting; nil keeps changes in memory.
	persist func(*config.Config) error
}

// New creates a bridge. A nil clipboard uses the system clipboard and a
// nil logger discards output.
func New(store *storage.Store, cfg *config.Config, cb Clipboard, log *zap.Logger) *Bridge {
	if cb == nil {
		cb = SystemClipboard()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Bridge{
		store:     store,
		cfg:       cfg,
		clipboard: cb,
		log:       log,
		now:       time.Now,
		persist:   (*config.Config).Save,
	}
}

// Commands returns the registered command names, sorted.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the settings the bridge reads and updates.
func (b *Bridge) Config() *config.Config {
	return b.cfg
}

// Invoke runs the named command with JSON encoded arguments. Commands
// without a payload return OK.
func (b *Bridge) Invoke(ctx context.Context, name, argsJSON string) (string, error) {
	h, ok := commands[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrUnknownCommand)
	}
	if argsJSON == "" {
		argsJSON = "{}"
	}
	if !gjson.Valid(argsJSON) {
		return "", fmt.Errorf("%s: %w: malformed JSON", name, ErrInvalidArgs)
	}

	start := b.now()
	out, err := h(b, ctx, gjson.Parse(argsJSON))
	if err != nil {
		b.log.Warn("command failed", zap.String("command", name), zap.Error(err))
		return "", err
	}
	b.log.Debug("command done", zap.String("command", name), zap.Duration("took", b.now().Sub(start)))
	return out, nil
}

func (b *Bridge) currentCollection(ctx context.Context) (string, error) {
	c, err := b.store.SelectedCollection(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (b *Bridge) copyText(ctx context.Context, args gjson.Result) (string, error) {
	text := args.Get("text")
	if !text.Exists() || text.String() == "" {
		return "", fmt.Errorf("copy_text: %w: text is required", ErrInvalidArgs)
	}
	if err := b.clipboard.WriteAll(text.String()); err != nil {
		return "", fmt.Errorf("failed to write clipboard: %w", err)
	}

	collection, err := b.currentCollection(ctx)
	if err != nil {
		return "", err
	}
	item, err := b.store.SaveClip(ctx, collection, text.String())
	if err != nil {
		return "", err
	}
	if err := b.markCopied(ctx, item.ID); err != nil {
		return "", err
	}
	return b.trim(ctx, collection)
}

func (b *Bridge) copyClipItem(ctx context.Context, args gjson.Result) (string, error) {
	id := args.Get("historyId")
	if !id.Exists() {
		return "", fmt.Errorf("copy_clip_item: %w: historyId is required", ErrInvalidArgs)
	}
	item, err := b.store.GetClip(ctx, id.Int())
	if err != nil {
		return "", err
	}
	if err := b.clipboard.WriteAll(item.Value); err != nil {
		return "", fmt.Errorf("failed to write clipboard: %w", err)
	}
	if err := b.markCopied(ctx, item.ID); err != nil {
		return "", err
	}
	return OK, nil
}

func (b *Bridge) markCopied(ctx context.Context, id int64) error {
	now := b.now()
	return b.store.UpdateClip(ctx, id, storage.ClipUpdate{CopiedAt: &now})
}

func (b *Bridge) trim(ctx context.Context, collection string) (string, error) {
	if _, err := b.store.TrimHistory(ctx, collection, b.cfg.HistoryLimit); err != nil {
		return "", err
	}
	return OK, nil
}

func (b *Bridge) getClipboardHistory(ctx context.Context, args gjson.Result) (string, error) {
	q := storage.HistoryQuery{
		Search:     args.Get("search").String(),
		PinnedOnly: args.Get("pinnedOnly").Bool(),
		Limit:      int(args.Get("limit").Int()),
		Offset:     int(args.Get("offset").Int()),
	}
	if c := args.Get("collectionId"); c.Exists() {
		q.CollectionID = c.String()
	} else {
		collection, err := b.currentCollection(ctx)
		if err != nil {
			return "", err
		}
		q.CollectionID = collection
	}

	items, err := b.store.ListHistory(ctx, q)
	if err != nil {
		return "", err
	}
	if items == nil {
		items = []*storage.ClipItem{}
	}
	return marshal(items)
}

func parseUpdate(data gjson.Result) (storage.ClipUpdate, error) {
	var u storage.ClipUpdate
	if !data.IsObject() {
		return u, fmt.Errorf("%w: updatedData must be an object", ErrInvalidArgs)
	}
	if v := data.Get("value"); v.Exists() {
		s := v.String()
		u.Value = &s
	}
	if v := data.Get("isPinned"); v.Exists() {
		p := v.Bool()
		u.Pinned = &p
	}
	if v := data.Get("isFavorite"); v.Exists() {
		f := v.Bool()
		u.Favorite = &f
	}
	return u, nil
}

func parseIDs(args gjson.Result) ([]int64, error) {
	v := args.Get("historyIds")
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: historyIds must be an array", ErrInvalidArgs)
	}
	var ids []int64
	for _, id := range v.Array() {
		if id.Type != gjson.Number {
			return nil, fmt.Errorf("%w: history id %s is not a number", ErrInvalidArgs, id.Raw)
		}
		ids = append(ids, id.Int())
	}
	return ids, nil
}

func (b *Bridge) updateClipboardHistoryByID(ctx context.Context, args gjson.Result) (string, error) {
	id := args.Get("historyId")
	if !id.Exists() {
		return "", fmt.Errorf("update_clipboard_history_by_id: %w: historyId is required", ErrInvalidArgs)
	}
	u, err := parseUpdate(args.Get("updatedData"))
	if err != nil {
		return "", err
	}
	if err := b.store.UpdateClip(ctx, id.Int(), u); err != nil {
		return "", err
	}
	return OK, nil
}

func (b *Bridge) updateClipboardHistoryByIDs(ctx context.Context, args gjson.Result) (string, error) {
	ids, err := parseIDs(args)
	if err != nil {
		return "", err
	}
	u, err := parseUpdate(args.Get("updatedData"))
	if err != nil {
		return "", err
	}
	if _, err := b.store.UpdateClips(ctx, ids, u); err != nil {
		return "", err
	}
	return OK, nil
}

func (b *Bridge) deleteClipboardHistoryByIDs(ctx context.Context, args gjson.Result) (string, error) {
	ids, err := parseIDs(args)
	if err != nil {
		return "", err
	}
	if _, err := b.store.DeleteClips(ctx, ids); err != nil {
		return "", err
	}
	return OK, nil
}

func (b *Bridge) getCollections(ctx context.Context, _ gjson.Result) (string, error) {
	collections, err := b.store.ListCollections(ctx)
	if err != nil {
		return "", err
	}
	if collections == nil {
		collections = []*storage.Collection{}
	}
	return marshal(collections)
}

func (b *Bridge) selectCollectionByID(ctx context.Context, args gjson.Result) (string, error) {
	id := args.Get("collectionId")
	if !id.Exists() {
		return "", fmt.Errorf("select_collection_by_id: %w: collectionId is required", ErrInvalidArgs)
	}
	if err := b.store.SelectCollection(ctx, id.String()); err != nil {
		return "", err
	}
	b.cfg.CurrentCollection = id.String()
	return b.save()
}

func (b *Bridge) updateSetting(_ context.Context, args gjson.Result) (string, error) {
	name := args.Get("name").String()
	value := args.Get("value")
	if name == "" || !value.Exists() {
		return "", fmt.Errorf("update_setting: %w: name and value are required", ErrInvalidArgs)
	}
	if err := b.cfg.Set(name, value.String()); err != nil {
		return "", err
	}
	return b.save()
}

func (b *Bridge) save() (string, error) {
	if b.persist != nil {
		if err := b.persist(b.cfg); err != nil {
			return "", fmt.Errorf("failed to save settings: %w", err)
		}
	}
	return OK, nil
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}
