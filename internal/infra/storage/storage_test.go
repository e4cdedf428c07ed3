package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/clipdeck/clipdeck/internal/clip"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveClipDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.SaveClip(ctx, "", "hello")
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}
	if _, err := s.SaveClip(ctx, "", "world"); err != nil {
		t.Fatalf("SaveClip: %v", err)
	}
	again, err := s.SaveClip(ctx, "", "hello")
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}

	if again.ID != first.ID {
		t.Errorf("duplicate value got new id %d, want %d", again.ID, first.ID)
	}
	n, _ := s.CountHistory(ctx, "")
	if n != 2 {
		t.Errorf("CountHistory = %d, want 2", n)
	}

	items, err := s.ListHistory(ctx, HistoryQuery{})
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if items[0].Value != "hello" {
		t.Errorf("bumped clip should be newest, got %q first", items[0].Value)
	}
}

func TestSaveClipDetectsKind(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	item, err := s.SaveClip(ctx, "", "https://example.com/a")
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}
	if item.Kind != clip.KindURL {
		t.Errorf("Kind = %q, want %q", item.Kind, clip.KindURL)
	}
	if item.Hash != HashValue("https://example.com/a") {
		t.Errorf("Hash = %q", item.Hash)
	}
}

func TestSaveClipsKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	n, err := s.SaveClips(ctx, "", []string{"one", "", "two", "three"})
	if err != nil {
		t.Fatalf("SaveClips: %v", err)
	}
	if n != 3 {
		t.Errorf("saved %d, want 3", n)
	}

	items, _ := s.ListHistory(ctx, HistoryQuery{})
	var got []string
	for _, it := range items {
		got = append(got, it.Value)
	}
	want := []string{"three", "two", "one"}
	if len(got) != len(want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history = %v, want %v", got, want)
		}
	}
}

func TestListHistoryFilters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, _ = s.SaveClips(ctx, "", []string{"alpha", "beta", "100% done", "gamma"})
	items, _ := s.ListHistory(ctx, HistoryQuery{Search: "%"})
	if len(items) != 1 || items[0].Value != "100% done" {
		t.Errorf("LIKE wildcard not escaped: %v", items)
	}

	page, _ := s.ListHistory(ctx, HistoryQuery{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].Value != "100% done" {
		t.Errorf("paging returned %d items", len(page))
	}

	beta, _ := s.ListHistory(ctx, HistoryQuery{Search: "beta"})
	if err := s.UpdateClip(ctx, beta[0].ID, ClipUpdate{Pinned: ptr(true)}); err != nil {
		t.Fatalf("UpdateClip: %v", err)
	}
	all, _ := s.ListHistory(ctx, HistoryQuery{})
	if all[0].Value != "beta" || !all[0].Pinned {
		t.Errorf("pinned clip should come first, got %q", all[0].Value)
	}
	pinned, _ := s.ListHistory(ctx, HistoryQuery{PinnedOnly: true})
	if len(pinned) != 1 {
		t.Errorf("PinnedOnly returned %d items", len(pinned))
	}
}

func TestUpdateAndDeleteClips(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, _ := s.SaveClip(ctx, "", "a")
	b, _ := s.SaveClip(ctx, "", "b")

	n, err := s.UpdateClips(ctx, []int64{a.ID, b.ID}, ClipUpdate{Favorite: ptr(true)})
	if err != nil || n != 2 {
		t.Fatalf("UpdateClips = %d, %v", n, err)
	}
	got, _ := s.GetClip(ctx, a.ID)
	if !got.Favorite {
		t.Error("favorite not stored")
	}

	if err := s.UpdateClip(ctx, 9999, ClipUpdate{Pinned: ptr(true)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateClip on missing id: %v, want ErrNotFound", err)
	}

	deleted, err := s.DeleteClips(ctx, []int64{a.ID, 9999})
	if err != nil || deleted != 1 {
		t.Fatalf("DeleteClips = %d, %v", deleted, err)
	}
	if _, err := s.GetClip(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetClip after delete: %v", err)
	}
}

func TestTrimHistoryKeepsPinned(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, _ = s.SaveClips(ctx, "", []string{"1", "2", "3", "4", "5"})
	oldest, _ := s.ListHistory(ctx, HistoryQuery{Search: "1"})
	_ = s.UpdateClip(ctx, oldest[0].ID, ClipUpdate{Pinned: ptr(true)})

	removed, err := s.TrimHistory(ctx, "", 2)
	if err != nil {
		t.Fatalf("TrimHistory: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d, want 2", removed)
	}
	n, _ := s.CountHistory(ctx, "")
	if n != 3 {
		t.Errorf("remaining %d, want 3 (2 newest + pinned)", n)
	}
}

func TestCollections(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.SelectedCollection(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected default collection, got %v", err)
	}

	work, err := s.CreateCollection(ctx, "Work", "")
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	home, _ := s.CreateCollection(ctx, "Home", "")

	if err := s.SelectCollection(ctx, work.ID); err != nil {
		t.Fatalf("SelectCollection: %v", err)
	}
	if err := s.SelectCollection(ctx, home.ID); err != nil {
		t.Fatalf("SelectCollection: %v", err)
	}
	sel, err := s.SelectedCollection(ctx)
	if err != nil || sel.ID != home.ID {
		t.Fatalf("SelectedCollection = %v, %v; want Home", sel, err)
	}

	list, _ := s.ListCollections(ctx)
	selected := 0
	for _, c := range list {
		if c.Selected {
			selected++
		}
	}
	if len(list) != 2 || selected != 1 {
		t.Errorf("collections=%d selected=%d", len(list), selected)
	}

	if err := s.SelectCollection(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("selecting a missing collection: %v", err)
	}
	if sel, _ := s.SelectedCollection(ctx); sel == nil || sel.ID != home.ID {
		t.Error("failed selection should roll back")
	}

	// Clips are scoped per collection.
	_, _ = s.SaveClip(ctx, work.ID, "same")
	_, _ = s.SaveClip(ctx, "", "same")
	if n, _ := s.CountHistory(ctx, work.ID); n != 1 {
		t.Errorf("work collection has %d clips", n)
	}
}

func ptr[T any](v T) *T { return &v }
