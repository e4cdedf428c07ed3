package clip

import (
	"reflect"
	"testing"
	"time"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  Kind
	}{
		{"plain", "remember the milk", KindText},
		{"url", "https://example.com/path?q=1", KindURL},
		{"url with padding", "  http://localhost:8080  ", KindURL},
		{"not a url", "example.com is down", KindText},
		{"heading", "# Notes\nsome text", KindMarkdown},
		{"link", "see [docs](https://example.com)", KindMarkdown},
		{"go", "package main\n\nfunc main() {\n}", KindCode},
		{"js", "const x = 1;", KindCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectKind(tt.value); got != tt.want {
				t.Errorf("DetectKind(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", ""},
		{"abc", "•••"},
		{"secret", "••••••"},
		{"password1", "pa•••••d1"},
		{"пароль-секрет", "па•••••••••ет"},
	}

	for _, tt := range tests {
		if got := Mask(tt.value); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatTimeAgo(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "never"},
		{"now", time.Now(), "just now"},
		{"minutes", time.Now().Add(-3*time.Minute - time.Second), "3 minutes ago"},
		{"hours", time.Now().Add(-2*time.Hour - time.Second), "2 hours ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimeAgo(tt.t); got != tt.want {
				t.Errorf("FormatTimeAgo() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://example.com", "https://example.com", true},
		{"example.com/a", "https://example.com/a", true},
		{"  localhost:3000 ", "https://localhost:3000", true},
		{"not a url", "", false},
		{"word", "", false},
		{"ftp://example.com", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeURL(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeURL(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMove(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"down", 0, 2, []string{"b", "c", "a", "d"}},
		{"up", 3, 1, []string{"a", "d", "b", "c"}},
		{"same", 1, 1, []string{"a", "b", "c", "d"}},
		{"out of range", 0, 9, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Move(items, tt.from, tt.to)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Move(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
	if !reflect.DeepEqual(items, []string{"a", "b", "c", "d"}) {
		t.Error("Move must not modify its input")
	}
}
