// Package clip holds small helpers shared by the history list, the CLI and
// storage: content classification, masking, relative dates, URL handling
// and list reordering.
package clip

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// Kind classifies clip content.
type Kind string

const (
	KindText     Kind = "text"
	KindURL      Kind = "url"
	KindMarkdown Kind = "markdown"
	KindCode     Kind = "code"
)

const maskRune = '•'

var (
	markdownPattern = regexp.MustCompile("(?m)^(#{1,6} |```|> |[-*] \\[[ xX]\\] |\\d+\\. )|\\]\\(https?://")
	codePattern     = regexp.MustCompile(`(?m)^\s*(func |def |class |package |import |#include|const |let |var |public |SELECT |select )|[;{}]\s*$`)
)

// DetectKind guesses what a clip contains.
func DetectKind(value string) Kind {
	trimmed := strings.TrimSpace(value)
	switch {
	case IsURL(trimmed):
		return KindURL
	case markdownPattern.MatchString(trimmed):
		return KindMarkdown
	case codePattern.MatchString(trimmed):
		return KindCode
	default:
		return KindText
	}
}

// Mask hides a sensitive value, keeping the first and last two runes when
// the value is long enough to stay unrecognisable.
func Mask(value string) string {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return ""
	}
	if n <= 6 {
		return strings.Repeat(string(maskRune), n)
	}
	runes := []rune(value)
	return string(runes[:2]) + strings.Repeat(string(maskRune), n-4) + string(runes[n-2:])
}

// FormatTimeAgo renders t relative to now ("3 minutes ago").
func FormatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if time.Since(t) < time.Minute {
		return "just now"
	}
	return humanize.Time(t)
}

// IsURL reports whether s is a single absolute http(s) URL.
func IsURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NormalizeURL trims s and adds an https scheme to bare hosts. It returns
// false when s cannot be turned into a URL.
func NormalizeURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return "", false
	}
	if !strings.Contains(s, "://") {
		host := s
		if i := strings.IndexAny(host, "/?#"); i >= 0 {
			host = host[:i]
		}
		if !strings.Contains(host, ".") && !strings.HasPrefix(host, "localhost") {
			return "", false
		}
		s = "https://" + s
	}
	if !IsURL(s) {
		return "", false
	}
	return s, true
}

// Move returns a copy of items with the element at from moved to to, as a
// drag-and-drop reorder does. Out-of-range indices return an unchanged copy.
func Move[T any](items []T, from, to int) []T {
	out := make([]T, len(items))
	copy(out, items)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	item := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = item
	return out
}
