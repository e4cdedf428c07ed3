// Package preview renders clip contents for the detail pane and exports:
// syntax-highlighted code, wrapped text and markdown converted to HTML.
package preview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-enry/go-enry/v2"
	"github.com/muesli/reflow/wordwrap"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/clipdeck/clipdeck/internal/clip"
)

const defaultStyle = "monokai"

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Language guesses the programming language of value. It returns an empty
// string when nothing matches.
func Language(value string) string {
	if lang, safe := enry.GetLanguageByShebang([]byte(value)); safe && lang != "" {
		return lang
	}
	if l := lexers.Analyse(value); l != nil {
		return l.Config().Name
	}
	return enry.GetLanguage("", []byte(value))
}

// Highlight renders value for a terminal of the given width. Code is
// colorized with chroma; everything else is word-wrapped.
func Highlight(value string, width int) string {
	if clip.DetectKind(value) != clip.KindCode {
		if width <= 0 {
			return value
		}
		return wordwrap.String(value, width)
	}

	out, err := highlightCode(value, Language(value))
	if err != nil {
		return value
	}
	return out
}

func highlightCode(value, language string) (string, error) {
	lexer := lexers.Get(strings.ToLower(language))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(defaultStyle)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, value)
	if err != nil {
		return "", fmt.Errorf("failed to tokenise clip: %w", err)
	}

	var buf bytes.Buffer
	if err := formatters.TTY256.Format(&buf, style, iterator); err != nil {
		return "", fmt.Errorf("failed to format clip: %w", err)
	}
	return buf.String(), nil
}

// MarkdownToHTML converts markdown to HTML.
func MarkdownToHTML(value string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(value), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
