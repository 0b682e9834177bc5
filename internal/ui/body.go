package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/rivo/uniseg"

	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/theme"
)

const (
	defaultContentWidth = 80
	bodyTabWidth        = 4
	binaryPreviewBytes  = 256
)

// renderBody turns a body content model into display lines for the detail
// viewport. Text bodies are pretty printed when they are JSON and then
// highlighted with the theme's syntax style.
func renderBody(th theme.Theme, body *inspector.Body, width int) string {
	if width <= 0 {
		width = defaultContentWidth
	}
	if body == nil || len(body.Data) == 0 {
		return th.BodyPlaceholder.Render("No body.")
	}

	var out strings.Builder
	out.WriteString(th.ItemMore.Render(bodyCaption(body)))
	out.WriteString("\n\n")

	if !utf8.Valid(body.Data) {
		out.WriteString(th.BodyPlaceholder.Render("Binary content, showing a hex preview."))
		out.WriteString("\n")
		out.WriteString(th.BodyContent.Render(hexPreview(body.Data)))
		return out.String()
	}

	mediaType := mediaTypeOf(body.ContentType)
	text := strings.ReplaceAll(string(body.Data), "\t", strings.Repeat(" ", bodyTabWidth))
	if isJSONMediaType(mediaType) {
		text = prettyJSON(text)
	}
	text = truncateLines(text, width)
	highlighted, ok := highlight(text, mediaType, th.SyntaxStyle)
	if !ok {
		highlighted = th.BodyContent.Render(text)
	}
	out.WriteString(highlighted)
	if body.Truncated {
		out.WriteString("\n")
		out.WriteString(th.ItemMore.Render(fmt.Sprintf("… truncated after %s", humanize.IBytes(uint64(len(body.Data))))))
	}
	return out.String()
}

func bodyCaption(body *inspector.Body) string {
	parts := []string{humanize.IBytes(uint64(maxInt64(body.Size, int64(len(body.Data)))))}
	if ct := strings.TrimSpace(body.ContentType); ct != "" {
		parts = append(parts, ct)
	}
	return strings.Join(parts, " · ")
}

func mediaTypeOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func isJSONMediaType(mt string) bool {
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func prettyJSON(text string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(text), "", "  "); err != nil {
		return text
	}
	return buf.String()
}

// highlight colours text with chroma. It reports false when colour is
// disabled or no lexer fits.
func highlight(text, mediaType, styleName string) (string, bool) {
	if lipgloss.ColorProfile() == termenv.Ascii {
		return "", false
	}
	lexer := lexerFor(text, mediaType)
	if lexer == nil {
		return "", false
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return "", false
	}
	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", false
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", false
	}
	return strings.TrimRight(buf.String(), "\n"), true
}

func lexerFor(text, mediaType string) chroma.Lexer {
	if mediaType != "" {
		if l := lexers.MatchMimeType(mediaType); l != nil {
			return l
		}
		switch {
		case isJSONMediaType(mediaType):
			return lexers.Get("json")
		case strings.HasSuffix(mediaType, "+xml"):
			return lexers.Get("xml")
		}
	}
	return lexers.Analyse(text)
}

// truncateLines cuts every line to width cells on grapheme boundaries.
func truncateLines(text string, width int) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = truncateGraphemes(line, width)
	}
	return strings.Join(lines, "\n")
}

func truncateGraphemes(line string, width int) string {
	if width <= 0 || uniseg.StringWidth(line) <= width {
		return line
	}
	limit := width - uniseg.StringWidth(ellipsis)
	var b strings.Builder
	used := 0
	state := -1
	rest := line
	for rest != "" {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > limit {
			break
		}
		b.WriteString(cluster)
		used += w
	}
	b.WriteString(ellipsis)
	return b.String()
}

func hexPreview(data []byte) string {
	n := minInt(len(data), binaryPreviewBytes)
	var b strings.Builder
	for off := 0; off < n; off += 16 {
		end := minInt(off+16, n)
		fmt.Fprintf(&b, "%08x  % x\n", off, data[off:end])
	}
	if len(data) > n {
		fmt.Fprintf(&b, "… %s more", humanize.IBytes(uint64(len(data)-n)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
