// Package format renders HTTP response bodies for the terminal.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
)

// MaxBodySize is the largest body Body will render.
const MaxBodySize = 2 * 1024 * 1024

// ansiEscapeRegex matches ANSI escape sequences.
var ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\][^\x07]*\x07`)

// sanitize removes escape sequences and control characters a server could
// use to rewrite the terminal. Tabs and newlines are kept.
func sanitize(s string) string {
	s = ansiEscapeRegex.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// Kind classifies a Content-Type header value: json, markdown, html, xml,
// yaml, text or binary.
func Kind(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return "json"
	case mediaType == "text/markdown":
		return "markdown"
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return "html"
	case mediaType == "application/xml" || mediaType == "text/xml" || strings.HasSuffix(mediaType, "+xml"):
		return "xml"
	case mediaType == "application/yaml" || mediaType == "application/x-yaml" || mediaType == "text/yaml":
		return "yaml"
	case strings.HasPrefix(mediaType, "text/"), mediaType == "", mediaType == "application/javascript":
		return "text"
	default:
		return "binary"
	}
}

// Body renders a response body according to its content type. JSON is
// indented; on a TTY, JSON, HTML, XML and YAML are syntax highlighted and
// markdown is rendered. Binary bodies are summarised.
func Body(contentType string, body []byte, isTTY bool) (string, error) {
	if len(body) > MaxBodySize {
		return "", fmt.Errorf("body size (%d bytes) exceeds maximum of %d bytes", len(body), MaxBodySize)
	}

	kind := Kind(contentType)
	if kind == "text" && !utf8.Valid(body) {
		kind = "binary"
	}
	if kind == "binary" {
		return fmt.Sprintf("[%d bytes of %s]", len(body), contentType), nil
	}

	content := sanitize(string(body))
	switch kind {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(content), "", "  "); err != nil {
			// Malformed JSON is shown as-is.
			return content, nil
		}
		return highlight(buf.String(), "json", isTTY), nil
	case "markdown":
		return markdown(content, isTTY), nil
	case "html", "xml", "yaml":
		return highlight(content, kind, isTTY), nil
	default:
		return content, nil
	}
}

func highlight(content, lexer string, isTTY bool) string {
	if !isTTY {
		return content
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, content, lexer, "terminal256", "monokai"); err != nil {
		return content
	}
	return buf.String()
}

func markdown(content string, isTTY bool) string {
	if !isTTY {
		return content
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
