package terminal

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"bookshelf/internal/controller"
	dom "bookshelf/internal/domain"
	"bookshelf/internal/view"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Output formats for WriteShelves.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// WriteShelves prints s in the given format.
func WriteShelves(w io.Writer, s view.Shelves, format string, styles Styles) error {
	switch format {
	case "", FormatTable:
		_, err := io.WriteString(w, renderShelves(s, styles))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func renderShelves(s view.Shelves, styles Styles) string {
	var sb strings.Builder
	if s.Query != "" {
		sb.WriteString(styles.Muted.Render(fmt.Sprintf("Search: %q", s.Query)))
		sb.WriteString("\n\n")
	}
	writeShelf(&sb, controller.ShelfLabel(dom.Book{IsComplete: false}), s.Incomplete, styles)
	sb.WriteString("\n")
	writeShelf(&sb, controller.ShelfLabel(dom.Book{IsComplete: true}), s.Complete, styles)
	return sb.String()
}

func writeShelf(sb *strings.Builder, title string, books []dom.Book, styles Styles) {
	sb.WriteString(styles.Title.Render(fmt.Sprintf("%s (%d)", title, len(books))))
	sb.WriteString("\n")
	if len(books) == 0 {
		sb.WriteString(styles.Muted.Render("  (empty)"))
		sb.WriteString("\n")
		return
	}

	headers := []string{"ID", "Title", "Author", "Year"}
	rows := make([][]string, len(books))
	for i, b := range books {
		rows[i] = []string{strconv.FormatInt(b.ID, 10), b.Title, b.Author, strconv.Itoa(b.Year)}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	// padding is counted in the style width
	for i := range widths {
		widths[i] += 2
	}

	writeRow(sb, headers, widths, styles.Header)
	for _, row := range rows {
		writeRow(sb, row, widths, styles.Cell)
	}
}

func writeRow(sb *strings.Builder, cells []string, widths []int, style lipgloss.Style) {
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = style.Width(widths[i]).Render(cell)
	}
	sb.WriteString(strings.TrimRight(strings.Join(out, "│"), " "))
	sb.WriteString("\n")
}

// Sink prints every render it receives. With Quiet set it only remembers the
// last one, so a command can print once at the end.
type Sink struct {
	mu     sync.Mutex
	w      io.Writer
	styles Styles
	quiet  bool
	last   view.Shelves
	seen   bool
}

func NewSink(w io.Writer, styles Styles, quiet bool) *Sink {
	return &Sink{w: w, styles: styles, quiet: quiet}
}

func (s *Sink) Replace(sh view.Shelves) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last, s.seen = sh, true
	if !s.quiet {
		_, _ = io.WriteString(s.w, renderShelves(sh, s.styles))
	}
}

// Last returns the most recent render.
func (s *Sink) Last() (view.Shelves, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.seen
}
