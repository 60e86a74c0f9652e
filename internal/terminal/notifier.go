package terminal

import (
	"fmt"
	"io"
	"sync"
	"time"

	"bookshelf/internal/controller"
)

// Notifier prints each notice as one styled line. A terminal cannot take a
// line back, so the duration is not used.
type Notifier struct {
	mu     sync.Mutex
	w      io.Writer
	styles Styles
}

func NewNotifier(w io.Writer, styles Styles) *Notifier {
	return &Notifier{w: w, styles: styles}
}

func (n *Notifier) Notify(message string, severity controller.Severity, _ time.Duration) {
	var icon string
	style := n.styles.Info
	switch severity {
	case controller.SeveritySuccess:
		icon, style = "✓", n.styles.Success
	case controller.SeverityError:
		icon, style = "✗", n.styles.Error
	default:
		icon = "i"
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, style.Render(icon+" "+message))
}
