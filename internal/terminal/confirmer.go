package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"bookshelf/internal/controller"
)

// Confirmer asks prompts on a line-oriented terminal.
//
// A text prompt shows the current value; Enter keeps it and any other line
// replaces it. A yes/no prompt accepts only "y" or "yes". End of input
// cancels either kind.
type Confirmer struct {
	in     *bufio.Reader
	out    io.Writer
	styles Styles
}

func NewConfirmer(in io.Reader, out io.Writer, styles Styles) *Confirmer {
	return &Confirmer{in: bufio.NewReader(in), out: out, styles: styles}
}

func (c *Confirmer) Confirm(ctx context.Context, p controller.Prompt) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	title := p.Title
	if p.Icon != "" {
		title = p.Icon + " " + title
	}
	fmt.Fprintln(c.out, c.styles.Title.Render(title))
	if p.Input == nil {
		fmt.Fprintf(c.out, "%s %s ", p.Message, c.styles.Prompt.Render(fmt.Sprintf("%s? [y/N]", p.ConfirmLabel)))
		line, ok, err := c.readLine()
		if err != nil || !ok {
			return "", false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return "", true, nil
		}
		return "", false, nil
	}

	fmt.Fprintf(c.out, "%s %s ", p.Message, c.styles.Muted.Render(fmt.Sprintf("[%s]", p.Input.Value)))
	line, ok, err := c.readLine()
	if err != nil || !ok {
		return "", false, err
	}
	if strings.TrimSpace(line) == "" {
		return p.Input.Value, true, nil
	}
	return line, true, nil
}

// readLine returns ok=false at end of input.
func (c *Confirmer) readLine() (string, bool, error) {
	line, err := c.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(c.out)
		if line == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}
