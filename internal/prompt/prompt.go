// Package prompt implements host.Prompter for a line-based terminal.
package prompt

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hpungsan/pockets/internal/host"
)

const maxPickAttempts = 3

// Terminal asks questions on out and reads answers line by line from in.
// An empty answer (or EOF) cancels unless a default value was offered.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

var _ host.Prompter = (*Terminal)(nil)

// NewTerminal returns a prompter over in and out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) readLine(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	line, err := t.in.ReadString('\n')
	if err != nil && !stderrors.Is(err, io.EOF) {
		return "", false, err
	}
	if stderrors.Is(err, io.EOF) && line == "" {
		return "", false, nil
	}
	return strings.TrimSpace(line), true, nil
}

// TextInput prompts for free text. value is offered as the default.
func (t *Terminal) TextInput(ctx context.Context, placeholder, value string) (string, bool, error) {
	if value != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", placeholder, value)
	} else {
		fmt.Fprintf(t.out, "%s: ", placeholder)
	}

	line, ok, err := t.readLine(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	if line == "" {
		if value == "" {
			return "", false, nil
		}
		return value, true, nil
	}
	return line, true, nil
}

// Pick lists options and accepts a 1-based number or an exact label.
func (t *Terminal) Pick(ctx context.Context, options []host.Option, placeholder string) (host.Option, bool, error) {
	if len(options) == 0 {
		return host.Option{}, false, nil
	}

	fmt.Fprintln(t.out, placeholder)
	for i, o := range options {
		if o.Description != "" {
			fmt.Fprintf(t.out, "  %d) %s  %s\n", i+1, o.Label, o.Description)
		} else {
			fmt.Fprintf(t.out, "  %d) %s\n", i+1, o.Label)
		}
	}

	for attempt := 0; attempt < maxPickAttempts; attempt++ {
		fmt.Fprint(t.out, "> ")
		line, ok, err := t.readLine(ctx)
		if err != nil || !ok || line == "" {
			return host.Option{}, false, err
		}
		if o, found := match(options, line); found {
			return o, true, nil
		}
		fmt.Fprintf(t.out, "%q is not one of the options\n", line)
	}
	return host.Option{}, false, nil
}

func match(options []host.Option, answer string) (host.Option, bool) {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	for _, o := range options {
		if o.Label == answer {
			return o, true
		}
	}
	return host.Option{}, false
}

// Disabled cancels every prompt. It is used when no user is attached
// (MCP, piped stdin).
type Disabled struct{}

var _ host.Prompter = Disabled{}

func (Disabled) TextInput(ctx context.Context, placeholder, value string) (string, bool, error) {
	return "", false, nil
}

func (Disabled) Pick(ctx context.Context, options []host.Option, placeholder string) (host.Option, bool, error) {
	return host.Option{}, false, nil
}
