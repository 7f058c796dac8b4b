package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/darmiel/riegel/internal/core"
)

// terminalResponder answers factor challenges from the controlling
// terminal. Sensitive answers are read without echo.
type terminalResponder struct {
	in     *os.File
	out    *os.File
	reader *bufio.Reader
}

func newTerminalResponder() *terminalResponder {
	return &terminalResponder{
		in:     os.Stdin,
		out:    os.Stderr,
		reader: bufio.NewReader(os.Stdin),
	}
}

func (t *terminalResponder) Respond(ctx context.Context, challenge core.Challenge) (string, error) {
	fmt.Fprintf(t.out, "%s: ", bold(challenge.Prompt))

	type answer struct {
		text string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		text, err := t.read(challenge.Sensitive)
		ch <- answer{text: text, err: err}
	}()

	// A read blocked on stdin cannot be interrupted; when the factor's
	// window closes first the goroutine stays parked until the process
	// exits.
	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return "", ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return "", fmt.Errorf("reading answer: %w", a.err)
		}
		return strings.TrimSpace(a.text), nil
	}
}

func (t *terminalResponder) read(sensitive bool) (string, error) {
	if sensitive && term.IsTerminal(int(t.in.Fd())) {
		defer fmt.Fprintln(t.out)
		raw, err := term.ReadPassword(int(t.in.Fd()))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return t.reader.ReadString('\n')
}
