// Package console reads user input line by line without blocking the caller
// past cancellation. A single goroutine owns the reader and feeds lines into
// a channel; Prompt waits on that channel and on the caller's context.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInterrupted is returned by Prompt when the context is cancelled while
// waiting for input.
var ErrInterrupted = errors.New("input interrupted")

// MaxLineSize is the longest line Prompt accepts. Longer input ends the
// stream with a read error.
const MaxLineSize = 1 << 20

// Console is a prompt/reply terminal. It is used from one goroutine at a time.
type Console struct {
	out   io.Writer
	lines chan string
	done  chan struct{}
	once  sync.Once

	// err is written by the reader before lines is closed.
	err error
}

// New starts reading in. Call Close when finished so the reader goroutine
// stops delivering lines.
func New(in io.Reader, out io.Writer) *Console {
	c := &Console{
		out:   out,
		lines: make(chan string),
		done:  make(chan struct{}),
	}
	go c.read(in)
	return c
}

func (c *Console) read(in io.Reader) {
	defer close(c.lines)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for sc.Scan() {
		select {
		case c.lines <- sc.Text():
		case <-c.done:
			return
		}
	}
	c.err = sc.Err()
}

// Prompt writes label and waits for one line. The line is returned with
// surrounding whitespace removed. End of input yields io.EOF and a cancelled
// context yields ErrInterrupted.
func (c *Console) Prompt(ctx context.Context, label string) (string, error) {
	if label != "" {
		fmt.Fprint(c.out, label)
	}
	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", ErrInterrupted
	case line, ok := <-c.lines:
		if !ok {
			if c.err != nil {
				return "", fmt.Errorf("failed to read input: %w", c.err)
			}
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

// Println writes a line of output.
func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

// Printf writes formatted output.
func (c *Console) Printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

// Writer returns the output destination.
func (c *Console) Writer() io.Writer { return c.out }

// Close stops delivering input. A reader blocked inside the underlying
// io.Reader returns once that read completes.
func (c *Console) Close() {
	c.once.Do(func() { close(c.done) })
}

// IsEnd reports whether err ends the conversation: end of input or an
// interrupt.
func IsEnd(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted)
}
