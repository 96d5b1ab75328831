package textcheck

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// ErrNotStarted is returned by ProcessChecker.Check before Start.
var ErrNotStarted = errors.New("spell process is not started")

// ProcessChecker checks spelling with a long-lived external process. The
// process reads one line of space-separated words per request and answers
// with one line holding the words it does not know.
type ProcessChecker struct {
	Command string
	Args    []string

	mu   sync.Mutex
	cmd  *exec.Cmd
	in   io.WriteCloser
	out  *bufio.Reader
	done chan struct{}
}

// Start launches the process. Starting a running checker does nothing.
func (c *ProcessChecker) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd != nil {
		return nil
	}
	cmd := exec.Command(c.Command, c.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return err
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return err
	}
	c.cmd = cmd
	c.in = stdin
	c.out = bufio.NewReader(stdout)
	c.done = make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(c.done)
	}()
	return nil
}

// Stop kills the process if it is running.
func (c *ProcessChecker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil {
		return
	}
	_ = c.in.Close()
	_ = c.cmd.Process.Kill()
	<-c.done
	c.cmd = nil
	c.in = nil
	c.out = nil
	c.done = nil
}

// Check reports each word of req.Text that the process returns as a
// Spelling result. Other kinds are not supported and are ignored.
func (c *ProcessChecker) Check(ctx context.Context, req Request) ([]Result, error) {
	if req.Kinds&Spelling == 0 {
		return nil, nil
	}
	words := Words(req.Text)
	if len(words) == 0 {
		return nil, nil
	}
	unknown, err := c.lookup(ctx, words)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, w := range words {
		if unknown[strings.ToLower(w.Text)] {
			results = append(results, Result{Kind: Spelling, Offset: w.Offset, Length: w.Length})
		}
	}
	return results, nil
}

func (c *ProcessChecker) lookup(ctx context.Context, words []Word) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil {
		return nil, ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var line strings.Builder
	for i, w := range words {
		if i > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w.Text)
	}
	line.WriteByte('\n')
	if _, err := io.WriteString(c.in, line.String()); err != nil {
		return nil, err
	}
	resp, err := c.out.ReadString('\n')
	if err != nil {
		return nil, err
	}

	unknown := make(map[string]bool)
	for _, f := range strings.Fields(resp) {
		unknown[strings.ToLower(f)] = true
	}
	return unknown, ctx.Err()
}
