// Package repl runs the interactive read-execute loop: a background
// goroutine reads program text and hands it off through a
// lock-protected cell, while the foreground loop drains that cell and
// runs each program against a fresh Calculator, grounded in the
// teacher's sync.Once-guarded shutdown pattern (main.go's
// performShutdown) but applied to "one program run at a time" instead
// of "one server shutdown".
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/axe-run/axe-interpreter/config"
	"github.com/axe-run/axe-interpreter/display"
	"github.com/axe-run/axe-interpreter/keymap"
	"github.com/axe-run/axe-interpreter/parser"
	"github.com/axe-run/axe-interpreter/vm"
)

// Reader owns the shared string cell spec.md §5 describes: a
// background goroutine stores each whole program submission in it
// under a mutex, replacing any submission not yet taken, and the REPL
// loop takes the latest one.
type Reader struct {
	mu      sync.Mutex
	pending string
	has     bool
	closed  bool
}

// NewReader starts a goroutine reading newline-terminated program
// submissions from src (a blank line ends one submission) until src is
// exhausted or closed.
func NewReader(src io.Reader) *Reader {
	r := &Reader{}
	go r.readLoop(src)
	return r
}

func (r *Reader) readLoop(src io.Reader) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var buf []byte
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			r.submit(string(buf))
			buf = buf[:0]
			continue
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	if len(buf) > 0 {
		r.submit(string(buf))
	}
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Reader) submit(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = text
	r.has = true
}

// Take returns the most recently submitted program text, if any has
// arrived since the last Take, and whether the source has closed.
func (r *Reader) Take() (text string, ok bool, closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.has {
		text, r.pending, r.has = r.pending, "", false
		return text, true, r.closed
	}
	return "", false, r.closed
}

// Session runs successive programs read from a Reader, clearing
// Calculator state between runs per spec.md §5 ("inter-run state MUST
// be cleared on each new execute").
type Session struct {
	Cfg      *config.Config
	Bindings *keymap.Bindings
	Out      io.Writer

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewSession builds a Session ready to run programs against newDisplay.
func NewSession(cfg *config.Config, bindings *keymap.Bindings, out io.Writer) *Session {
	return &Session{Cfg: cfg, Bindings: bindings, Out: out, stopped: make(chan struct{})}
}

// Stop signals the session to end after its current run, safe to call
// more than once or concurrently with Run.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

// RunOnce lexes, parses, flattens, and executes one program's source
// text against a freshly constructed Calculator/Driver pair, returning
// any error the run produced. LexError/SyntaxError are reported and
// swallowed (the REPL continues); a SystemExit is returned so the
// caller can decide whether to keep looping.
func (s *Session) RunOnce(source string, newDisplay func() (display.Display, error)) error {
	p := parser.NewParser(source, "<repl>")
	program, err := p.Parse()
	if err != nil {
		fmt.Fprintln(s.Out, err)
		return nil
	}

	code := vm.Flatten(program)

	d, err := newDisplay()
	if err != nil {
		return fmt.Errorf("repl: creating display: %w", err)
	}
	defer d.Close()
	d.SetTitle(s.Cfg.Display.Title)

	calc := vm.NewCalculator(d, s.Bindings)
	driver := vm.NewDriver(code, calc, s.Cfg.Display.Scale)
	driver.PauseRatio = s.Cfg.Execution.PauseRatio
	driver.Diagnostic = s.Cfg.Trace.Diagnostic
	driver.Out = s.Out

	runErr := driver.Run()
	if runErr == nil {
		return nil
	}

	var exit *vm.SystemExit
	if errors.As(runErr, &exit) {
		return runErr
	}

	var missing *vm.MissingLabel
	if errors.As(runErr, &missing) {
		fmt.Fprintln(s.Out, missing)
		return nil
	}

	var rt *vm.RuntimeError
	if errors.As(runErr, &rt) {
		fmt.Fprintln(s.Out, rt)
		return nil
	}

	return runErr
}

// Run drains r, executing each submitted program in turn, until r
// closes, Stop is called, or a run returns a SystemExit.
func (s *Session) Run(r *Reader, newDisplay func() (display.Display, error)) error {
	for {
		select {
		case <-s.stopped:
			return nil
		default:
		}

		text, ok, closed := r.Take()
		if !ok {
			if closed {
				return nil
			}
			time.Sleep(20 * time.Millisecond)
			continue
		}

		if err := s.RunOnce(text, newDisplay); err != nil {
			return err
		}
	}
}
