// Package keymap loads the host-key -> Axe-key-code bindings file
// described in spec.md §6 and defines the fixed Axe key-code space
// GetKey/is_key_pressed/is_any_key_pressed address into.
package keymap

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Axe key codes. Digits and the arithmetic/navigation keys are the
// ones Axe programs reference most; the numbering is this
// implementation's own, not a hardware-register fidelity claim.
const (
	KeyDown = iota + 1
	KeyLeft
	KeyRight
	KeyUp
	KeyEnter
	KeyClear
	KeyKey0
	KeyKey1
	KeyKey2
	KeyKey3
	KeyKey4
	KeyKey5
	KeyKey6
	KeyKey7
	KeyKey8
	KeyKey9
	KeyDecimal
	KeyNegative
	KeyAdd
	KeySub
	KeyMul
	KeyDiv
	KeyOn
)

// names maps the spelling used in a key-bindings file (case-folded)
// to its Axe key code.
var names = map[string]int{
	"down": KeyDown, "left": KeyLeft, "right": KeyRight, "up": KeyUp,
	"enter": KeyEnter, "clear": KeyClear,
	"0": KeyKey0, "1": KeyKey1, "2": KeyKey2, "3": KeyKey3, "4": KeyKey4,
	"5": KeyKey5, "6": KeyKey6, "7": KeyKey7, "8": KeyKey8, "9": KeyKey9,
	"decimal": KeyDecimal, "negative": KeyNegative,
	"add": KeyAdd, "sub": KeySub, "mul": KeyMul, "div": KeyDiv,
	"on": KeyOn,
}

// LockKeys are excluded from is_any_key_pressed: ON is a hardware
// power/lock key on real Axe-targeted calculators, not a program
// input, so a held ON key must never look like "some key is pressed"
// to a running program.
var LockKeys = map[int]bool{KeyOn: true}

// CodeForName looks up an Axe key code by its bindings-file spelling.
func CodeForName(name string) (int, bool) {
	code, ok := names[strings.ToLower(name)]
	return code, ok
}

// Bindings maps a host key name (as reported by a display.Display
// backend, e.g. "ArrowDown", "Enter", "5") to an Axe key code.
type Bindings struct {
	hostToAxe map[string]int
}

// Default returns the built-in binding set used when no key-bindings
// file is configured: arrow keys, Enter, Backspace-as-Clear, and the
// digit/operator keys map to their like-named host keys.
func Default() *Bindings {
	b := &Bindings{hostToAxe: map[string]int{
		"ArrowDown": KeyDown, "ArrowLeft": KeyLeft,
		"ArrowRight": KeyRight, "ArrowUp": KeyUp,
		"Enter": KeyEnter, "Backspace": KeyClear,
		"0": KeyKey0, "1": KeyKey1, "2": KeyKey2, "3": KeyKey3, "4": KeyKey4,
		"5": KeyKey5, "6": KeyKey6, "7": KeyKey7, "8": KeyKey8, "9": KeyKey9,
		".": KeyDecimal, "-": KeyNegative,
		"+": KeyAdd, "*": KeyMul, "/": KeyDiv,
	}}
	return b
}

// Load parses a colon-separated key-bindings file: each non-blank,
// non-'#'-comment line is "HostKey:AxeName". Lines that fail to parse
// are reported but do not abort the load; the caller gets back
// whatever bound successfully.
func Load(path string) (*Bindings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("keymap: opening %s: %w", path, err)
	}
	defer f.Close()

	b := &Bindings{hostToAxe: map[string]int{}}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	var errs []string
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			errs = append(errs, fmt.Sprintf("%s:%d: expected HostKey:AxeName", path, lineNo))
			continue
		}
		hostKey := strings.TrimSpace(parts[0])
		axeName := strings.TrimSpace(parts[1])
		code, ok := CodeForName(axeName)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s:%d: unknown Axe key name %q", path, lineNo, axeName))
			continue
		}
		b.hostToAxe[hostKey] = code
	}
	if err := scanner.Err(); err != nil {
		return b, err
	}
	if len(errs) > 0 {
		return b, fmt.Errorf("keymap: %s", strings.Join(errs, "; "))
	}
	return b, nil
}

// Resolve looks up the Axe key code bound to a host key name.
func (b *Bindings) Resolve(hostKey string) (int, bool) {
	code, ok := b.hostToAxe[hostKey]
	return code, ok
}
