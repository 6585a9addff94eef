package logger

import (
	"strconv"
	"strings"
	"sync"
)

// sampleGate passes a fixed share of records: with ratio pass/window, the
// first pass records of every window go through and the rest are dropped.
// A zero window disables gating and every record passes.
type sampleGate struct {
	mu     sync.Mutex
	pass   int
	window int
	pos    int
}

func newSampleGate(pass, window int) *sampleGate {
	g := &sampleGate{}
	g.Set(pass, window)
	return g
}

// Set reconfigures the ratio and restarts the window.
func (g *sampleGate) Set(pass, window int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if pass <= 0 || window <= 0 {
		g.pass = 0
		g.window = 0
		g.pos = 0
		return
	}
	if pass > window {
		pass = window
	}
	g.pass = pass
	g.window = window
	g.pos = 0
}

// Allow reports whether the current record falls inside the passing share.
func (g *sampleGate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.window <= 0 {
		return true
	}
	g.pos++
	if g.pos > g.window {
		g.pos = 1
	}
	return g.pos <= g.pass
}

// parseSampleSpec understands "n/m" and the shorthand "m" (one of every m).
// Anything unparseable comes back as 0, 0.
func parseSampleSpec(spec string) (pass, window int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if left, right, found := strings.Cut(spec, "/"); found {
		p, perr := strconv.Atoi(strings.TrimSpace(left))
		w, werr := strconv.Atoi(strings.TrimSpace(right))
		if perr != nil || werr != nil {
			return 0, 0
		}
		return p, w
	}
	w, err := strconv.Atoi(spec)
	if err != nil || w <= 0 {
		return 0, 0
	}
	return 1, w
}
