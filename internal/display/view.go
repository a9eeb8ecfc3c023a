package display

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/jhalloran/cookieprof/internal/store"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// View renders site summaries to an io.Writer.
//
// Run subscribes to the store and redraws on every update. Redraws are
// full-screen when ANSI is enabled, or appended blocks otherwise (for
// pipes and dumb terminals).
type View struct {
	store  store.Store
	out    io.Writer
	order  []string
	ansi   bool
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a [View].
//
// order fixes the on-screen ordering of sites (configuration order);
// sites not yet present in the store are rendered as pending. ansi
// selects full-screen redraws via ANSI escapes.
func New(st store.Store, out io.Writer, order []string, ansi bool, logger *slog.Logger) *View {
	return &View{
		store:  st,
		out:    out,
		order:  append([]string(nil), order...),
		ansi:   ansi,
		logger: logger,
	}
}

// Run draws the initial state, then redraws after every store update
// until the context is cancelled. Blocking; run it on its own goroutine.
func (v *View) Run(ctx context.Context) {
	updates := v.store.Subscribe()
	defer v.store.Unsubscribe(updates)

	v.redraw()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			v.redraw()
		}
	}
}

// redraw writes one block per site, separated by blank lines.
func (v *View) redraw() {
	statuses := make(map[string]store.SiteStatus)
	for _, s := range v.store.GetAll() {
		statuses[s.Name] = s
	}

	var b strings.Builder
	if v.ansi {
		b.WriteString(clearScreen)
	}

	for i, name := range v.order {
		if i > 0 {
			b.WriteString("\n")
		}
		s, ok := statuses[name]
		if !ok {
			fmt.Fprintf(&b, "=== %s\nwaiting for first poll\n", name)
			continue
		}
		fmt.Fprintf(&b, "=== %s (%s)\n%s\n", s.Name, s.URL, s.Summary)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := io.WriteString(v.out, b.String()); err != nil {
		v.logger.Warn("display write failed", "error", err.Error())
	}
}
