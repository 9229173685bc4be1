package models

import (
	"strings"
	"sync"
)

// TerminalMarker is the log substring the backtest service prints last.
const TerminalMarker = "Maximum Draw-down"

const SubmissionErrorLine = "Error: Failed to start backtest"

// ConnectionLostLine is appended when a push stream drops unexpectedly.
const ConnectionLostLine = "Error: Lost connection to backtest server"

func IsTerminalLine(line string) bool {
	return strings.Contains(line, TerminalMarker)
}

// LogBuffer is an append-only list of log lines shared between the
// transports and the view.
type LogBuffer struct {
	mutex    sync.Mutex
	lines    []string
	onAppend func(lines []string)
}

func NewLogBuffer() *LogBuffer {
	return &LogBuffer{}
}

// OnAppend registers a hook called with every appended batch, after the
// lines are stored.
func (b *LogBuffer) OnAppend(hook func(lines []string)) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.onAppend = hook
}

func (b *LogBuffer) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	b.mutex.Lock()
	b.lines = append(b.lines, lines...)
	hook := b.onAppend
	b.mutex.Unlock()

	if hook != nil {
		hook(lines)
	}
}

func (b *LogBuffer) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.lines = nil
}

func (b *LogBuffer) Lines() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	lines := make([]string, len(b.lines))
	copy(lines, b.lines)
	return lines
}

func (b *LogBuffer) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.lines)
}
