package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBufferKeepsOrderAndDuplicates(t *testing.T) {
	buffer := NewLogBuffer()
	buffer.Append("a", "b")
	buffer.Append()
	buffer.Append("b", "a")

	assert.Equal(t, []string{"a", "b", "b", "a"}, buffer.Lines())
	assert.Equal(t, 4, buffer.Len())

	buffer.Reset()
	assert.Empty(t, buffer.Lines())
}

func TestLogBufferOnAppend(t *testing.T) {
	buffer := NewLogBuffer()
	var batches [][]string
	buffer.OnAppend(func(lines []string) {
		batches = append(batches, lines)
	})

	buffer.Append("one")
	buffer.Append("two", "three")
	assert.Equal(t, [][]string{{"one"}, {"two", "three"}}, batches)
}

func TestLogBufferLinesIsACopy(t *testing.T) {
	buffer := NewLogBuffer()
	buffer.Append("a")
	lines := buffer.Lines()
	lines[0] = "changed"
	assert.Equal(t, []string{"a"}, buffer.Lines())
}

func TestIsTerminalLine(t *testing.T) {
	assert.True(t, IsTerminalLine("Maximum Draw-down: 5%"))
	assert.True(t, IsTerminalLine("\tMaximum Draw-down\t12.3"))
	assert.False(t, IsTerminalLine("maximum draw-down: 5%"))
	assert.False(t, IsTerminalLine("Maximum Drawdown"))
}
