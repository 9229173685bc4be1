package mocks

import (
	"context"
	"sync"
)

type LogStreamMock struct {
	mutex      sync.Mutex
	ConnectErr error
	RunErr     error
	Connects   int
	Runs       int
	Closed     bool
	onLine     func(line string)
	done       chan struct{}
}

func (m *LogStreamMock) Connect(ctx context.Context, onLine func(line string)) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Connects++
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.onLine = onLine
	m.done = make(chan struct{})
	return nil
}

func (m *LogStreamMock) RunBacktest(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Runs++
	return m.RunErr
}

func (m *LogStreamMock) Done() <-chan struct{} {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.done == nil {
		m.done = make(chan struct{})
		close(m.done)
	}
	return m.done
}

func (m *LogStreamMock) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Closed = true
	m.closeDoneLocked()
	return nil
}

// Drop ends the current connection as if the server went away.
func (m *LogStreamMock) Drop() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closeDoneLocked()
}

func (m *LogStreamMock) closeDoneLocked() {
	if m.done == nil {
		return
	}
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

// Emit delivers lines as if the server pushed them.
func (m *LogStreamMock) Emit(lines ...string) {
	m.mutex.Lock()
	onLine := m.onLine
	m.mutex.Unlock()
	for _, line := range lines {
		onLine(line)
	}
}

func (m *LogStreamMock) ConnectCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.Connects
}
