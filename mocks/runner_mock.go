package mocks

import (
	"context"
	"sync"

	"gitlab.com/aoterocom/AOBacktester/models"
)

// RunnerMock holds every Run until Release is closed or receives a value.
type RunnerMock struct {
	mutex   sync.Mutex
	Release chan struct{}
	RunErr  error
	runs    int
	active  bool
}

func NewRunnerMock() *RunnerMock {
	return &RunnerMock{Release: make(chan struct{})}
}

func (m *RunnerMock) Run(ctx context.Context) (models.RunHandle, error) {
	m.mutex.Lock()
	m.runs++
	m.mutex.Unlock()

	select {
	case <-m.Release:
	case <-ctx.Done():
		return models.RunHandle{}, ctx.Err()
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.RunErr != nil {
		return models.RunHandle{}, m.RunErr
	}
	m.active = true
	return models.NewRunHandle(models.RunMethodPost), nil
}

func (m *RunnerMock) Stop() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.active = false
}

func (m *RunnerMock) Active() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.active
}

func (m *RunnerMock) Runs() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.runs
}
