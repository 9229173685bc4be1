package mocks

import (
	"context"
	"sync"

	"gitlab.com/aoterocom/AOBacktester/models"
)

// BacktestServiceMock answers FetchNewLines from a scripted list of
// responses, one per call. Once the script runs out it returns no lines.
type BacktestServiceMock struct {
	mutex      sync.Mutex
	StartErr   error
	Responses  [][]string
	FetchErrs  []error
	Submitted  []models.BacktestConfig
	fetchCalls int
	Fetched    chan int
	Method     models.RunMethod
}

func NewBacktestServiceMock(responses ...[]string) *BacktestServiceMock {
	return &BacktestServiceMock{
		Responses: responses,
		Fetched:   make(chan int, 64),
		Method:    models.RunMethodPost,
	}
}

func (m *BacktestServiceMock) StartBacktest(ctx context.Context, config models.BacktestConfig) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	m.Submitted = append(m.Submitted, config.Copy())
	return nil
}

func (m *BacktestServiceMock) FetchNewLines(ctx context.Context) ([]string, error) {
	m.mutex.Lock()
	call := m.fetchCalls
	m.fetchCalls++
	var lines []string
	var err error
	if call < len(m.FetchErrs) {
		err = m.FetchErrs[call]
	}
	if err == nil && call < len(m.Responses) {
		lines = m.Responses[call]
	}
	m.mutex.Unlock()

	defer func() {
		select {
		case m.Fetched <- call + 1:
		default:
		}
	}()
	return lines, err
}

func (m *BacktestServiceMock) RunMethod() models.RunMethod {
	return m.Method
}

func (m *BacktestServiceMock) FetchCalls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.fetchCalls
}
