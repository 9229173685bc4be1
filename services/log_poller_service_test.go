package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/aoterocom/AOBacktester/mocks"
	"gitlab.com/aoterocom/AOBacktester/models"
)

const waitFor = 2 * time.Second

type fakeTicker struct {
	c     chan time.Time
	stops int32
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { atomic.AddInt32(&t.stops, 1) }
func (t *fakeTicker) Stops() int          { return int(atomic.LoadInt32(&t.stops)) }
func (t *fakeTicker) Tick()               { t.c <- time.Now() }

type fakeClock struct {
	mutex   sync.Mutex
	tickers []*fakeTicker
}

func (fc *fakeClock) NewTicker(time.Duration) Ticker {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()
	ticker := &fakeTicker{c: make(chan time.Time, 1)}
	fc.tickers = append(fc.tickers, ticker)
	return ticker
}

func (fc *fakeClock) Ticker(i int) *fakeTicker {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()
	return fc.tickers[i]
}

func (fc *fakeClock) Count() int {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()
	return len(fc.tickers)
}

func newTestPoller(service *mocks.BacktestServiceMock) (*LogPollerService, *models.LogBuffer, *fakeClock) {
	buffer := models.NewLogBuffer()
	clock := &fakeClock{}
	poller := NewLogPollerService(service, buffer, 100*time.Millisecond)
	poller.SetTickerFactory(clock.NewTicker)
	return poller, buffer, clock
}

func TestPollerStopsOnTerminalMarker(t *testing.T) {
	service := mocks.NewBacktestServiceMock(
		[]string{"a"},
		[]string{"b", "Maximum Draw-down: 5%"},
		[]string{"c"},
	)
	poller, buffer, clock := newTestPoller(service)
	var completed []string
	poller.SetOnComplete(func(line string) { completed = append(completed, line) })

	poller.Start()
	ticker := clock.Ticker(0)

	ticker.Tick()
	require.Eventually(t, func() bool { return buffer.Len() == 1 }, waitFor, time.Millisecond)

	ticker.Tick()
	select {
	case <-poller.Done():
	case <-time.After(waitFor):
		t.Fatal("session did not end on the terminal marker")
	}

	ticker.Tick()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []string{"a", "b", "Maximum Draw-down: 5%"}, buffer.Lines())
	assert.Equal(t, 2, service.FetchCalls())
	assert.False(t, poller.Active())
	assert.Equal(t, 1, ticker.Stops())
	assert.Equal(t, []string{"Maximum Draw-down: 5%"}, completed)
}

func TestPollerRestartCancelsPreviousTicker(t *testing.T) {
	poller, _, clock := newTestPoller(mocks.NewBacktestServiceMock())

	poller.Start()
	poller.Start()
	poller.Start()

	require.Equal(t, 3, clock.Count())
	assert.Equal(t, 1, clock.Ticker(0).Stops())
	assert.Equal(t, 1, clock.Ticker(1).Stops())
	assert.Equal(t, 0, clock.Ticker(2).Stops())
	assert.True(t, poller.Active())

	poller.Stop()
	poller.Stop()
	assert.Equal(t, 1, clock.Ticker(2).Stops())
	assert.False(t, poller.Active())
}

func TestPollerKeepsPollingAfterFetchError(t *testing.T) {
	service := mocks.NewBacktestServiceMock(nil, []string{"after error"})
	service.FetchErrs = []error{errors.New("connection refused")}
	poller, buffer, clock := newTestPoller(service)

	poller.Start()
	defer poller.Stop()
	ticker := clock.Ticker(0)

	ticker.Tick()
	<-service.Fetched
	ticker.Tick()
	require.Eventually(t, func() bool { return buffer.Len() == 1 }, waitFor, time.Millisecond)

	assert.Equal(t, []string{"after error"}, buffer.Lines())
	assert.True(t, poller.Active())
}

func TestPollerRestartEmptiesBuffer(t *testing.T) {
	poller, buffer, _ := newTestPoller(mocks.NewBacktestServiceMock())
	buffer.Append("old run")

	poller.Restart()
	defer poller.Stop()

	assert.Zero(t, buffer.Len())
	assert.True(t, poller.Active())
}

type blockingService struct {
	*mocks.BacktestServiceMock
	entered chan struct{}
	release chan struct{}
}

func (s *blockingService) FetchNewLines(ctx context.Context) ([]string, error) {
	close(s.entered)
	<-s.release
	return []string{"late"}, nil
}

func TestPollerDropsResponsesArrivingAfterStop(t *testing.T) {
	service := &blockingService{
		BacktestServiceMock: mocks.NewBacktestServiceMock(),
		entered:             make(chan struct{}),
		release:             make(chan struct{}),
	}
	buffer := models.NewLogBuffer()
	clock := &fakeClock{}
	poller := NewLogPollerService(service, buffer, 100*time.Millisecond)
	poller.SetTickerFactory(clock.NewTicker)

	poller.Start()
	done := poller.Done()
	clock.Ticker(0).Tick()
	<-service.entered

	poller.Stop()
	close(service.release)

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("session goroutine did not exit")
	}
	assert.Zero(t, buffer.Len())
}

func TestPollerIntervalIsClamped(t *testing.T) {
	poller := NewLogPollerService(mocks.NewBacktestServiceMock(), models.NewLogBuffer(), time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, poller.Interval())
}

func TestPollerWithRealTicker(t *testing.T) {
	service := mocks.NewBacktestServiceMock([]string{"one"}, []string{"two"}, []string{"Maximum Draw-down: 1%"})
	buffer := models.NewLogBuffer()
	poller := NewLogPollerService(service, buffer, 100*time.Millisecond)

	poller.Start()
	select {
	case <-poller.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poller never reached the terminal marker")
	}
	assert.Equal(t, []string{"one", "two", "Maximum Draw-down: 1%"}, buffer.Lines())
}

func TestPollerAppendHookMayCallPoller(t *testing.T) {
	service := mocks.NewBacktestServiceMock([]string{"a"}, []string{"stop here"}, []string{"never"})
	poller, buffer, clock := newTestPoller(service)

	var mutex sync.Mutex
	var activeSeen []bool
	buffer.OnAppend(func(lines []string) {
		mutex.Lock()
		activeSeen = append(activeSeen, poller.Active())
		mutex.Unlock()
		if lines[0] == "stop here" {
			poller.Stop()
		}
	})

	poller.Start()
	ticker := clock.Ticker(0)
	ticker.Tick()
	require.Eventually(t, func() bool { return buffer.Len() == 1 }, waitFor, time.Millisecond)
	ticker.Tick()

	require.Eventually(t, func() bool { return !poller.Active() }, waitFor, time.Millisecond)
	assert.Equal(t, []string{"a", "stop here"}, buffer.Lines())

	mutex.Lock()
	defer mutex.Unlock()
	assert.Equal(t, []bool{true, true}, activeSeen)
}
