package services

import (
	"context"
	"sync"
	"time"

	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/interfaces"
	"gitlab.com/aoterocom/AOBacktester/models"
)

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(interval time.Duration) Ticker

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.ticker.C }
func (t timeTicker) Stop()               { t.ticker.Stop() }

func NewTimeTicker(interval time.Duration) Ticker {
	return timeTicker{ticker: time.NewTicker(interval)}
}

type pollSession struct {
	ticker Ticker
	cancel context.CancelFunc
	done   chan struct{}
}

// LogPollerService tails the backtest log on a fixed cadence. At most one
// session, and so one ticker, exists at any time.
type LogPollerService struct {
	mutex sync.Mutex
	// appendMutex orders appends against Restart's buffer reset, so the log
	// buffer hooks run without mutex held and may call Stop or Active.
	appendMutex     sync.Mutex
	backtestService interfaces.BacktestService
	logBuffer       *models.LogBuffer
	interval        time.Duration
	newTicker       TickerFactory
	session         *pollSession
	onComplete      func(line string)
}

func NewLogPollerService(backtestService interfaces.BacktestService, logBuffer *models.LogBuffer, interval time.Duration) *LogPollerService {
	return &LogPollerService{
		backtestService: backtestService,
		logBuffer:       logBuffer,
		interval:        helpers.ClampPollInterval(interval),
		newTicker:       NewTimeTicker,
	}
}

func (lp *LogPollerService) SetTickerFactory(factory TickerFactory) {
	lp.mutex.Lock()
	defer lp.mutex.Unlock()
	lp.newTicker = factory
}

// SetOnComplete registers a hook called once per session with the line
// carrying the terminal marker.
func (lp *LogPollerService) SetOnComplete(hook func(line string)) {
	lp.mutex.Lock()
	defer lp.mutex.Unlock()
	lp.onComplete = hook
}

func (lp *LogPollerService) Interval() time.Duration {
	return lp.interval
}

// Start begins a new session, cancelling the running one first.
func (lp *LogPollerService) Start() {
	lp.mutex.Lock()
	defer lp.mutex.Unlock()
	lp.startLocked()
}

// Restart is Start with the log buffer emptied once the old session can no
// longer append to it.
func (lp *LogPollerService) Restart() {
	lp.appendMutex.Lock()
	defer lp.appendMutex.Unlock()
	lp.mutex.Lock()
	defer lp.mutex.Unlock()
	lp.stopLocked()
	lp.logBuffer.Reset()
	lp.startLocked()
}

func (lp *LogPollerService) Stop() {
	lp.mutex.Lock()
	defer lp.mutex.Unlock()
	lp.stopLocked()
}

func (lp *LogPollerService) Active() bool {
	lp.mutex.Lock()
	defer lp.mutex.Unlock()
	return lp.session != nil
}

// Done is closed when the current session ends. With no session it is
// already closed.
func (lp *LogPollerService) Done() <-chan struct{} {
	lp.mutex.Lock()
	defer lp.mutex.Unlock()
	if lp.session == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return lp.session.done
}

func (lp *LogPollerService) startLocked() {
	lp.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	session := &pollSession{
		ticker: lp.newTicker(lp.interval),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	lp.session = session
	helpers.PollSessionsActive.Inc()
	helpers.Logger.Debugln("poller: session started every " + lp.interval.String())

	go lp.poll(ctx, session)
}

func (lp *LogPollerService) stopLocked() {
	if lp.session == nil {
		return
	}
	lp.session.ticker.Stop()
	lp.session.cancel()
	lp.session = nil
	helpers.PollSessionsActive.Dec()
	helpers.Logger.Debugln("poller: session stopped")
}

func (lp *LogPollerService) poll(ctx context.Context, session *pollSession) {
	defer close(session.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-session.ticker.C():
			if finished := lp.tick(ctx, session); finished {
				return
			}
		}
	}
}

// tick runs one fetch on the session goroutine, so a slow response delays
// the next tick instead of overlapping it. It reports whether the session
// is over.
func (lp *LogPollerService) tick(ctx context.Context, session *pollSession) bool {
	lines, err := lp.backtestService.FetchNewLines(ctx)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		helpers.LogFetches.WithLabelValues("error").Inc()
		helpers.Logger.Warnln((&models.PollFetchError{Err: err}).Error())
		return false
	}
	helpers.LogFetches.WithLabelValues("ok").Inc()

	lp.appendMutex.Lock()
	lp.mutex.Lock()
	if lp.session != session {
		// stopped or replaced while the fetch was in flight
		lp.mutex.Unlock()
		lp.appendMutex.Unlock()
		return true
	}

	terminalLine, finished := "", false
	for _, line := range lines {
		if models.IsTerminalLine(line) {
			terminalLine, finished = line, true
			break
		}
	}
	if finished {
		lp.stopLocked()
	}
	onComplete := lp.onComplete
	lp.mutex.Unlock()

	lp.logBuffer.Append(lines...)
	helpers.LogLinesReceived.Add(float64(len(lines)))
	lp.appendMutex.Unlock()

	if finished && onComplete != nil {
		onComplete(terminalLine)
	}
	return finished
}
