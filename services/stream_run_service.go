package services

import (
	"context"
	"sync"

	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/interfaces"
	"gitlab.com/aoterocom/AOBacktester/models"
)

// StreamRunService is the push counterpart of RunService: lines arrive one
// by one from a LogStream and there is no timer to manage.
type StreamRunService struct {
	mutex      sync.Mutex
	stream     interfaces.LogStream
	logBuffer  *models.LogBuffer
	connected  bool
	done       <-chan struct{}
	active     bool
	onComplete func(line string)
}

func NewStreamRunService(stream interfaces.LogStream, logBuffer *models.LogBuffer) *StreamRunService {
	return &StreamRunService{
		stream:    stream,
		logBuffer: logBuffer,
	}
}

func (sr *StreamRunService) SetOnComplete(hook func(line string)) {
	sr.mutex.Lock()
	defer sr.mutex.Unlock()
	sr.onComplete = hook
}

// Run connects on first use, empties the log and emits the run event.
func (sr *StreamRunService) Run(ctx context.Context) (models.RunHandle, error) {
	sr.mutex.Lock()
	defer sr.mutex.Unlock()

	if sr.connected {
		select {
		case <-sr.done:
			helpers.Logger.Warnln("stream: connection lost, reconnecting")
			sr.connected, sr.done = false, nil
		default:
		}
	}
	if !sr.connected {
		if err := sr.stream.Connect(ctx, sr.handleLine); err != nil {
			return models.RunHandle{}, sr.failLocked(err)
		}
		sr.connected = true
		sr.done = sr.stream.Done()
		go sr.watch(sr.done)
	}

	sr.logBuffer.Reset()
	if err := sr.stream.RunBacktest(ctx); err != nil {
		return models.RunHandle{}, sr.failLocked(err)
	}
	helpers.BacktestSubmissions.WithLabelValues("ok").Inc()

	sr.active = true
	handle := models.NewRunHandle(models.RunMethodEmit)
	helpers.Logger.Infoln("Backtest started: " + handle.String())
	return handle, nil
}

func (sr *StreamRunService) failLocked(err error) error {
	helpers.BacktestSubmissions.WithLabelValues("error").Inc()
	submissionErr := &models.SubmissionError{Err: err}
	helpers.Logger.Errorln(submissionErr.Error())
	sr.logBuffer.Append(models.SubmissionErrorLine)
	return submissionErr
}

// watch turns an unexpected disconnect into a visible log line and makes the
// next Run dial again.
func (sr *StreamRunService) watch(done <-chan struct{}) {
	<-done

	sr.mutex.Lock()
	if sr.done != done {
		// closed on purpose or already replaced
		sr.mutex.Unlock()
		return
	}
	sr.connected, sr.done = false, nil
	sr.active = false
	sr.mutex.Unlock()

	helpers.Logger.Errorln("stream: connection to the backtest server lost")
	sr.logBuffer.Append(models.ConnectionLostLine)
}

func (sr *StreamRunService) handleLine(line string) {
	sr.logBuffer.Append(line)
	helpers.LogLinesReceived.Inc()

	sr.mutex.Lock()
	finished := sr.active && models.IsTerminalLine(line)
	if finished {
		sr.active = false
	}
	onComplete := sr.onComplete
	sr.mutex.Unlock()

	if finished && onComplete != nil {
		onComplete(line)
	}
}

// Stop marks the run as finished. The subscription stays open for the next run.
func (sr *StreamRunService) Stop() {
	sr.mutex.Lock()
	defer sr.mutex.Unlock()
	sr.active = false
}

func (sr *StreamRunService) Active() bool {
	sr.mutex.Lock()
	defer sr.mutex.Unlock()
	return sr.active
}

func (sr *StreamRunService) Close() error {
	sr.mutex.Lock()
	defer sr.mutex.Unlock()
	sr.active = false
	if !sr.connected {
		return nil
	}
	sr.connected, sr.done = false, nil
	return sr.stream.Close()
}

var _ interfaces.Runner = (*StreamRunService)(nil)
