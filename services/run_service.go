package services

import (
	"context"

	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/interfaces"
	"gitlab.com/aoterocom/AOBacktester/models"
)

// RunService submits the edited config and tails the run log by polling.
type RunService struct {
	configService   *ConfigService
	backtestService interfaces.BacktestService
	logBuffer       *models.LogBuffer
	poller          *LogPollerService
}

func NewRunService(configService *ConfigService, backtestService interfaces.BacktestService,
	logBuffer *models.LogBuffer, poller *LogPollerService) *RunService {
	return &RunService{
		configService:   configService,
		backtestService: backtestService,
		logBuffer:       logBuffer,
		poller:          poller,
	}
}

// Run sends the current config. On failure one error line is appended to
// the log and no poll session is started.
func (rs *RunService) Run(ctx context.Context) (models.RunHandle, error) {
	config := rs.configService.Snapshot()
	if err := rs.backtestService.StartBacktest(ctx, config); err != nil {
		helpers.BacktestSubmissions.WithLabelValues("error").Inc()
		submissionErr := &models.SubmissionError{Err: err}
		helpers.Logger.Errorln(submissionErr.Error())
		rs.logBuffer.Append(models.SubmissionErrorLine)
		return models.RunHandle{}, submissionErr
	}
	helpers.BacktestSubmissions.WithLabelValues("ok").Inc()

	rs.poller.Restart()
	handle := models.NewRunHandle(rs.backtestService.RunMethod())
	helpers.Logger.Infoln("Backtest started for " + config.Symbol + " " + string(config.Interval) + ": " + handle.String())
	return handle, nil
}

func (rs *RunService) Stop() {
	rs.poller.Stop()
}

func (rs *RunService) Active() bool {
	return rs.poller.Active()
}

var _ interfaces.Runner = (*RunService)(nil)
