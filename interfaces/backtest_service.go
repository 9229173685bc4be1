package interfaces

import (
	"context"

	"gitlab.com/aoterocom/AOBacktester/models"
)

// BacktestService is the remote service reached over plain request/response calls.
type BacktestService interface {
	StartBacktest(ctx context.Context, config models.BacktestConfig) error
	FetchNewLines(ctx context.Context) ([]string, error)
	RunMethod() models.RunMethod
}
