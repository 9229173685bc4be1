package interfaces

import (
	"context"

	"gitlab.com/aoterocom/AOBacktester/models"
)

type (
	Runner interface {
		Run(ctx context.Context) (models.RunHandle, error)
		Stop()
		Active() bool
	}

	Notifier interface {
		Notify(message string) error
	}
)
