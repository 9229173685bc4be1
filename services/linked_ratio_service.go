package services

import (
	"sync"

	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/models"
)

const (
	DefaultStopLossMultiplier = 0.5
	ratioPrecision            = 3
)

// DeriveStopLoss is profit * multiplier rounded to three decimals.
func DeriveStopLoss(profit float64, multiplier float64) float64 {
	return helpers.RoundTo(profit*multiplier, ratioPrecision)
}

// StopLossMultiplier recovers the multiplier from a derived pair, 0 when
// profit is 0.
func StopLossMultiplier(stopLoss float64, profit float64) float64 {
	if profit == 0 {
		return 0
	}
	return helpers.RoundTo(stopLoss/profit, ratioPrecision)
}

// LinkedRatioService keeps stopLossPerc tied to profitPerc while linked.
// Unlinked, both fields are edited independently.
type LinkedRatioService struct {
	mutex         sync.Mutex
	configService *ConfigService
	linked        bool
	multiplier    float64
}

func NewLinkedRatioService(configService *ConfigService) *LinkedRatioService {
	return &LinkedRatioService{
		configService: configService,
		multiplier:    DefaultStopLossMultiplier,
	}
}

func (lr *LinkedRatioService) Linked() bool {
	lr.mutex.Lock()
	defer lr.mutex.Unlock()
	return lr.linked
}

func (lr *LinkedRatioService) Multiplier() float64 {
	lr.mutex.Lock()
	defer lr.mutex.Unlock()
	return lr.multiplier
}

// SetLinked switches link mode. Linking always starts over from the default
// multiplier, unlinking keeps the last derived stop loss.
func (lr *LinkedRatioService) SetLinked(linked bool) (models.BacktestConfig, error) {
	lr.mutex.Lock()
	defer lr.mutex.Unlock()

	if linked == lr.linked {
		return lr.configService.Snapshot(), nil
	}
	lr.linked = linked
	if !linked {
		return lr.configService.Snapshot(), nil
	}

	lr.multiplier = DefaultStopLossMultiplier
	profit := lr.configService.Snapshot().ProfitPerc
	return lr.configService.Set(models.FieldStopLossPerc, DeriveStopLoss(profit, lr.multiplier))
}

func (lr *LinkedRatioService) Toggle() (models.BacktestConfig, error) {
	return lr.SetLinked(!lr.Linked())
}

// SetProfit updates profitPerc and, while linked, carries the current
// stop loss ratio over to the new profit.
func (lr *LinkedRatioService) SetProfit(profit float64) (models.BacktestConfig, error) {
	lr.mutex.Lock()
	defer lr.mutex.Unlock()

	previous := lr.configService.Snapshot()
	config, err := lr.configService.Set(models.FieldProfitPerc, profit)
	if err != nil || !lr.linked {
		return config, err
	}

	lr.multiplier = StopLossMultiplier(previous.StopLossPerc, previous.ProfitPerc)
	return lr.configService.Set(models.FieldStopLossPerc, DeriveStopLoss(profit, lr.multiplier))
}

// SetMultiplier only has an effect while linked.
func (lr *LinkedRatioService) SetMultiplier(multiplier float64) (models.BacktestConfig, error) {
	lr.mutex.Lock()
	defer lr.mutex.Unlock()

	if !lr.linked {
		return lr.configService.Snapshot(), nil
	}
	lr.multiplier = multiplier
	profit := lr.configService.Snapshot().ProfitPerc
	return lr.configService.Set(models.FieldStopLossPerc, DeriveStopLoss(profit, lr.multiplier))
}

// SetStopLoss edits the stop loss directly. While linked the field is
// derived and the edit is dropped.
func (lr *LinkedRatioService) SetStopLoss(stopLoss float64) (models.BacktestConfig, error) {
	lr.mutex.Lock()
	defer lr.mutex.Unlock()

	if lr.linked {
		return lr.configService.Snapshot(), nil
	}
	return lr.configService.Set(models.FieldStopLossPerc, stopLoss)
}
