package models

import (
	"errors"
	"fmt"
)

type ConfigField string

const (
	FieldSymbol           ConfigField = "symbol"
	FieldInterval         ConfigField = "interval"
	FieldConfidence       ConfigField = "confidence"
	FieldTargetCandle     ConfigField = "targetCandle"
	FieldProfitPerc       ConfigField = "profitPerc"
	FieldStopLossPerc     ConfigField = "stopLossPerc"
	FieldGapBetweenTrades ConfigField = "gapBetweenTrades"
	FieldFeatureHorizons  ConfigField = "featureHorizons"
	FieldMaxPositions     ConfigField = "maxPositions"
	FieldLongBias         ConfigField = "longBias"
	FieldLeverage         ConfigField = "leverage"
)

// ConfigFields lists the fields in form order.
var ConfigFields = []ConfigField{
	FieldSymbol, FieldInterval, FieldConfidence, FieldTargetCandle, FieldProfitPerc,
	FieldStopLossPerc, FieldGapBetweenTrades, FieldFeatureHorizons, FieldMaxPositions,
	FieldLongBias, FieldLeverage,
}

var ErrInvalidUpdate = errors.New("error: invalid config update")

// ConfigUpdate replaces a single field of a BacktestConfig. Value must hold
// the Go type of the field: string, Interval, float64, int or []Horizon.
type ConfigUpdate struct {
	Field ConfigField
	Value interface{}
}

// Apply returns a copy of config with the update applied. The copy is left
// untouched when the value does not match the field type.
func (u ConfigUpdate) Apply(config BacktestConfig) (BacktestConfig, error) {
	updated := config.Copy()
	ok := false

	switch u.Field {
	case FieldSymbol:
		updated.Symbol, ok = u.Value.(string)
	case FieldInterval:
		switch v := u.Value.(type) {
		case Interval:
			updated.Interval, ok = v, true
		case string:
			updated.Interval, ok = Interval(v), true
		}
	case FieldConfidence:
		updated.Confidence, ok = u.Value.(float64)
	case FieldTargetCandle:
		updated.TargetCandle, ok = u.Value.(int)
	case FieldProfitPerc:
		updated.ProfitPerc, ok = u.Value.(float64)
	case FieldStopLossPerc:
		updated.StopLossPerc, ok = u.Value.(float64)
	case FieldGapBetweenTrades:
		updated.GapBetweenTrades, ok = u.Value.(int)
	case FieldFeatureHorizons:
		var horizons []Horizon
		horizons, ok = u.Value.([]Horizon)
		if ok {
			updated.FeatureHorizons = make([]Horizon, len(horizons))
			copy(updated.FeatureHorizons, horizons)
		}
	case FieldMaxPositions:
		updated.MaxPositions, ok = u.Value.(int)
	case FieldLongBias:
		updated.LongBias, ok = u.Value.(float64)
	case FieldLeverage:
		updated.Leverage, ok = u.Value.(int)
	default:
		return config, fmt.Errorf("%w: unknown field %q", ErrInvalidUpdate, u.Field)
	}

	if !ok {
		return config, fmt.Errorf("%w: %T is not a valid value for %s", ErrInvalidUpdate, u.Value, u.Field)
	}
	return updated, nil
}
