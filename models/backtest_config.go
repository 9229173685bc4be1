package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval2m  Interval = "2m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval60m Interval = "60m"
	Interval90m Interval = "90m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
	Interval5d  Interval = "5d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
	Interval3mo Interval = "3mo"
)

var Intervals = []Interval{
	Interval1m, Interval2m, Interval5m, Interval15m, Interval30m, Interval60m, Interval90m,
	Interval1h, Interval1d, Interval5d, Interval1wk, Interval1mo, Interval3mo,
}

func (i Interval) IsValid() bool {
	for _, interval := range Intervals {
		if i == interval {
			return true
		}
	}
	return false
}

// Horizon is one entry of the featureHorizons list. An invalid Horizon stands
// for a token that could not be read as an integer and is sent as null.
type Horizon struct {
	Value int
	Valid bool
}

func NewHorizon(value int) Horizon {
	return Horizon{Value: value, Valid: true}
}

func (h Horizon) String() string {
	if !h.Valid {
		return "NaN"
	}
	return fmt.Sprintf("%d", h.Value)
}

func (h Horizon) MarshalJSON() ([]byte, error) {
	if !h.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(h.Value)
}

func (h *Horizon) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*h = Horizon{}
		return nil
	}
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*h = NewHorizon(value)
	return nil
}

// BacktestConfig is the full set of parameters sent to the backtest service.
type BacktestConfig struct {
	Symbol           string    `json:"symbol"`
	Interval         Interval  `json:"interval"`
	Confidence       float64   `json:"confidence"`
	TargetCandle     int       `json:"targetCandle"`
	ProfitPerc       float64   `json:"profitPerc"`
	StopLossPerc     float64   `json:"stopLossPerc"`
	GapBetweenTrades int       `json:"gapBetweenTrades"`
	FeatureHorizons  []Horizon `json:"featureHorizons"`
	MaxPositions     int       `json:"maxPositions"`
	LongBias         float64   `json:"longBias"`
	Leverage         int       `json:"leverage"`
}

func NewDefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{
		Symbol:           "EURUSD=X",
		Interval:         Interval5m,
		Confidence:       0.6,
		TargetCandle:     12,
		ProfitPerc:       0.10,
		StopLossPerc:     0.05,
		GapBetweenTrades: 0,
		FeatureHorizons: []Horizon{
			NewHorizon(2), NewHorizon(8), NewHorizon(32), NewHorizon(128), NewHorizon(512),
		},
		MaxPositions: 15,
		LongBias:     1.0,
		Leverage:     100,
	}
}

// Copy returns a deep copy, the horizons slice included.
func (c BacktestConfig) Copy() BacktestConfig {
	cp := c
	if c.FeatureHorizons != nil {
		cp.FeatureHorizons = make([]Horizon, len(c.FeatureHorizons))
		copy(cp.FeatureHorizons, c.FeatureHorizons)
	}
	return cp
}

// Validate reports every range violation at once. It is informative only,
// updates are never rejected because of it.
func (c BacktestConfig) Validate() []error {
	var errs []error
	if strings.TrimSpace(c.Symbol) == "" {
		errs = append(errs, fmt.Errorf("error: symbol must not be empty"))
	}
	if !c.Interval.IsValid() {
		errs = append(errs, fmt.Errorf("error: unknown interval %q", c.Interval))
	}
	if c.Confidence < 0.5 || c.Confidence > 1.0 {
		errs = append(errs, fmt.Errorf("error: confidence %.3f out of range [0.5, 1.0]", c.Confidence))
	}
	if c.TargetCandle < 1 || c.TargetCandle > 10000 {
		errs = append(errs, fmt.Errorf("error: targetCandle %d out of range [1, 10000]", c.TargetCandle))
	}
	if c.ProfitPerc <= 0 {
		errs = append(errs, fmt.Errorf("error: profitPerc must be positive"))
	}
	if c.StopLossPerc <= 0 {
		errs = append(errs, fmt.Errorf("error: stopLossPerc must be positive"))
	}
	if c.GapBetweenTrades < 0 {
		errs = append(errs, fmt.Errorf("error: gapBetweenTrades must not be negative"))
	}
	for i, horizon := range c.FeatureHorizons {
		if !horizon.Valid {
			errs = append(errs, fmt.Errorf("error: featureHorizons[%d] is not a number", i))
		}
	}
	if c.MaxPositions < 0 {
		errs = append(errs, fmt.Errorf("error: maxPositions must not be negative"))
	}
	if c.Leverage <= 0 {
		errs = append(errs, fmt.Errorf("error: leverage must be positive"))
	}
	return errs
}
