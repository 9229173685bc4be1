package ui

import (
	"fmt"
	"strconv"

	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/models"
	"gitlab.com/aoterocom/AOBacktester/services"
)

type formRow struct {
	label  string
	value  func(config models.BacktestConfig) string
	commit func(text string) error
	toggle func() error
}

// Form is the editable side of the screen. It turns typed text into config
// updates; unreadable numbers become zero.
type Form struct {
	configService      *services.ConfigService
	linkedRatioService *services.LinkedRatioService
	rows               []formRow
	selected           int
	editing            bool
	input              []rune
}

func NewForm(configService *services.ConfigService, linkedRatioService *services.LinkedRatioService) *Form {
	f := &Form{
		configService:      configService,
		linkedRatioService: linkedRatioService,
	}
	f.rows = f.buildRows()
	return f
}

func (f *Form) buildRows() []formRow {
	setString := func(field models.ConfigField) func(string) error {
		return func(text string) error {
			_, err := f.configService.Set(field, text)
			return err
		}
	}
	setInt := func(field models.ConfigField) func(string) error {
		return func(text string) error {
			_, err := f.configService.Set(field, helpers.IntOrZero(text))
			return err
		}
	}
	setFloat := func(field models.ConfigField) func(string) error {
		return func(text string) error {
			_, err := f.configService.Set(field, helpers.FloatOrZero(text))
			return err
		}
	}

	return []formRow{
		{label: "Symbol", value: func(c models.BacktestConfig) string { return c.Symbol }, commit: setString(models.FieldSymbol)},
		{label: "Interval", value: func(c models.BacktestConfig) string { return string(c.Interval) }, commit: setString(models.FieldInterval)},
		{label: "Confidence (0-1)", value: func(c models.BacktestConfig) string { return formatFloat(c.Confidence) }, commit: setFloat(models.FieldConfidence)},
		{label: "Target Candle", value: func(c models.BacktestConfig) string { return strconv.Itoa(c.TargetCandle) }, commit: setInt(models.FieldTargetCandle)},
		{label: "Profit Percentage", value: func(c models.BacktestConfig) string { return helpers.FormatDecimal(c.ProfitPerc, 3) },
			commit: func(text string) error {
				_, err := f.linkedRatioService.SetProfit(helpers.FloatOrZero(text))
				return err
			}},
		{label: "Link Stop Loss", value: func(models.BacktestConfig) string { return checkbox(f.linkedRatioService.Linked()) },
			toggle: func() error {
				_, err := f.linkedRatioService.Toggle()
				return err
			}},
		{label: "Stop Loss Multiplier", value: func(models.BacktestConfig) string {
			if !f.linkedRatioService.Linked() {
				return "-"
			}
			return helpers.FormatDecimal(f.linkedRatioService.Multiplier(), 3)
		},
			commit: func(text string) error {
				_, err := f.linkedRatioService.SetMultiplier(helpers.FloatOrZero(text))
				return err
			}},
		{label: "Stop Loss Percentage", value: func(c models.BacktestConfig) string { return helpers.FormatDecimal(c.StopLossPerc, 3) },
			commit: func(text string) error {
				_, err := f.linkedRatioService.SetStopLoss(helpers.FloatOrZero(text))
				return err
			}},
		{label: "Gap Between Trades", value: func(c models.BacktestConfig) string { return strconv.Itoa(c.GapBetweenTrades) }, commit: setInt(models.FieldGapBetweenTrades)},
		{label: "Feature Horizons", value: func(c models.BacktestConfig) string { return services.FormatFeatureHorizons(c.FeatureHorizons) },
			commit: func(text string) error {
				f.configService.SetFeatureHorizonsText(text)
				return nil
			}},
		{label: "Max Positions", value: func(c models.BacktestConfig) string { return strconv.Itoa(c.MaxPositions) }, commit: setInt(models.FieldMaxPositions)},
		{label: "Long Bias", value: func(c models.BacktestConfig) string { return formatFloat(c.LongBias) }, commit: setFloat(models.FieldLongBias)},
		{label: "Leverage", value: func(c models.BacktestConfig) string { return strconv.Itoa(c.Leverage) }, commit: setInt(models.FieldLeverage)},
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}

func (f *Form) Rows() []string {
	config := f.configService.Snapshot()
	rows := make([]string, len(f.rows))
	for i, row := range f.rows {
		value := row.value(config)
		if f.editing && i == f.selected {
			value = string(f.input) + "_"
		}
		rows[i] = fmt.Sprintf("%-22s %s", row.label, value)
	}
	return rows
}

func (f *Form) Selected() int { return f.selected }
func (f *Form) Editing() bool { return f.editing }

func (f *Form) MoveUp() {
	if f.editing || f.selected == 0 {
		return
	}
	f.selected--
}

func (f *Form) MoveDown() {
	if f.editing || f.selected == len(f.rows)-1 {
		return
	}
	f.selected++
}

// Activate toggles checkbox rows and starts editing the others, prefilled
// with the current value.
func (f *Form) Activate() error {
	row := f.rows[f.selected]
	if row.toggle != nil {
		return row.toggle()
	}
	f.editing = true
	f.input = []rune(row.value(f.configService.Snapshot()))
	return nil
}

func (f *Form) Type(r rune) {
	if f.editing {
		f.input = append(f.input, r)
	}
}

func (f *Form) Backspace() {
	if f.editing && len(f.input) > 0 {
		f.input = f.input[:len(f.input)-1]
	}
}

func (f *Form) Cancel() {
	f.editing = false
	f.input = nil
}

func (f *Form) Commit() error {
	if !f.editing {
		return nil
	}
	text := string(f.input)
	f.Cancel()
	return f.rows[f.selected].commit(text)
}

// SelectLabel moves the cursor to the row with label.
func (f *Form) SelectLabel(label string) bool {
	for i, row := range f.rows {
		if row.label == label {
			f.selected = i
			return true
		}
	}
	return false
}
