package services

import (
	"fmt"
	"sync"

	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/models"
)

// ConfigService holds the backtest config being edited.
type ConfigService struct {
	mutex  sync.Mutex
	config models.BacktestConfig
}

func NewConfigService(config models.BacktestConfig) *ConfigService {
	return &ConfigService{config: config.Copy()}
}

// Update replaces exactly one field and returns the new snapshot. Values are
// only checked against the field type, ranges are left to Validate.
func (cs *ConfigService) Update(update models.ConfigUpdate) (models.BacktestConfig, error) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	updated, err := update.Apply(cs.config)
	if err != nil {
		return cs.config.Copy(), err
	}
	cs.config = updated
	return cs.config.Copy(), nil
}

func (cs *ConfigService) Set(field models.ConfigField, value interface{}) (models.BacktestConfig, error) {
	return cs.Update(models.ConfigUpdate{Field: field, Value: value})
}

func (cs *ConfigService) Snapshot() models.BacktestConfig {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return cs.config.Copy()
}

// SetFeatureHorizonsText parses text into the horizons field. A parser
// failure keeps the previous horizons.
func (cs *ConfigService) SetFeatureHorizonsText(text string) (config models.BacktestConfig) {
	defer func() {
		if r := recover(); r != nil {
			helpers.Logger.Debugln(fmt.Sprintf("config: ignored feature horizons %q: %v", text, r))
			config = cs.Snapshot()
		}
	}()

	config, err := cs.Set(models.FieldFeatureHorizons, featureHorizonsParser(text))
	if err != nil {
		helpers.Logger.Debugln("config: " + err.Error())
	}
	return config
}

func (cs *ConfigService) Validate() []error {
	return cs.Snapshot().Validate()
}
