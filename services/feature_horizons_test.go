package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/aoterocom/AOBacktester/models"
)

func TestParseFeatureHorizons(t *testing.T) {
	assert.Equal(t,
		[]models.Horizon{models.NewHorizon(2), models.NewHorizon(8), models.NewHorizon(32)},
		ParseFeatureHorizons("2, 8, 32"))

	assert.Equal(t,
		[]models.Horizon{models.NewHorizon(2), {}, models.NewHorizon(32)},
		ParseFeatureHorizons("2, x, 32"))

	assert.Equal(t,
		[]models.Horizon{models.NewHorizon(8), models.NewHorizon(8), models.NewHorizon(12)},
		ParseFeatureHorizons("8,8 , 12px"))

	assert.Equal(t, []models.Horizon{{}}, ParseFeatureHorizons(""))
	assert.Equal(t, []models.Horizon{models.NewHorizon(4), {}}, ParseFeatureHorizons("4,"))
}

func TestFormatFeatureHorizons(t *testing.T) {
	assert.Equal(t, "2, 8, 32, 128, 512", FormatFeatureHorizons(models.NewDefaultBacktestConfig().FeatureHorizons))
	assert.Equal(t, "2, NaN, 32", FormatFeatureHorizons(ParseFeatureHorizons("2, x, 32")))
	assert.Equal(t, "", FormatFeatureHorizons(nil))
}

func TestSetFeatureHorizonsText(t *testing.T) {
	configService := NewConfigService(models.NewDefaultBacktestConfig())

	config := configService.SetFeatureHorizonsText("1, 2, oops, 3")
	assert.Equal(t, []models.Horizon{models.NewHorizon(1), models.NewHorizon(2), {}, models.NewHorizon(3)}, config.FeatureHorizons)
	assert.Equal(t, config, configService.Snapshot())
}

func TestSetFeatureHorizonsTextKeepsPreviousValueWhenParserFails(t *testing.T) {
	previousParser := featureHorizonsParser
	featureHorizonsParser = func(string) []models.Horizon { panic("broken parser") }
	defer func() { featureHorizonsParser = previousParser }()

	configService := NewConfigService(models.NewDefaultBacktestConfig())
	before := configService.Snapshot()

	var config models.BacktestConfig
	assert.NotPanics(t, func() {
		config = configService.SetFeatureHorizonsText("1, 2, 3")
	})
	assert.Equal(t, before, config)
	assert.Equal(t, before, configService.Snapshot())
}
