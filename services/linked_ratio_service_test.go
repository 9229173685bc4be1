package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/aoterocom/AOBacktester/models"
)

func newLinkedRatio(profit float64, stopLoss float64) (*ConfigService, *LinkedRatioService) {
	config := models.NewDefaultBacktestConfig()
	config.ProfitPerc = profit
	config.StopLossPerc = stopLoss
	configService := NewConfigService(config)
	return configService, NewLinkedRatioService(configService)
}

func TestDeriveStopLoss(t *testing.T) {
	assert.Equal(t, 0.05, DeriveStopLoss(0.1, 0.5))
	assert.Equal(t, 0.333, DeriveStopLoss(1, 0.33333))
	assert.Equal(t, 0.0, DeriveStopLoss(0.1, 0))
	assert.Equal(t, 0.0, StopLossMultiplier(0.05, 0))
	assert.Equal(t, 0.5, StopLossMultiplier(0.05, 0.1))
}

func TestLinkingDerivesStopLossFromDefaultMultiplier(t *testing.T) {
	_, linkedRatio := newLinkedRatio(0.3, 0.01)

	config, err := linkedRatio.SetLinked(true)
	require.NoError(t, err)
	assert.True(t, linkedRatio.Linked())
	assert.Equal(t, 0.15, config.StopLossPerc)
	assert.Equal(t, DefaultStopLossMultiplier, linkedRatio.Multiplier())
}

func TestLinkedProfitEditKeepsRatio(t *testing.T) {
	configService, linkedRatio := newLinkedRatio(0.1, 0.05)
	_, err := linkedRatio.SetLinked(true)
	require.NoError(t, err)
	_, err = linkedRatio.SetMultiplier(0.4)
	require.NoError(t, err)
	assert.Equal(t, 0.04, configService.Snapshot().StopLossPerc)

	config, err := linkedRatio.SetProfit(0.25)
	require.NoError(t, err)
	assert.Equal(t, 0.25, config.ProfitPerc)
	assert.Equal(t, 0.1, config.StopLossPerc)
	assert.Equal(t, 0.4, linkedRatio.Multiplier())
}

func TestLinkedInvariantHoldsAcrossEdits(t *testing.T) {
	_, linkedRatio := newLinkedRatio(0.1, 0.05)
	_, err := linkedRatio.SetLinked(true)
	require.NoError(t, err)

	edits := []func() (models.BacktestConfig, error){
		func() (models.BacktestConfig, error) { return linkedRatio.SetProfit(0.123) },
		func() (models.BacktestConfig, error) { return linkedRatio.SetMultiplier(0.7) },
		func() (models.BacktestConfig, error) { return linkedRatio.SetProfit(0.9) },
		func() (models.BacktestConfig, error) { return linkedRatio.SetProfit(0.31) },
		func() (models.BacktestConfig, error) { return linkedRatio.SetMultiplier(1.25) },
		func() (models.BacktestConfig, error) { return linkedRatio.SetProfit(2) },
	}
	for i, edit := range edits {
		config, err := edit()
		require.NoError(t, err)
		expected := DeriveStopLoss(config.ProfitPerc, linkedRatio.Multiplier())
		assert.InDelta(t, expected, config.StopLossPerc, 1e-9, "edit %d", i)
	}
}

func TestLinkedProfitFromZeroUsesZeroMultiplier(t *testing.T) {
	_, linkedRatio := newLinkedRatio(0, 0.05)
	_, err := linkedRatio.SetLinked(true)
	require.NoError(t, err)

	config, err := linkedRatio.SetProfit(0.2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, config.StopLossPerc)
	assert.Equal(t, 0.0, linkedRatio.Multiplier())
}

func TestUnlinkKeepsLastDerivedStopLoss(t *testing.T) {
	configService, linkedRatio := newLinkedRatio(0.2, 0.05)
	_, err := linkedRatio.SetLinked(true)
	require.NoError(t, err)
	_, err = linkedRatio.SetMultiplier(0.75)
	require.NoError(t, err)

	config, err := linkedRatio.SetLinked(false)
	require.NoError(t, err)
	assert.Equal(t, 0.15, config.StopLossPerc)

	config, err = linkedRatio.SetProfit(0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.15, config.StopLossPerc)

	config, err = linkedRatio.SetStopLoss(0.07)
	require.NoError(t, err)
	assert.Equal(t, 0.07, config.StopLossPerc)
	assert.Equal(t, 0.07, configService.Snapshot().StopLossPerc)
}

func TestRelinkResetsMultiplier(t *testing.T) {
	_, linkedRatio := newLinkedRatio(0.2, 0.05)
	_, err := linkedRatio.SetLinked(true)
	require.NoError(t, err)
	_, err = linkedRatio.SetMultiplier(0.9)
	require.NoError(t, err)

	_, err = linkedRatio.Toggle()
	require.NoError(t, err)
	config, err := linkedRatio.Toggle()
	require.NoError(t, err)

	assert.Equal(t, 0.1, config.StopLossPerc)
	assert.Equal(t, DefaultStopLossMultiplier, linkedRatio.Multiplier())
}

func TestLinkedStopLossIsNotDirectlyEditable(t *testing.T) {
	_, linkedRatio := newLinkedRatio(0.2, 0.05)
	_, err := linkedRatio.SetLinked(true)
	require.NoError(t, err)

	config, err := linkedRatio.SetStopLoss(0.9)
	require.NoError(t, err)
	assert.Equal(t, 0.1, config.StopLossPerc)
}

func TestMultiplierIgnoredWhileUnlinked(t *testing.T) {
	_, linkedRatio := newLinkedRatio(0.2, 0.05)
	config, err := linkedRatio.SetMultiplier(3)
	require.NoError(t, err)
	assert.Equal(t, 0.05, config.StopLossPerc)
}
