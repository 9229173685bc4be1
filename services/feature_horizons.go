package services

import (
	"strings"

	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/models"
)

var featureHorizonsParser = ParseFeatureHorizons

// ParseFeatureHorizons splits text on commas and reads each token as an
// integer. Unreadable tokens become invalid horizons in place, the others
// are kept.
func ParseFeatureHorizons(text string) []models.Horizon {
	tokens := strings.Split(text, ",")
	horizons := make([]models.Horizon, 0, len(tokens))
	for _, token := range tokens {
		value, ok := helpers.ParseLeadingInt(strings.TrimSpace(token))
		if !ok {
			horizons = append(horizons, models.Horizon{})
			continue
		}
		horizons = append(horizons, models.NewHorizon(value))
	}
	return horizons
}

func FormatFeatureHorizons(horizons []models.Horizon) string {
	parts := make([]string, len(horizons))
	for i, horizon := range horizons {
		parts[i] = horizon.String()
	}
	return strings.Join(parts, ", ")
}
