package inference

import (
	"math"

	"github.com/weatherops/raincast/utils"
)

// Season maps a calendar month to a southern-hemisphere season name
func Season(month int) string {
	switch month {
	case 12, 1, 2:
		return "summer"
	case 3, 4, 5:
		return "autumn"
	case 6, 7, 8:
		return "winter"
	default:
		return "spring"
	}
}

// Derived holds the full model feature set completed from minimal user
// input. Categorical fields stay as label strings until encoding.
type Derived struct {
	Numeric     map[string]float64
	Location    string
	WindGustDir string
	WindDir9am  string
	WindDir3pm  string
	RainToday   string // "Yes" or "No"
}

// FeatureDeriver completes the features the form does not ask for using
// the fixed seasonal and regional rules from the heuristics table
type FeatureDeriver struct {
	heuristics utils.HeuristicsConfig
}

// NewFeatureDeriver creates a deriver over the given heuristics table
func NewFeatureDeriver(heuristics utils.HeuristicsConfig) *FeatureDeriver {
	return &FeatureDeriver{heuristics: heuristics}
}

// Derive completes the feature set for one validated input
func (fd *FeatureDeriver) Derive(input Input) Derived {
	h := fd.heuristics
	season := Season(int(input.Date.Month()))

	// 3pm temperature tends towards the daily max, 9am towards the min
	temp3pm := (input.MinTemp + 0.7*input.MaxTemp) / 1.7
	temp3pm = math.Min(input.MaxTemp, math.Max(input.MinTemp, temp3pm))
	temp9am := 0.6*input.MinTemp + 0.4*input.MaxTemp
	temp9am = math.Max(input.MinTemp, math.Min(input.MaxTemp, temp9am))

	sunshine, ok := h.SeasonSunshine[season]
	if !ok {
		sunshine = 7.0
	}

	// Cloud cover in oktas, proportional to afternoon humidity
	cloud := math.Round(input.Humidity3pm / 100.0 * 8)
	cloud = math.Max(0, math.Min(8, cloud))

	pressure := math.Round((h.PressureBase-h.PressureSlope*(input.Humidity3pm-50))*10) / 10

	windDir, ok := h.PrevailingWinds[input.Location]
	if !ok {
		windDir = h.FallbackWindDir
	}

	gustSpeed := math.Min(h.GustCap, input.WindSpeed3pm+h.GustOffset)
	windSpeed9am := math.Max(0, input.WindSpeed3pm-h.MorningWindOffset)

	evaporation := math.Max(0, h.EvapSunshineCoef*sunshine+h.EvapRangeCoef*(input.MaxTemp-input.MinTemp))

	// Strictly greater than the threshold; a rainfall of exactly the
	// threshold does not count as rain today
	rainToday := "No"
	if input.Rainfall > h.RainTodayThreshold {
		rainToday = "Yes"
	}

	return Derived{
		Numeric: map[string]float64{
			"MinTemp":       input.MinTemp,
			"MaxTemp":       input.MaxTemp,
			"Rainfall":      input.Rainfall,
			"Evaporation":   evaporation,
			"Sunshine":      sunshine,
			"WindGustSpeed": gustSpeed,
			"WindSpeed9am":  windSpeed9am,
			"WindSpeed3pm":  input.WindSpeed3pm,
			"Humidity9am":   input.Humidity3pm,
			"Humidity3pm":   input.Humidity3pm,
			"Pressure9am":   pressure,
			"Pressure3pm":   pressure,
			"Cloud9am":      cloud,
			"Cloud3pm":      cloud,
			"Temp9am":       temp9am,
			"Temp3pm":       temp3pm,
			"Year":          float64(input.Date.Year()),
			"Month":         float64(int(input.Date.Month())),
			"Day":           float64(input.Date.Day()),
		},
		Location:    input.Location,
		WindGustDir: windDir,
		WindDir9am:  windDir,
		WindDir3pm:  windDir,
		RainToday:   rainToday,
	}
}
