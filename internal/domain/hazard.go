package domain

import "strings"

// hazardRule assigns an ordinal level to conditions containing any keyword.
type hazardRule struct {
	level    float64
	keywords []string
}

// weatherHazards are checked from the most to the least hazardous so that
// "Light Snow / Windy" ranks as snow rather than wind.
var weatherHazards = []hazardRule{
	{4, []string{"snow", "sleet", "ice", "freezing", "hail", "wintry"}},
	{3, []string{"thunder", "t-storm", "storm", "heavy rain", "tornado", "squalls"}},
	{2, []string{"rain", "drizzle", "shower", "fog", "mist", "haze", "smoke", "dust", "sand", "windy"}},
	{1, []string{"cloud", "overcast"}},
	{0, []string{"clear", "fair", "sunny"}},
}

var roadHazards = []hazardRule{
	{3, []string{"ice", "icy", "snow", "slush", "frost"}},
	{2, []string{"flood", "standing water", "mud", "oil", "gravel", "debris"}},
	{1, []string{"wet", "damp", "moist"}},
	{0, []string{"dry"}},
}

// WeatherHazard encodes a weather condition as an ordinal 0 (clear) to
// 4 (snow/ice). Unrecognised or missing conditions return false.
func WeatherHazard(condition string) (float64, bool) {
	return matchHazard(weatherHazards, condition)
}

// RoadHazard encodes a road condition as an ordinal 0 (dry) to 3 (ice/snow).
func RoadHazard(condition string) (float64, bool) {
	return matchHazard(roadHazards, condition)
}

func matchHazard(rules []hazardRule, condition string) (float64, bool) {
	c := strings.ToLower(strings.TrimSpace(condition))
	if c == "" {
		return 0, false
	}
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(c, kw) {
				return rule.level, true
			}
		}
	}
	return 0, false
}
