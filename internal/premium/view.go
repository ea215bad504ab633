package premium

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ViewRules holds the area context used by the view premium.
type ViewRules struct {
	PrimeCoastal     []string `yaml:"prime_coastal"`
	CoastalKeywords  []string `yaml:"coastal_keywords"`
	LandmarkKeywords []string `yaml:"landmark_keywords"`
	LandmarkDistrict string   `yaml:"landmark_district"`
}

// DefaultViewRules returns the built-in Dubai rules.
func DefaultViewRules() ViewRules {
	return ViewRules{
		PrimeCoastal: []string{
			"dubai marina", "jbr", "jumeirah beach residence",
			"palm jumeirah", "bluewaters", "bluewaters island",
			"emaar beachfront", "la mer",
		},
		CoastalKeywords:  []string{"jumeirah", "marina", "beach"},
		LandmarkKeywords: []string{"burj khalifa", "burj"},
		LandmarkDistrict: "downtown",
	}
}

// LoadViewRules reads rule overrides from a YAML file. Empty fields keep
// their defaults. An empty path returns the defaults.
func LoadViewRules(path string) (ViewRules, error) {
	rules := DefaultViewRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, eris.Wrapf(err, "premium: read view rules %s", path)
	}
	var override ViewRules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return rules, eris.Wrapf(err, "premium: parse view rules %s", path)
	}
	if len(override.PrimeCoastal) > 0 {
		rules.PrimeCoastal = lowerAll(override.PrimeCoastal)
	}
	if len(override.CoastalKeywords) > 0 {
		rules.CoastalKeywords = lowerAll(override.CoastalKeywords)
	}
	if len(override.LandmarkKeywords) > 0 {
		rules.LandmarkKeywords = lowerAll(override.LandmarkKeywords)
	}
	if override.LandmarkDistrict != "" {
		rules.LandmarkDistrict = strings.ToLower(override.LandmarkDistrict)
	}
	return rules, nil
}

// View returns the view premium in percent. Rules are checked in order and
// the first match wins.
func (r ViewRules) View(viewType, area string) float64 {
	v := strings.ToLower(strings.TrimSpace(viewType))
	if v == "" {
		return 0
	}
	a := strings.ToLower(area)

	switch {
	case containsAny(v, "sea", "ocean"):
		if containsAny(a, r.PrimeCoastal...) {
			return 15
		}
		if containsAny(a, r.CoastalKeywords...) {
			return 8
		}
		return 5
	case strings.Contains(v, "marina"):
		return 12
	case strings.Contains(v, "golf"):
		return 10
	case containsAny(v, r.LandmarkKeywords...):
		if r.LandmarkDistrict != "" && strings.Contains(a, r.LandmarkDistrict) {
			return 20
		}
		return 10
	case containsAny(v, "park", "garden"):
		return 5
	case containsAny(v, "city", "skyline"):
		return 7
	case strings.Contains(v, "partial"):
		return 5
	}
	return 0
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerAll(xs []string) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = strings.ToLower(strings.TrimSpace(x))
	}
	return out
}
