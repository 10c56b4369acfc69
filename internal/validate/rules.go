package validate

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/rules.yaml
var rulesYAML embed.FS

// Rules holds the validation thresholds and vocabularies. Vocabulary lists
// are ordered slices so the fuzzy matchers stay deterministic.
type Rules struct {
	MinCompanyNameLength int `yaml:"min_company_name_length"`
	MaxCompanyNameLength int `yaml:"max_company_name_length"`

	MinAmount   float64 `yaml:"min_amount"`
	MaxAmount   float64 `yaml:"max_amount"`
	LargeAmount float64 `yaml:"large_amount"`

	MaxFutureDays  int     `yaml:"max_future_days"`
	AmountVariance float64 `yaml:"amount_variance"`

	Currencies       []string `yaml:"currencies"`
	Stages           []string `yaml:"stages"`
	Sectors          []string `yaml:"sectors"`
	TrustedDomains   []string `yaml:"trusted_domains"`
	BlogPlatforms    []string `yaml:"blog_platforms"`
	InvestorTypes    []string `yaml:"investor_types"`
	PlaceholderNames []string `yaml:"placeholder_names"`
}

// LoadRules reads the embedded rules.yaml. When path is non-empty and exists
// on disk, the file overrides the embedded defaults.
func LoadRules(path string) (*Rules, error) {
	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
	}
	if path == "" || err != nil {
		data, err = rulesYAML.ReadFile("config/rules.yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded rules: %w", err)
		}
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	return &r, nil
}

// DefaultRules returns the embedded rule set. The embedded file is part of
// the build, so a parse failure here is a programming error.
func DefaultRules() *Rules {
	r, err := LoadRules("")
	if err != nil {
		panic(err)
	}
	return r
}
