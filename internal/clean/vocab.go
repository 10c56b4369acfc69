package clean

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/vocab.yaml
var vocabYAML embed.FS

// InvestorAlias maps a canonical investor name to its known variations.
type InvestorAlias struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

// StageAlias maps a canonical funding stage label to its known variations.
type StageAlias struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

// Vocab holds the static alias and suffix tables used for canonicalization.
// Alias tables are ordered slices, not maps: lookup is first-match-wins and
// must stay deterministic across runs.
type Vocab struct {
	CompanySuffixes []string        `yaml:"company_suffixes"`
	CompanyFillers  []string        `yaml:"company_fillers"`
	InvestorAliases []InvestorAlias `yaml:"investor_aliases"`
	StageAliases    []StageAlias    `yaml:"stage_aliases"`
	FundingStages   []string        `yaml:"funding_stages"`
}

// LoadVocab reads the embedded vocab.yaml. When path is non-empty and exists
// on disk, the file overrides the embedded defaults so vocabularies can be
// extended without recompiling.
func LoadVocab(path string) (*Vocab, error) {
	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
	}
	if path == "" || err != nil {
		data, err = vocabYAML.ReadFile("config/vocab.yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded vocab: %w", err)
		}
	}

	var v Vocab
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocab: %w", err)
	}

	return &v, nil
}

// DefaultVocab returns the embedded vocabulary tables. The embedded file is
// part of the build, so a parse failure here is a programming error.
func DefaultVocab() *Vocab {
	v, err := LoadVocab("")
	if err != nil {
		panic(err)
	}
	return v
}
