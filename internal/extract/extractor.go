package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Investor roles assigned during extraction.
const (
	RoleLead        = "lead"
	RoleParticipant = "participant"
)

// Confidence assigned to regex-derived entities. A hit is a hit: confidence
// does not scale with match length or pattern rank.
const (
	leadConfidence        = 0.9
	amountConfidence      = 0.9
	participantConfidence = 0.8
)

// Amount is a funding amount pulled out of article text. AmountText keeps the
// matched snippet verbatim for display and later consistency checks.
type Amount struct {
	Amount     float64 `json:"amount"`
	AmountText string  `json:"amount_text"`
	Currency   string  `json:"currency"`
	Confidence float64 `json:"confidence"`
}

// Investor is a single investor mention with its detected role.
type Investor struct {
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Confidence float64 `json:"confidence"`
}

// Entities is the draft produced by one extraction pass over one article.
// Empty fields mean nothing matched, which is a normal outcome.
type Entities struct {
	Companies     []string   `json:"companies"`
	FundingAmount *Amount    `json:"funding_amount,omitempty"`
	FundingStage  string     `json:"funding_stage,omitempty"`
	Investors     []Investor `json:"investors"`
}

// Amount patterns are tried in order and the first match wins, so order is a
// commitment: a later pattern never overrides an earlier hit. Group layout is
// (number, magnitude?, currency?); patterns with fewer groups simply omit the
// trailing ones.
var amountPatterns = []*regexp.Regexp{
	// $10M, $10 million, $10.5 billion
	regexp.MustCompile(`(?i)\$\s*(\d+(?:\.\d+)?)\s*(million|billion|M|B|mn|bn)`),
	// 10 million USD, 50M EUR
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(million|billion|M|B|mn|bn)\s*(USD|EUR|GBP|dollars?|euros?|pounds?)`),
	// $10,000,000
	regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})+(?:\.\d+)?)`),
	// raised $10m
	regexp.MustCompile(`(?i)raised\s+\$\s*(\d+(?:\.\d+)?)\s*(million|billion|M|B|mn|bn)?`),
	// funding of $10m
	regexp.MustCompile(`(?i)funding\s+of\s+\$\s*(\d+(?:\.\d+)?)\s*(million|billion|M|B|mn|bn)?`),
}

// Company patterns are case-sensitive on purpose: the capitalization is the
// signal.
var companyPatterns = []*regexp.Regexp{
	// Capitalized run followed by a legal-entity suffix
	regexp.MustCompile(`([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)\s+(?:Inc\.|Ltd\.|Corp\.|Corporation|LLC|GmbH|AG)`),
	// Quoted capitalized phrase
	regexp.MustCompile(`["']([A-Z][A-Za-z]+(?:\s+[A-Za-z]+)*)["']`),
	// Capitalized run followed by a funding verb
	regexp.MustCompile(`([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)\s+(?:raised|announces|secures|closes)`),
}

var companyStopList = map[string]struct{}{
	"The": {}, "This": {}, "That": {},
}

var (
	leadInvestorRe = regexp.MustCompile(`(?i)led\s+by\s+([^,\.\n]+?)(?:\s+(?:and|with)|[,\.]|\n|$)`)

	participantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:with\s+)?participation\s+from\s+([^,\.\n]+?)(?:\s+(?:and|with)|[,\.]|\n|$)`),
		regexp.MustCompile(`(?i)(?:other\s+)?investors?\s+(?:include|including)\s+([^,\.\n]+?)(?:\s+(?:and|with)|[,\.]|\n|$)`),
		regexp.MustCompile(`(?i)joined\s+by\s+([^,\.\n]+?)(?:\s+(?:and|with)|[,\.]|\n|$)`),
	}

	investorSplitRe         = regexp.MustCompile(`\s+and\s+|,\s*`)
	investorPrefixRe        = regexp.MustCompile(`(?i)^(?:including|such as|like)\s+`)
	investorParentheticalRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
)

// defaultStages is the stage phrase list searched in article text, in
// priority order: more specific phrases come before their substrings so
// "pre-seed" is never reported as "seed".
var defaultStages = []string{
	"pre-seed", "preseed", "seed", "series a", "series b", "series c",
	"series d", "series e", "series f", "growth", "late stage",
	"debt financing", "grant", "ipo",
}

// Extractor pulls draft funding entities out of raw article text with ordered
// regex passes. It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	stages   []string
	stageRes []*regexp.Regexp
}

// New builds an Extractor over the given stage phrase list. A nil list uses
// the built-in stages.
func New(stages []string) *Extractor {
	if len(stages) == 0 {
		stages = defaultStages
	}

	res := make([]*regexp.Regexp, len(stages))
	for i, stage := range stages {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(stage)) + `\b`)
	}

	return &Extractor{stages: stages, stageRes: res}
}

// ExtractAll runs every sub-extractor over the text and collects the results
// into one draft.
func (e *Extractor) ExtractAll(text string) Entities {
	return Entities{
		Companies:     e.ExtractCompanyNames(text),
		FundingAmount: e.ExtractFundingAmount(text),
		FundingStage:  e.ExtractFundingStage(text),
		Investors:     e.ExtractInvestors(text),
	}
}

// ExtractFundingAmount finds the first funding amount in the text. Nil means
// no pattern matched.
func (e *Extractor) ExtractFundingAmount(text string) *Amount {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}

		unit := ""
		if len(m) > 2 {
			unit = strings.ToLower(m[2])
		}
		switch unit {
		case "million", "m", "mn":
			amount *= 1_000_000
		case "billion", "b", "bn":
			amount *= 1_000_000_000
		}

		currency := "USD"
		if len(m) > 3 && m[3] != "" {
			switch code := strings.ToUpper(m[3]); code {
			case "USD", "EUR", "GBP":
				currency = code
			}
		}

		return &Amount{
			Amount:     amount,
			AmountText: m[0],
			Currency:   currency,
			Confidence: amountConfidence,
		}
	}

	return nil
}

// ExtractFundingStage returns the first stage phrase found in the text,
// title-cased, or "" when none matches. "seed" appearing anywhere without
// "pre" is reported as Seed even when no phrase matched as a whole word.
func (e *Extractor) ExtractFundingStage(text string) string {
	textLower := strings.ToLower(text)

	for i, stage := range e.stages {
		if !strings.Contains(textLower, strings.ToLower(stage)) {
			continue
		}
		if e.stageRes[i].MatchString(textLower) {
			return titleCase(stage)
		}
	}

	if strings.Contains(textLower, "seed") && !strings.Contains(textLower, "pre") {
		return "Seed"
	}

	return ""
}

// ExtractCompanyNames returns candidate company names in first-seen order.
// Candidates shorter than 3 characters or on the stop list are dropped.
func (e *Extractor) ExtractCompanyNames(text string) []string {
	var companies []string
	for _, re := range companyPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			company := m[1]
			if len(company) <= 2 {
				continue
			}
			if _, stopped := companyStopList[company]; stopped {
				continue
			}
			companies = append(companies, company)
		}
	}

	seen := make(map[string]struct{}, len(companies))
	unique := companies[:0]
	for _, company := range companies {
		if _, ok := seen[company]; ok {
			continue
		}
		seen[company] = struct{}{}
		unique = append(unique, company)
	}

	return unique
}

// ExtractInvestors finds investor mentions with their roles. Lead investors
// are matched first; a name already recorded as lead is never re-added as a
// participant.
func (e *Extractor) ExtractInvestors(text string) []Investor {
	var investors []Investor

	for _, m := range leadInvestorRe.FindAllStringSubmatch(text, -1) {
		for _, name := range cleanInvestorNames(m[1]) {
			investors = append(investors, Investor{
				Name:       name,
				Role:       RoleLead,
				Confidence: leadConfidence,
			})
		}
	}

	for _, re := range participantPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			for _, name := range cleanInvestorNames(m[1]) {
				if hasInvestor(investors, name) {
					continue
				}
				investors = append(investors, Investor{
					Name:       name,
					Role:       RoleParticipant,
					Confidence: participantConfidence,
				})
			}
		}
	}

	return investors
}

func hasInvestor(investors []Investor, name string) bool {
	for _, inv := range investors {
		if inv.Name == name {
			return true
		}
	}
	return false
}

// cleanInvestorNames splits a raw match on "and"/commas and keeps only the
// pieces that look like proper names: leading "including"/"such as"/"like"
// and trailing parentheticals stripped, first letter uppercase, length > 2.
func cleanInvestorNames(raw string) []string {
	var cleaned []string
	for _, name := range investorSplitRe.Split(strings.TrimSpace(raw), -1) {
		name = strings.TrimSpace(name)
		name = investorPrefixRe.ReplaceAllString(name, "")
		name = investorParentheticalRe.ReplaceAllString(name, "")

		if len(name) <= 2 {
			continue
		}
		first := []rune(name)[0]
		if !unicode.IsUpper(first) {
			continue
		}
		cleaned = append(cleaned, name)
	}
	return cleaned
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
