package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/david/funding-tracker/internal/models"
)

// pastWeekday returns a date a month back, shifted off weekends so the
// weekend warning does not fire.
func pastWeekday() string {
	d := time.Now().AddDate(0, 0, -30)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d.Format("2006-01-02")
}

func amountPtr(v float64) *float64 { return &v }

func goodEvent() models.FundingEvent {
	return models.FundingEvent{
		CompanyName:      "ClimateAI Technologies",
		AmountText:       "$25M",
		Amount:           amountPtr(25_000_000),
		Currency:         "USD",
		FundingStage:     "Series A",
		CompanySector:    "Climate Analytics",
		AnnouncementDate: pastWeekday(),
		SourceURL:        "https://techcrunch.com/2025/01/15/climateai-raises-25m",
		Investors: []models.EventInvestor{
			{Name: "Sequoia Capital", IsLead: true},
			{Name: "Google Ventures"},
		},
	}
}

func TestValidateCompanyName(t *testing.T) {
	v := New(nil)

	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantWarns int
	}{
		{"normal name", "Tesla Inc", true, 0},
		{"too short", "a", false, 0},
		{"too long", strings.Repeat("x", 101), false, 0},
		{"placeholder", "unknown", true, 1},
		{"all caps", "CLIMATEWORKS VENTURES", true, 1},
		{"unusual characters", "Weird@Name", true, 1},
		{"empty", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.ValidateCompanyName(tt.input)
			if got.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v (errors: %v)", got.IsValid, tt.wantValid, got.Errors)
			}
			if got.IsValid != (len(got.Errors) == 0) {
				t.Error("IsValid does not track the error list")
			}
			if len(got.Warnings) != tt.wantWarns {
				t.Errorf("warnings = %v, want %d of them", got.Warnings, tt.wantWarns)
			}
		})
	}

	// "too long" is valid length-wise only above the threshold; check the
	// boundary stays an error, not a warning.
	if got := v.ValidateCompanyName(strings.Repeat("x", 101)); len(got.Errors) != 1 {
		t.Errorf("expected 1 error for over-long name, got %v", got.Errors)
	}
}

func TestValidateFundingAmount(t *testing.T) {
	v := New(nil)

	t.Run("clean amount", func(t *testing.T) {
		got := v.ValidateFundingAmount("$25M", amountPtr(25_000_000), "USD")
		if !got.IsValid || got.Score != 1.0 || len(got.Warnings) != 0 {
			t.Errorf("expected perfect result, got %+v", got)
		}
	})

	t.Run("too small", func(t *testing.T) {
		got := v.ValidateFundingAmount("$500", amountPtr(500), "USD")
		if got.IsValid {
			t.Errorf("expected invalid, got %+v", got)
		}
	})

	t.Run("too large", func(t *testing.T) {
		got := v.ValidateFundingAmount("$20B", amountPtr(20_000_000_000), "USD")
		if got.IsValid {
			t.Errorf("expected invalid, got %+v", got)
		}
		if len(got.Warnings) == 0 {
			t.Error("expected very-large warning alongside the bound error")
		}
	})

	t.Run("numeric missing", func(t *testing.T) {
		got := v.ValidateFundingAmount("$10M", nil, "USD")
		if !got.IsValid || len(got.Warnings) != 1 {
			t.Errorf("expected warning-only result, got %+v", got)
		}
	})

	t.Run("text and numeric disagree", func(t *testing.T) {
		got := v.ValidateFundingAmount("$10M", amountPtr(99_000_000), "USD")
		if !got.IsValid || len(got.Warnings) != 1 {
			t.Errorf("expected inconsistency warning, got %+v", got)
		}
	})

	t.Run("unknown currency", func(t *testing.T) {
		got := v.ValidateFundingAmount("$25M", amountPtr(25_000_000), "XYZ")
		if len(got.Warnings) != 1 {
			t.Errorf("expected currency warning, got %+v", got)
		}
	})

	t.Run("nothing at all", func(t *testing.T) {
		got := v.ValidateFundingAmount("", nil, "USD")
		if !got.IsValid || len(got.Warnings) != 2 {
			t.Errorf("expected two warnings, got %+v", got)
		}
	})
}

func TestValidateFundingStage(t *testing.T) {
	v := New(nil)

	tests := []struct {
		name      string
		input     string
		wantScore float64
		wantWarns int
	}{
		{"known stage", "Series A", 1.0, 0},
		{"absent", "", 0.7, 1},
		{"fuzzy match", "Series B Extension", 0.9, 1},
		{"unknown", "Mezzanine", 0.8, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.ValidateFundingStage(tt.input)
			if !got.IsValid {
				t.Errorf("stage issues are never errors, got %+v", got)
			}
			if got.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", got.Score, tt.wantScore)
			}
			if len(got.Warnings) != tt.wantWarns {
				t.Errorf("warnings = %v, want %d of them", got.Warnings, tt.wantWarns)
			}
		})
	}
}

func TestValidateSector(t *testing.T) {
	v := New(nil)

	if got := v.ValidateSector("Clean Energy"); got.Score != 1.0 {
		t.Errorf("known sector scored %v", got.Score)
	}
	if got := v.ValidateSector(""); got.Score != 0.7 || len(got.Warnings) != 1 {
		t.Errorf("absent sector = %+v", got)
	}
	if got := v.ValidateSector("Energy"); got.Score != 0.9 {
		t.Errorf("partial sector should fuzzy-match, got %+v", got)
	}
	if got := v.ValidateSector("Fintech"); got.Score != 0.8 {
		t.Errorf("unknown sector = %+v", got)
	}
}

func TestValidateDate(t *testing.T) {
	v := New(nil)

	t.Run("absent", func(t *testing.T) {
		got := v.ValidateDate("")
		if !got.IsValid || got.Score != 0.6 {
			t.Errorf("absent date = %+v", got)
		}
	})

	t.Run("unparseable", func(t *testing.T) {
		got := v.ValidateDate("January 15th")
		if got.IsValid || got.Score != 0.0 {
			t.Errorf("bad date = %+v", got)
		}
	})

	t.Run("before 2000", func(t *testing.T) {
		got := v.ValidateDate("1999-05-03")
		if got.IsValid {
			t.Errorf("ancient date = %+v", got)
		}
	})

	t.Run("too far in future", func(t *testing.T) {
		future := time.Now().AddDate(0, 0, 60).Format("2006-01-02")
		got := v.ValidateDate(future)
		if got.IsValid {
			t.Errorf("far-future date = %+v", got)
		}
	})

	t.Run("recent past weekday", func(t *testing.T) {
		got := v.ValidateDate(pastWeekday())
		if !got.IsValid || got.Score != 1.0 || len(got.Warnings) != 0 {
			t.Errorf("clean date = %+v", got)
		}
	})

	t.Run("today is flagged", func(t *testing.T) {
		got := v.ValidateDate(time.Now().Format("2006-01-02"))
		if !got.IsValid {
			t.Errorf("today should be valid, got %+v", got)
		}
		if len(got.Warnings) == 0 {
			t.Error("expected a very-recent warning for today's date")
		}
	})
}

func TestValidateURL(t *testing.T) {
	v := New(nil)

	t.Run("absent", func(t *testing.T) {
		got := v.ValidateURL("")
		if !got.IsValid || got.Score != 0.5 {
			t.Errorf("absent url = %+v", got)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		got := v.ValidateURL("not a url")
		if got.IsValid || got.Score != 0.0 {
			t.Errorf("malformed url = %+v", got)
		}
	})

	t.Run("trusted domain clamps at one", func(t *testing.T) {
		got := v.ValidateURL("https://www.reuters.com/markets/deals/some-article")
		if !got.IsValid || got.Score != 1.0 {
			t.Errorf("trusted url = %+v", got)
		}
	})

	t.Run("gov bonus", func(t *testing.T) {
		got := v.ValidateURL("https://energy.gov/articles/announcement")
		if got.Score != 1.0 {
			t.Errorf("gov url = %+v", got)
		}
	})

	t.Run("blog platform", func(t *testing.T) {
		got := v.ValidateURL("https://myclimate.wordpress.com/2025/01/news")
		if !got.IsValid || len(got.Warnings) != 1 {
			t.Errorf("blog url = %+v", got)
		}
	})

	t.Run("localhost", func(t *testing.T) {
		got := v.ValidateURL("http://localhost:8080/fake")
		if got.IsValid {
			t.Errorf("localhost url = %+v", got)
		}
	})
}

func TestValidateInvestors(t *testing.T) {
	v := New(nil)

	t.Run("absent", func(t *testing.T) {
		for _, input := range []any{nil, []models.EventInvestor{}, []string{}} {
			got := v.ValidateInvestors(input)
			if !got.IsValid || got.Score != 0.3 || len(got.Warnings) != 1 {
				t.Errorf("ValidateInvestors(%v) = %+v", input, got)
			}
		}
	})

	t.Run("lead plus participant", func(t *testing.T) {
		got := v.ValidateInvestors([]models.EventInvestor{
			{Name: "Sequoia Capital", IsLead: true},
			{Name: "Google Ventures"},
		})
		if !got.IsValid || got.Score != 1.0 || len(got.Warnings) != 0 {
			t.Errorf("clean investors = %+v", got)
		}
	})

	t.Run("no lead flagged", func(t *testing.T) {
		got := v.ValidateInvestors([]models.EventInvestor{
			{Name: "Sequoia Capital"},
			{Name: "Google Ventures"},
		})
		if len(got.Warnings) != 1 {
			t.Errorf("expected no-lead warning, got %+v", got)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		got := v.ValidateInvestors([]models.EventInvestor{{Name: "  ", IsLead: true}})
		if got.IsValid {
			t.Errorf("expected invalid, got %+v", got)
		}
	})

	t.Run("unknown type tag", func(t *testing.T) {
		got := v.ValidateInvestors([]models.EventInvestor{{Name: "Sequoia Capital", Type: "Hedge Fund", IsLead: true}})
		if !got.IsValid || len(got.Warnings) != 1 {
			t.Errorf("expected type warning, got %+v", got)
		}
	})

	t.Run("plain strings", func(t *testing.T) {
		got := v.ValidateInvestors([]string{"Sequoia Capital", ""})
		if got.IsValid {
			t.Errorf("empty string name should be an error, got %+v", got)
		}
	})

	t.Run("not a list", func(t *testing.T) {
		got := v.ValidateInvestors("Sequoia Capital")
		if got.IsValid || got.Score != 0.0 {
			t.Errorf("non-list input = %+v", got)
		}
	})
}

func TestValidateFundingEvent(t *testing.T) {
	v := New(nil)

	got := v.ValidateFundingEvent(goodEvent())
	if !got.IsValid {
		t.Fatalf("good event invalid: %v", got.Errors)
	}
	if got.Score != 1.0 {
		t.Errorf("good event score = %v, want 1.0 (warnings: %v)", got.Score, got.Warnings)
	}
}

func TestValidateFundingEventMissingRequired(t *testing.T) {
	v := New(nil)

	ev := goodEvent()
	ev.CompanyName = ""
	got := v.ValidateFundingEvent(ev)
	if got.IsValid {
		t.Error("event without company name must be invalid")
	}

	ev = goodEvent()
	ev.AmountText = ""
	ev.Amount = nil
	got = v.ValidateFundingEvent(ev)
	if got.IsValid {
		t.Error("event without amount text must be invalid")
	}
}

func TestValidateFundingEventScoreBounds(t *testing.T) {
	v := New(nil)

	worst := models.FundingEvent{
		CompanyName:      "a",
		AmountText:       "???",
		Amount:           amountPtr(-5),
		Currency:         "ZZZ",
		FundingStage:     "weird thing",
		CompanySector:    "nonsense",
		AnnouncementDate: "garbage",
		SourceURL:        "http://localhost/fake",
		Investors:        []models.EventInvestor{{Name: ""}, {Name: ""}},
	}

	got := v.ValidateFundingEvent(worst)
	if got.IsValid {
		t.Error("worst-case event reported valid")
	}
	if got.Score < 0.0 || got.Score > 1.0 {
		t.Errorf("score out of bounds: %v", got.Score)
	}
}

func TestValidateFundingEventRanking(t *testing.T) {
	v := New(nil)

	full := v.ValidateFundingEvent(goodEvent())

	degraded := goodEvent()
	degraded.AnnouncementDate = ""
	for i := range degraded.Investors {
		degraded.Investors[i].IsLead = false
	}

	partial := v.ValidateFundingEvent(degraded)
	if partial.Score >= full.Score {
		t.Errorf("degraded event (%v) should score below full event (%v)", partial.Score, full.Score)
	}
}
