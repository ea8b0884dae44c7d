package fit

import (
	"strings"
	"testing"
)

// techJD returns a job description with enough technology keywords to
// clear domain attribution, with the given title line on top.
func techJD(title string) string {
	return title + "\n\nYou will build software infrastructure on our cloud platform,\n" +
		"owning backend services, deployment pipelines, and API design."
}

func TestClassifyLevels(t *testing.T) {
	tests := []struct {
		title string
		level string
	}{
		{"Chief Technology Officer", "c-suite"},
		{"CTO", "c-suite"},
		{"Chief Architect", "c-suite"},
		{"VP of Engineering", "vp"},
		{"Senior Vice President, Platform", "vp"},
		{"Director of Infrastructure", "director"},
		{"Head of Data", "director"},
		{"Engineering Manager", "manager"},
		{"Team Lead", "manager"},
		{"Staff Engineer", "ic-senior"},
		{"Principal Engineer", "ic-senior"},
		{"Senior Software Engineer", "ic"},
		{"DevOps Engineer", "ic"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			cls := Classify(techJD(tt.title))
			if cls.Domain != "technology" {
				t.Fatalf("domain = %q, want technology", cls.Domain)
			}
			if cls.Level != tt.level {
				t.Errorf("level = %q, want %q", cls.Level, tt.level)
			}
			if cls.Title != tt.title {
				t.Errorf("title = %q, want %q", cls.Title, tt.title)
			}
			if cls.Persona == fallbackPersona {
				t.Error("matched level still uses fallback persona")
			}
		})
	}
}

func TestClassifySeniorityOrder(t *testing.T) {
	// "VP of Engineering" also matches the ic "Engineer" pattern; the
	// more senior level must win.
	cls := Classify(techJD("VP of Engineering"))
	if cls.Level != "vp" {
		t.Errorf("level = %q, want vp", cls.Level)
	}
}

func TestClassifyUnknownDomainFallsBack(t *testing.T) {
	cls := Classify("Head Chef\n\nRun the kitchen of a busy restaurant, plan menus,\nand manage food suppliers.")
	if cls.Domain != "" {
		t.Errorf("domain = %q, want none", cls.Domain)
	}
	if cls.Persona != fallbackPersona {
		t.Errorf("persona = %q, want fallback", cls.Persona)
	}
	if len(cls.Criteria) != len(fallbackCriteria) {
		t.Errorf("criteria = %v, want fallback set", cls.Criteria)
	}
	if cls.Title != "Head Chef" {
		t.Errorf("title = %q", cls.Title)
	}
}

func TestClassifyDomainWithoutLevelFallsBack(t *testing.T) {
	jd := "Technology consultant\n\nAdvise clients on cloud infrastructure, software architecture,\nand API strategy."
	cls := Classify(jd)
	if cls.Domain != "technology" {
		t.Fatalf("domain = %q, want technology", cls.Domain)
	}
	if cls.Level != "" {
		t.Errorf("level = %q, want none", cls.Level)
	}
	if cls.Persona != fallbackPersona {
		t.Error("unmatched level must use fallback persona")
	}
}

func TestClassifyRequiresThreeKeywordMatches(t *testing.T) {
	// Two technology keywords only; not enough signal.
	cls := Classify("Sales Engineer\n\nSell our software to enterprise accounts and build customer relationships over many years.")
	if cls.Domain != "" {
		t.Errorf("domain = %q, want none for weak signal", cls.Domain)
	}
}

func TestExtractTitle(t *testing.T) {
	if got := extractTitle("\n\n  Staff Engineer  \nrest of jd"); got != "Staff Engineer" {
		t.Errorf("title = %q", got)
	}
	// An overlong first line is skipped in favor of the next one.
	long := strings.Repeat("x", 150) + "\nEngineering Manager\nbody"
	if got := extractTitle(long); got != "Engineering Manager" {
		t.Errorf("title = %q", got)
	}
	if got := extractTitle("   \n  "); got != "Unknown Role" {
		t.Errorf("empty jd title = %q", got)
	}
}
