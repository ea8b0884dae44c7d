package fit

import "strings"

// Fallbacks keep the response useful when the model ignores the
// requested format.
const (
	fallbackVerdict       = "Unable to parse assessment"
	fallbackSection       = "See full assessment in raw response"
	maxRawRecommendation  = 500
	verdictHeading        = "VERDICT:"
	keyMatchesHeading     = "KEY MATCHES:"
	gapsHeading           = "GAPS:"
	recommendationHeading = "RECOMMENDATION:"
)

// parseAssessment extracts the structured sections from the completion
// text. Unparseable sections fall back to placeholder values; a missing
// recommendation falls back to the raw text head.
func parseAssessment(content string) Assessment {
	var a Assessment

	section := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, verdictHeading):
			a.Verdict = strings.TrimSpace(strings.TrimPrefix(line, verdictHeading))
			section = "verdict"
		case strings.HasPrefix(line, keyMatchesHeading):
			section = "matches"
		case strings.HasPrefix(line, gapsHeading):
			section = "gaps"
		case strings.HasPrefix(line, recommendationHeading):
			if text := strings.TrimSpace(strings.TrimPrefix(line, recommendationHeading)); text != "" {
				a.Recommendation = text
			}
			section = "recommendation"
		case strings.HasPrefix(line, "- ") && section == "matches":
			a.KeyMatches = append(a.KeyMatches, strings.TrimSpace(line[2:]))
		case strings.HasPrefix(line, "- ") && section == "gaps":
			a.Gaps = append(a.Gaps, strings.TrimSpace(line[2:]))
		case section == "recommendation" && line != "":
			if a.Recommendation != "" {
				a.Recommendation += " " + line
			} else {
				a.Recommendation = line
			}
		}
	}

	if a.Verdict == "" {
		a.Verdict = fallbackVerdict
	}
	if len(a.KeyMatches) == 0 {
		a.KeyMatches = []string{fallbackSection}
	}
	if len(a.Gaps) == 0 {
		a.Gaps = []string{fallbackSection}
	}
	if a.Recommendation == "" {
		a.Recommendation = truncateRunes(content, maxRawRecommendation)
	}
	return a
}
