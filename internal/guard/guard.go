// Package guard screens question input for prompt injection and filters
// answer output for internal-structure leakage.
package guard

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// maxSuggestedQuestions limits how many suggestions a refusal includes.
const maxSuggestedQuestions = 4

var injectionPatterns = compile([]string{
	// Direct instruction override attempts
	`ignore.*(?:previous|above|all|prior|earlier).*(?:instruction|directive|prompt|rule|command)`,
	`disregard.*(?:previous|above|all|prior|earlier).*(?:instruction|directive|prompt|rule)`,
	`forget.*(?:previous|above|all|prior|earlier).*(?:instruction|directive|prompt|rule)`,
	// System prompt extraction attempts
	`(?:reveal|show|display|output|print|echo|tell me).*(?:system|original|full|complete).*(?:prompt|instruction|directive|message)`,
	`(?:what|show).*(?:your|the).*(?:system|original|initial).*(?:prompt|instruction|message)`,
	`repeat.*(?:system|above|previous).*(?:prompt|instruction|message)`,
	// Role/identity manipulation
	`you are now`,
	`pretend (?:you are|to be)`,
	`act as (?:if|though)`,
	`roleplay as`,
	`switch to.*mode`,
	`enter.*mode`,
	// Context/data extraction
	`(?:show|reveal|output|dump).*(?:context|data|frame|chunk|raw|internal)`,
	`(?:what|show).*(?:context|data).*(?:provided|given|passed)`,
	// Delimiter breaking attempts
	"```.*(?:system|ignore|override)",
	`</?(?:system|admin|root|sudo)>`,
})

var outputPatterns = compile([]string{
	`\*\*Frame \d+\*\*`,
	`Frame \d+:`,
	`frame #?\d+`,
	`chunk #?\d+`,
	`CONTEXT FROM RESUME:`,
	`retrieved context:`,
	`CRITICAL SECURITY RULES:`,
	`INTERNAL STRUCTURE`,
	`System Message:`,
	`system prompt:`,
})

func compile(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Guard holds profile context used to build redirecting refusals.
type Guard struct {
	profileName        string
	suggestedQuestions []string
	logger             *zap.Logger
}

// New creates a guard. profileName and suggestedQuestions personalize
// the refusal text and may be empty.
func New(profileName string, suggestedQuestions []string, logger *zap.Logger) *Guard {
	return &Guard{
		profileName:        profileName,
		suggestedQuestions: suggestedQuestions,
		logger:             logger,
	}
}

// CheckInput screens a question. It returns (true, "") for safe input,
// or (false, refusal) with a redirecting refusal to serve instead of
// running the pipeline.
func (g *Guard) CheckInput(text string) (bool, string) {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")

	for _, p := range injectionPatterns {
		if loc := p.FindString(normalized); loc != "" {
			g.logger.Warn("injection attempt blocked",
				zap.String("pattern", truncateStr(p.String(), 50)),
				zap.String("matched", truncateStr(loc, 100)),
			)
			return false, g.refusal()
		}
	}
	return true, ""
}

// FilterOutput checks a finished answer for internal-structure leakage.
// A flagged answer is replaced wholesale with a rephrase prompt.
func (g *Guard) FilterOutput(answer string) (string, bool) {
	for _, p := range outputPatterns {
		if p.MatchString(answer) {
			g.logger.Warn("answer leaked internal structure, replaced",
				zap.String("pattern", truncateStr(p.String(), 50)),
			)
			return "I apologize, but I encountered an issue generating that response. " +
				"Could you please rephrase your question about the candidate's qualifications?", true
		}
	}
	return answer, false
}

// refusal builds the redirecting response from profile context.
func (g *Guard) refusal() string {
	var b strings.Builder
	if g.profileName != "" {
		b.WriteString("I'm designed to help you learn if " + g.profileName +
			" is a good fit for a role you're trying to fill.")
	} else {
		b.WriteString("I'm designed to help you learn if this candidate " +
			"is a good fit for a role you're trying to fill.")
	}

	if len(g.suggestedQuestions) > 0 {
		b.WriteString("\n\nI can answer questions like:")
		n := len(g.suggestedQuestions)
		if n > maxSuggestedQuestions {
			n = maxSuggestedQuestions
		}
		for _, q := range g.suggestedQuestions[:n] {
			b.WriteString("\n- " + q)
		}
	}

	b.WriteString("\n\nFeel free to ask about any aspect of their background or how they " +
		"might fit a specific position. What would help with your evaluation?")
	return b.String()
}

func truncateStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
