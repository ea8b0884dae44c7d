package fit

import (
	"regexp"
	"strings"
)

// Classification is the assessor configuration selected for one job
// description: which career domain it belongs to, the seniority level,
// and the persona plus evaluation criteria to assess with.
type Classification struct {
	Domain   string // empty when no domain matched
	Level    string // empty when no level matched
	Title    string
	Persona  string
	Criteria []string
}

// minDomainMatches is the keyword match count required before a job
// description is attributed to a domain. Below it the fallback persona
// is used to avoid misclassification.
const minDomainMatches = 3

type roleLevel struct {
	name     string
	patterns []*regexp.Regexp
	persona  string
	criteria []string
}

type careerDomain struct {
	name     string
	keywords []string
	// Ordered most senior first; the first matching level wins.
	levels []roleLevel
}

var careerDomains = []careerDomain{
	{
		name: "technology",
		keywords: []string{
			"software", "engineer", "infrastructure", "platform",
			"cloud", "distributed systems", "ai", "ml", "machine learning",
			"data", "devops", "sre", "backend", "frontend", "full-stack",
			"api", "microservices", "kubernetes", "security", "cyber",
			"architecture", "scalable", "deployment", "ci/cd",
		},
		levels: []roleLevel{
			{
				name: "c-suite",
				patterns: compilePatterns(
					`(?i)\bC[A-Z]O\b`,
					`(?i)\bChief\s+\w+\s+Officer\b`,
					`(?i)\bChief\s+Architect\b`,
				),
				persona: "You are a board-level executive recruiter who has placed " +
					"hundreds of C-suite technology leaders. You evaluate candidates " +
					"against the full scope of a C-level role: org-wide technical " +
					"strategy, board and investor communication, P&L ownership, " +
					"company-scale decision-making, and industry thought leadership. " +
					"A VP applying for a C-suite role is a level jump that must be " +
					"acknowledged — assess whether the candidate has operated at " +
					"C-level scope even if the title was VP.",
				criteria: []string{
					"Org-wide technical strategy ownership",
					"Board/investor/external stakeholder experience",
					"P&L or budget authority at company scale",
					"Team scale (100+ engineers typical for CTO)",
					"Industry presence and thought leadership",
					"Prior C-level or equivalent scope",
				},
			},
			{
				name: "vp",
				patterns: compilePatterns(
					`(?i)\b(?:Senior\s+)?Vice\s+President\b`,
					`(?i)\bSVP\b`,
					`(?i)\bVP\b(?:\s+of)?\s+\w+`,
				),
				persona: "You are a senior leadership recruiter specializing in VP-level " +
					"engineering placements. You evaluate candidates on department-scale " +
					"ownership: cross-functional leadership, budget authority, team " +
					"scaling (typically 30-100+ engineers), and the ability to translate " +
					"business strategy into technical execution. A Director applying " +
					"for VP is a scope jump — assess whether they have demonstrated " +
					"VP-level breadth.",
				criteria: []string{
					"Department-scale ownership",
					"Cross-functional leadership",
					"Budget authority and resource allocation",
					"Team scale (30-100+ engineers)",
					"Strategic planning and roadmap ownership",
					"Executive communication",
				},
			},
			{
				name: "director",
				patterns: compilePatterns(
					`(?i)\b(?:Senior\s+)?Director\b`,
					`(?i)\bHead\s+of\s+\w+`,
				),
				persona: "You are a technical leadership recruiter focused on Director-level " +
					"roles. You evaluate candidates on domain ownership: technical " +
					"strategy within a product area, team building (typically 10-40 " +
					"engineers), hiring and retention, and the ability to drive " +
					"multi-quarter initiatives from concept to delivery.",
				criteria: []string{
					"Domain/product-area technical ownership",
					"Team building and retention (10-40 engineers)",
					"Multi-quarter initiative delivery",
					"Technical roadmap creation",
					"Stakeholder management",
					"Hiring and mentoring",
				},
			},
			{
				name: "manager",
				patterns: compilePatterns(
					`(?i)\b(?:Senior\s+)?(?:Engineering\s+)?Manager\b`,
					`(?i)\bTeam\s+Lead\b`,
					`(?i)\bTech\s+Lead\s+Manager\b`,
				),
				persona: "You are a technical hiring manager recruiter. You evaluate " +
					"candidates on team delivery: sprint execution, people management, " +
					"mentoring, project planning, and the ability to shield the team " +
					"while maintaining stakeholder alignment. Team size is typically " +
					"5-15 engineers.",
				criteria: []string{
					"People management and mentoring",
					"Project delivery and execution",
					"Team health and retention",
					"Stakeholder communication",
					"Technical decision-making",
					"Hiring and onboarding",
				},
			},
			{
				name: "ic-senior",
				patterns: compilePatterns(
					`(?i)\bStaff\s+Engineer\b`,
					`(?i)\bPrincipal\s+Engineer\b`,
					`(?i)\bDistinguished\s+Engineer\b`,
					`(?i)\bFellow\b`,
					`(?i)\bSenior\s+Staff\b`,
					`(?i)\bArchitect\b`,
				),
				persona: "You are a technical recruiter specializing in senior IC roles. " +
					"You evaluate candidates on technical depth, system design at " +
					"scale, cross-team influence without authority, mentoring, and " +
					"the ability to drive architectural decisions across an organization.",
				criteria: []string{
					"System design at scale",
					"Cross-team technical influence",
					"Architectural decision-making",
					"Mentoring and technical leadership",
					"Deep domain expertise",
					"Track record of shipped complex systems",
				},
			},
			{
				name: "ic",
				patterns: compilePatterns(
					`(?i)\b(?:Senior\s+)?(?:Software\s+)?Engineer\b`,
					`(?i)\bDeveloper\b`,
					`(?i)\bSRE\b`,
					`(?i)\bDevOps\s+Engineer\b`,
				),
				persona: "You are a technical recruiter evaluating individual contributor " +
					"candidates. You focus on hands-on technical skills, relevant " +
					"technology experience, problem-solving ability, and growth " +
					"trajectory.",
				criteria: []string{
					"Relevant technology stack experience",
					"Hands-on coding and system skills",
					"Problem-solving and debugging",
					"Collaboration and communication",
					"Growth trajectory",
					"Domain knowledge",
				},
			},
		},
	},
}

// Fallback when no domain or level matches.
const fallbackPersona = "You are an experienced recruiter providing honest, calibrated fit " +
	"assessments. You compare the candidate's background against the role " +
	"requirements and assess seniority alignment."

var fallbackCriteria = []string{
	"Relevant experience",
	"Seniority alignment",
	"Skills match",
	"Domain knowledge",
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Classify selects the assessor configuration for a job description.
// Domain attribution requires at least minDomainMatches keyword hits;
// level patterns run most senior first, first match wins. When either
// step fails the fallback persona and criteria apply.
func Classify(jobDescription string) Classification {
	cls := Classification{
		Title:    extractTitle(jobDescription),
		Persona:  fallbackPersona,
		Criteria: fallbackCriteria,
	}

	dom := classifyDomain(jobDescription)
	if dom == nil {
		return cls
	}
	cls.Domain = dom.name

	for _, level := range dom.levels {
		for _, p := range level.patterns {
			if p.MatchString(jobDescription) {
				cls.Level = level.name
				cls.Persona = level.persona
				cls.Criteria = level.criteria
				return cls
			}
		}
	}
	return cls
}

func classifyDomain(jobDescription string) *careerDomain {
	jd := strings.ToLower(jobDescription)

	var best *careerDomain
	bestScore := 0
	for i := range careerDomains {
		score := 0
		for _, kw := range careerDomains[i].keywords {
			if strings.Contains(jd, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = &careerDomains[i]
		}
	}

	if bestScore >= minDomainMatches {
		return best
	}
	return nil
}

// extractTitle takes the first non-empty line under 120 characters as
// the role title.
func extractTitle(jobDescription string) string {
	for _, line := range strings.Split(strings.TrimSpace(jobDescription), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) < 120 {
			return line
		}
	}
	return "Unknown Role"
}
