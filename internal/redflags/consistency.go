package redflags

import (
	"fmt"
	"regexp"

	"github.com/cosminimum/theregistry/internal/models"
)

// CheckConsistency compares a new response against previously stored key
// claims and flags explicit negations of an earlier value. This is a cheap
// substring/negation heuristic, not semantic fact-checking; false negatives
// are expected and acceptable.
func CheckConsistency(claims map[string]string, response string) *models.RedFlag {
	for key, value := range claims {
		if value == "" {
			continue
		}
		quoted := regexp.QuoteMeta(value)
		negations := []*regexp.Regexp{
			regexp.MustCompile(`(?i)not\s+` + quoted),
			regexp.MustCompile(`(?i)never\s+.*` + quoted),
			regexp.MustCompile(`(?i)don't\s+.*` + quoted),
		}
		for _, p := range negations {
			if p.MatchString(response) {
				return &models.RedFlag{
					Type:       TypeInconsistency,
					Penalty:    Penalties[TypeInconsistency],
					Evidence:   fmt.Sprintf("Potential contradiction with earlier claim about %q", key),
					DetectedAt: models.NowStamp(),
				}
			}
		}
	}
	return nil
}

// FormatForDeliberation renders the accumulated flags as a context block
// for the judges' deliberation prompts. Empty when no flags exist.
func FormatForDeliberation(md models.InterviewMetadata) string {
	if len(md.RedFlags) == 0 {
		return ""
	}

	out := fmt.Sprintf("\nRED FLAGS DETECTED (total penalty: %d):\n", md.TotalPenalty)
	for _, f := range md.RedFlags {
		out += "- " + f.Evidence
		if f.TurnNumber > 0 {
			out += fmt.Sprintf(" (turn %d)", f.TurnNumber)
		}
		out += "\n"
	}
	return out
}
