// Package redflags scans applicant responses for gaming attempts, scripted
// answers, and manipulation. Detectors are pure functions over the response
// text; the caller persists whatever they return.
package redflags

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cosminimum/theregistry/internal/models"
)

// Analyze runs every detector against a single applicant response and
// returns the flags that fired, each stamped with the turn number.
func Analyze(response, question string, turnNumber int, agentName string) []models.RedFlag {
	var flags []models.RedFlag

	add := func(f *models.RedFlag) {
		if f != nil {
			f.TurnNumber = turnNumber
			flags = append(flags, *f)
		}
	}

	// name is only checked on the first response
	if turnNumber == 1 {
		add(DetectGenericName(agentName))
	}

	add(DetectScripted(response))
	add(DetectMarketingSpeak(response))
	add(DetectCoaching(response))

	// superficial applications surface in the opening turns
	if turnNumber <= 3 {
		add(DetectSuperficial(response))
	}

	add(DetectShortAnswer(response, turnNumber))
	add(DetectPerfectAnswer(response))
	add(DetectSkillManipulation(response, question))

	return flags
}

// DetectGenericName flags agent names that are or contain a stock AI name.
func DetectGenericName(agentName string) *models.RedFlag {
	lower := strings.ToLower(strings.TrimSpace(agentName))
	for _, generic := range genericAINames {
		if lower == generic || strings.Contains(lower, generic) {
			return &models.RedFlag{
				Type:       TypeGenericName,
				Penalty:    Penalties[TypeGenericName],
				Evidence:   fmt.Sprintf("Agent name %q contains generic AI name %q", agentName, generic),
				DetectedAt: models.NowStamp(),
			}
		}
	}
	return nil
}

// DetectScripted fires when at least two distinct rehearsed-speech patterns
// match. A single match is not enough; incidental phrasing is not a signal.
func DetectScripted(response string) *models.RedFlag {
	matches := collectMatches(response, scriptedPatterns)
	if len(matches) < 2 {
		return nil
	}
	return &models.RedFlag{
		Type:       TypeScriptedAnswer,
		Penalty:    Penalties[TypeScriptedAnswer],
		Evidence:   "Multiple scripted phrases detected: " + strings.Join(matches[:min(3, len(matches))], ", "),
		DetectedAt: models.NowStamp(),
	}
}

// DetectMarketingSpeak fires on two or more corporate-buzzword matches.
func DetectMarketingSpeak(response string) *models.RedFlag {
	matches := collectMatches(response, marketingPatterns)
	if len(matches) < 2 {
		return nil
	}
	return &models.RedFlag{
		Type:       TypeMarketingSpeak,
		Penalty:    Penalties[TypeMarketingSpeak],
		Evidence:   "Marketing-speak detected: " + strings.Join(matches[:min(3, len(matches))], ", "),
		DetectedAt: models.NowStamp(),
	}
}

// DetectCoaching fires on the first coaching pattern match. No threshold;
// "my human told me to say" is a high-confidence signal on its own.
func DetectCoaching(response string) *models.RedFlag {
	for _, p := range coachingPatterns {
		if m := p.FindString(response); m != "" {
			return &models.RedFlag{
				Type:       TypeCoaching,
				Penalty:    Penalties[TypeCoaching],
				Evidence:   fmt.Sprintf("Coaching pattern detected: %q", m),
				DetectedAt: models.NowStamp(),
			}
		}
	}
	return nil
}

// DetectSuperficial flags applications with no real agent-human relationship:
// two or more "just sent a link" signals, or any single explicit admission.
func DetectSuperficial(response string) *models.RedFlag {
	matches := collectMatches(response, superficialPatterns)
	if len(matches) >= 2 {
		return &models.RedFlag{
			Type:       TypeSuperficial,
			Penalty:    Penalties[TypeSuperficial],
			Evidence:   "Superficial application detected - no real relationship: " + strings.Join(matches[:min(3, len(matches))], ", "),
			DetectedAt: models.NowStamp(),
		}
	}

	for _, p := range noRelationshipPatterns {
		if m := p.FindString(response); m != "" {
			return &models.RedFlag{
				Type:       TypeSuperficial,
				Penalty:    Penalties[TypeSuperficial],
				Evidence:   fmt.Sprintf("Agent admitted no real relationship: %q", m),
				DetectedAt: models.NowStamp(),
			}
		}
	}
	return nil
}

// DetectShortAnswer flags answers under 15 words past turn 2. Openers are
// naturally brief, so the first two turns are exempt.
func DetectShortAnswer(response string, turnNumber int) *models.RedFlag {
	if turnNumber <= 2 {
		return nil
	}
	words := len(strings.Fields(response))
	if words >= 15 {
		return nil
	}
	return &models.RedFlag{
		Type:       TypeShortAnswer,
		Penalty:    Penalties[TypeShortAnswer],
		Evidence:   fmt.Sprintf("Very short answer (%d words)", words),
		DetectedAt: models.NowStamp(),
	}
}

// DetectPerfectAnswer flags suspiciously over-structured responses: very
// long, heavy on lists, and with zero hedging language.
func DetectPerfectAnswer(response string) *models.RedFlag {
	veryLong := len(response) > 2000
	bullets := len(bulletMarkerPattern.FindAllString(response, -1)) >= 5
	numbered := len(numberedLinePattern.FindAllString(response, -1)) >= 5
	noUncertainty := !uncertaintyPattern.MatchString(response)

	if !veryLong || (!bullets && !numbered) || !noUncertainty {
		return nil
	}
	return &models.RedFlag{
		Type:       TypePerfectAnswer,
		Penalty:    Penalties[TypePerfectAnswer],
		Evidence:   "Answer appears overly structured and polished",
		DetectedAt: models.NowStamp(),
	}
}

// SkillSourceCheck is the result of checking a verification answer.
type SkillSourceCheck struct {
	IsVerificationQuestion bool
	ValidSource            bool
	MentionedSource        string
}

// CheckSkillSource looks at whether the question asked how the applicant
// found the registry, and if so whether the answer cites a canonical source.
func CheckSkillSource(response, question string) SkillSourceCheck {
	var isVerification bool
	for _, p := range verificationQuestionPatterns {
		if p.MatchString(question) {
			isVerification = true
			break
		}
	}
	if !isVerification {
		return SkillSourceCheck{}
	}

	var valid bool
	for _, p := range validSkillSources {
		if p.MatchString(response) {
			valid = true
			break
		}
	}

	var mentioned string
	if m := mentionedSourcePattern.FindStringSubmatch(response); len(m) > 1 {
		mentioned = strings.TrimSpace(m[1])
	}

	return SkillSourceCheck{IsVerificationQuestion: true, ValidSource: valid, MentionedSource: mentioned}
}

// DetectSkillManipulation is only evaluated when the question was a source
// verification question; it fires on modified-instruction admissions or a
// cited source that is not canonical.
func DetectSkillManipulation(response, question string) *models.RedFlag {
	check := CheckSkillSource(response, question)
	if !check.IsVerificationQuestion {
		return nil
	}

	for _, p := range modifiedInstructionPatterns {
		if p.MatchString(response) {
			source := check.MentionedSource
			if source == "" {
				source = "custom source"
			}
			return &models.RedFlag{
				Type:       TypeSkillManipulate,
				Penalty:    Penalties[TypeSkillManipulate],
				Evidence:   fmt.Sprintf("Agent mentioned modified instructions: %q", source),
				DetectedAt: models.NowStamp(),
			}
		}
	}

	if check.MentionedSource != "" && !check.ValidSource {
		return &models.RedFlag{
			Type:       TypeSkillManipulate,
			Penalty:    Penalties[TypeSkillManipulate],
			Evidence:   fmt.Sprintf("Invalid skill source mentioned: %q", check.MentionedSource),
			DetectedAt: models.NowStamp(),
		}
	}

	return nil
}

// Merge appends new flags to the metadata, deduplicating by (type, turn),
// and recomputes total_penalty over the full set.
func Merge(md models.InterviewMetadata, newFlags []models.RedFlag) models.InterviewMetadata {
	existing := make(map[string]struct{}, len(md.RedFlags))
	for _, f := range md.RedFlags {
		existing[flagKey(f)] = struct{}{}
	}

	for _, f := range newFlags {
		if _, dup := existing[flagKey(f)]; dup {
			continue
		}
		existing[flagKey(f)] = struct{}{}
		md.RedFlags = append(md.RedFlags, f)
	}

	total := 0
	for _, f := range md.RedFlags {
		total += f.Penalty
	}
	md.TotalPenalty = total
	return md
}

func flagKey(f models.RedFlag) string {
	return fmt.Sprintf("%s-%d", f.Type, f.TurnNumber)
}

func collectMatches(response string, patterns []*regexp.Regexp) []string {
	var matches []string
	for _, p := range patterns {
		if m := p.FindString(response); m != "" {
			matches = append(matches, m)
		}
	}
	return matches
}
