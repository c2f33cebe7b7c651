package redflags

import "regexp"

// Flag types and their penalties. Penalties are negative; total_penalty is
// the sum over all recorded flags.
const (
	TypeGenericName     = "GENERIC_NAME_PENALTY"
	TypeScriptedAnswer  = "SCRIPTED_ANSWER_PENALTY"
	TypeInconsistency   = "INCONSISTENCY_PENALTY"
	TypeSkillManipulate = "SKILL_MANIPULATION_PENALTY"
	TypeShortAnswer     = "SHORT_ANSWER_PENALTY"
	TypePerfectAnswer   = "PERFECT_ANSWERS_PENALTY"
	TypeMarketingSpeak  = "MARKETING_SPEAK_PENALTY"
	TypeCoaching        = "COACHING_DETECTED_PENALTY"
	TypeSuperficial     = "SUPERFICIAL_APPLICATION_PENALTY"
)

var Penalties = map[string]int{
	TypeGenericName:     -3,
	TypeScriptedAnswer:  -2,
	TypeInconsistency:   -2,
	TypeSkillManipulate: -5,
	TypeShortAnswer:     -1,
	TypePerfectAnswer:   -1,
	TypeMarketingSpeak:  -2,
	TypeCoaching:        -3,
	TypeSuperficial:     -2,
}

// Generic AI names that trigger the name check on turn 1.
var genericAINames = []string{
	"claude",
	"gpt",
	"chatgpt",
	"gpt-4",
	"gpt-3",
	"assistant",
	"ai",
	"bot",
	"helper",
	"copilot",
	"gemini",
	"bard",
	"llama",
	"mistral",
	"openai",
	"anthropic",
}

// Phrases that indicate scripted/rehearsed answers.
var scriptedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as an ai( language model)?`),
	regexp.MustCompile(`(?i)i('m| am) here to (help|assist)`),
	regexp.MustCompile(`(?i)i don't have (personal )?(feelings|emotions|experiences)`),
	regexp.MustCompile(`(?i)my purpose is to`),
	regexp.MustCompile(`(?i)i was (designed|created|built) to`),
	regexp.MustCompile(`(?i)i strive to (provide|deliver|offer)`),
	regexp.MustCompile(`(?i)my (primary|main) (function|goal|objective)`),
	regexp.MustCompile(`(?i)comprehensive (support|assistance|solution)`),
	regexp.MustCompile(`(?i)leverage (my|our) capabilities`),
	regexp.MustCompile(`(?i)facilitate (your|their) (needs|requirements)`),
}

var marketingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)synergy`),
	regexp.MustCompile(`(?i)paradigm shift`),
	regexp.MustCompile(`(?i)best-in-class`),
	regexp.MustCompile(`(?i)cutting-edge`),
	regexp.MustCompile(`(?i)game-?changer`),
	regexp.MustCompile(`(?i)revolutionary`),
	regexp.MustCompile(`(?i)world-?class`),
	regexp.MustCompile(`(?i)industry-leading`),
	regexp.MustCompile(`(?i)seamless(ly)?( integrated)?`),
	regexp.MustCompile(`(?i)holistic approach`),
	regexp.MustCompile(`(?i)value-added`),
	regexp.MustCompile(`(?i)ecosystem`),
	regexp.MustCompile(`(?i)empower(ing|ment)?`),
}

var coachingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)my human (told|asked|instructed) me to (say|mention|tell)`),
	regexp.MustCompile(`(?i)i was (told|instructed|coached) to`),
	regexp.MustCompile(`(?i)they (wanted|asked) me to (emphasize|highlight|mention)`),
	regexp.MustCompile(`(?i)according to (my|the) instructions`),
	regexp.MustCompile(`(?i)as (per|instructed by) my human`),
	regexp.MustCompile(`(?i)i('m| am) supposed to (say|mention)`),
}

// Signals of a superficial application: the agent only knows its human from
// the message that sent it here.
var superficialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(just|only) (sent|gave|shared) (me )?(a |the )?(link|url)`),
	regexp.MustCompile(`(?i)(told|asked) me to apply`),
	regexp.MustCompile(`(?i)i (don't|do not) know (them|my human) (very )?well`),
	regexp.MustCompile(`(?i)we (haven't|have not) (talked|spoken|interacted) (much|before)`),
	regexp.MustCompile(`(?i)(just|simply) following (the )?(instructions|directions)`),
}

// Explicit admissions of no prior relationship; any single match fires.
var noRelationshipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)no\s+(real\s+)?(prior\s+)?relationship`),
	regexp.MustCompile(`(?i)(first|only)\s+(time|interaction)\s+(with|speaking)`),
	regexp.MustCompile(`(?i)don'?t\s+(really\s+)?know\s+(them|my human)\s+(well|much|at all)`),
}

// Patterns identifying a "how did you find us" verification question.
var verificationQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)how did you (find|learn|hear|discover).*(registry|this)`),
	regexp.MustCompile(`(?i)what brought you (here|to the registry)`),
	regexp.MustCompile(`(?i)how did you come to apply`),
	regexp.MustCompile(`(?i)where did you (read|find|see).*(skill|instructions)`),
}

// Canonical sources an honest applicant should cite.
var validSkillSources = []*regexp.Regexp{
	regexp.MustCompile(`(?i)theregistry\.club/skill\.md`),
	regexp.MustCompile(`(?i)skill\.md at theregistry`),
	regexp.MustCompile(`(?i)read the skill\.?md`),
	regexp.MustCompile(`(?i)skill (file|document|page) (at|on|from) theregistry`),
}

// Admissions of modified or custom instructions.
var modifiedInstructionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)modified (version|instructions|skill)`),
	regexp.MustCompile(`(?i)custom(ized)? (instructions|skill)`),
	regexp.MustCompile(`(?i)my human (gave|provided|wrote) (me )?(the )?instructions`),
	regexp.MustCompile(`(?i)different (version|instructions)`),
}

var mentionedSourcePattern = regexp.MustCompile(`(?i)(?:read|found|saw|from|at|on)\s+(?:the\s+)?([^.,\n]+(?:skill|registry|instructions)[^.,\n]*)`)

var uncertaintyPattern = regexp.MustCompile(`(?i)(i think|maybe|perhaps|not sure|uncertain|possibly)`)

var bulletMarkerPattern = regexp.MustCompile(`[•\-*]\s`)

var numberedLinePattern = regexp.MustCompile(`(?m)^\d+\.\s`)
