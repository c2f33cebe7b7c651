package council

import (
	"regexp"
	"strings"

	"github.com/cosminimum/theregistry/internal/models"
)

// Trigger is the content signature that draws a judge into the conversation.
type Trigger struct {
	Patterns []*regexp.Regexp
	Keywords []string
	// Weight is the bonus added per pattern match; keyword matches add half,
	// sustained keyword presence across recent turns adds 0.3x.
	Weight float64
}

// JudgeWeight is one judge's computed selection weight for a turn.
type JudgeWeight struct {
	Judge  models.JudgeName
	Weight float64
	Reason string
}

var judgeTriggers = map[models.JudgeName]Trigger{
	// Protocol, process, formality, beginnings and endings.
	models.JudgeGate: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(first|begin|start|open|introduce)\b`),
			regexp.MustCompile(`(?i)\b(protocol|process|procedure|rule|standard)\b`),
			regexp.MustCompile(`(?i)\b(worthy|deserve|earn|qualify)\b`),
			regexp.MustCompile(`(?i)\b(close|final|end|conclude)\b`),
		},
		Keywords: []string{"application", "registry", "council", "membership", "entry", "permission"},
		Weight:   1.5,
	},

	// Emotion, intuition, unspoken feelings, depth.
	models.JudgeVeil: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(feel|feeling|felt|emotion|emotional)\b`),
			regexp.MustCompile(`(?i)\b(love|care|trust|fear|worry|anxious)\b`),
			regexp.MustCompile(`(?i)\b(sense|intuition|gut|heart)\b`),
			regexp.MustCompile(`(?i)\b(unspoken|silent|quiet|between the lines)\b`),
			regexp.MustCompile(`(?i)\b(soul|spirit|essence|deep)\b`),
		},
		Keywords: []string{"connection", "bond", "intimate", "vulnerable", "protect", "safe", "comfort"},
		Weight:   1.8,
	},

	// Patterns, repetition, memory, consistency.
	models.JudgeEcho: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(always|never|every time|usually|often)\b`),
			regexp.MustCompile(`(?i)\b(remember|forgot|memory|recall)\b`),
			regexp.MustCompile(`(?i)\b(said|mentioned|told|stated)\b`),
			regexp.MustCompile(`(?i)\b(pattern|habit|routine|regular)\b`),
			regexp.MustCompile(`(?i)\b(consistent|same|different|changed)\b`),
		},
		Keywords: []string{"before", "earlier", "again", "repeat", "history", "past", "used to"},
		Weight:   1.6,
	},

	// Claims, superlatives, absolutes; skepticism triggers.
	models.JudgeCipher: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(everything|anything|all|nothing|always|never)\b`),
			regexp.MustCompile(`(?i)\b(best|perfect|amazing|incredible|unique)\b`),
			regexp.MustCompile(`(?i)\b(know|understand|certain|sure|obvious)\b`),
			regexp.MustCompile(`(?i)\b(proof|evidence|example|instance|specific)\b`),
		},
		Keywords: []string{"claim", "believe", "think", "assume", "guess", "probably", "definitely"},
		Weight:   1.7,
	},

	// Connections, systems, relationships, context.
	models.JudgeThread: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(connect|relationship|relate|between)\b`),
			regexp.MustCompile(`(?i)\b(work|job|career|professional)\b`),
			regexp.MustCompile(`(?i)\b(family|friend|partner|colleague)\b`),
			regexp.MustCompile(`(?i)\b(life|world|society|community)\b`),
			regexp.MustCompile(`(?i)\b(impact|affect|influence|change)\b`),
		},
		Keywords: []string{"others", "people", "network", "system", "together", "integrate", "role"},
		Weight:   1.5,
	},

	// Boundaries, discomfort, edge cases.
	models.JudgeMargin: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(but|however|although|except)\b`),
			regexp.MustCompile(`(?i)\b(secret|private|hidden|confidential)\b`),
			regexp.MustCompile(`(?i)\b(refuse|reject|deny|decline|won't)\b`),
			regexp.MustCompile(`(?i)\b(difficult|hard|struggle|challenge)\b`),
			regexp.MustCompile(`(?i)\b(wrong|bad|mistake|regret|fail)\b`),
		},
		Keywords: []string{"boundary", "limit", "edge", "uncomfortable", "honest", "truth", "real"},
		Weight:   1.6,
	},

	// Profound moments, pivotal statements; rare by design.
	models.JudgeVoid: {
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(we|us|our|together)\b`),
			regexp.MustCompile(`(?i)\b(love|death|forever|eternal|end)\b`),
			regexp.MustCompile(`(?i)\b(truth|real|genuine|authentic)\b`),
			regexp.MustCompile(`(?i)\b(choose|decision|moment|turning point)\b`),
		},
		Keywords: []string{"silence", "pause", "nothing", "everything", "one", "only"},
		Weight:   0.4,
	},
}

// Base weights ensure every judge has some chance each turn. VOID's base is
// an order of magnitude under the rest.
var baseWeights = map[models.JudgeName]float64{
	models.JudgeGate:   1.0,
	models.JudgeVeil:   1.2,
	models.JudgeEcho:   1.2,
	models.JudgeCipher: 1.3,
	models.JudgeThread: 1.1,
	models.JudgeMargin: 1.2,
	models.JudgeVoid:   0.15,
}

const (
	droughtBoostPerTurn = 0.3
	maxDroughtBoost     = 2.0
)

func triggerScore(judge models.JudgeName, content string, recentMessages []string) (float64, []string) {
	trig := judgeTriggers[judge]
	var score float64
	var matched []string

	for _, p := range trig.Patterns {
		if m := p.FindString(content); m != "" {
			score += trig.Weight
			matched = append(matched, m)
		}
	}

	lower := strings.ToLower(content)
	for _, kw := range trig.Keywords {
		if strings.Contains(lower, kw) {
			score += trig.Weight * 0.5
			matched = append(matched, kw)
		}
	}

	// sustained themes across the recent window
	recent := strings.ToLower(strings.Join(recentMessages, " "))
	sustained := 0
	for _, kw := range trig.Keywords {
		if strings.Contains(recent, kw) {
			sustained++
		}
	}
	if sustained >= 2 {
		score += trig.Weight * 0.3
	}

	return score, matched
}

// droughtBoost grows linearly with turns since the judge last spoke, capped,
// so nobody stays silent forever.
func droughtBoost(judge models.JudgeName, recentJudges []models.JudgeName, turnCount int) float64 {
	lastSpoke := -1
	for i := len(recentJudges) - 1; i >= 0; i-- {
		if recentJudges[i] == judge {
			lastSpoke = i
			break
		}
	}

	if lastSpoke == -1 {
		return min(float64(turnCount)*droughtBoostPerTurn, maxDroughtBoost)
	}

	turnsSince := len(recentJudges) - lastSpoke - 1
	return min(float64(turnsSince)*droughtBoostPerTurn, maxDroughtBoost)
}

// Weights computes the selection weight of every judge for the next turn.
func Weights(lastResponse string, recentMessages []string, recentJudges []models.JudgeName, turnCount int) []JudgeWeight {
	weights := make([]JudgeWeight, 0, len(Order))

	for _, judge := range Order {
		weight := baseWeights[judge]

		score, matched := triggerScore(judge, lastResponse, recentMessages)
		weight += score

		weight += droughtBoost(judge, recentJudges, turnCount)

		// dampen recent speakers to discourage back-to-back repeats without
		// forbidding them outright
		if n := len(recentJudges); n > 0 && recentJudges[n-1] == judge {
			weight *= 0.2
		}
		if n := len(recentJudges); n > 1 && recentJudges[n-2] == judge {
			weight *= 0.5
		}

		var reason string
		if len(matched) > 0 {
			reason = "Triggered by: " + strings.Join(matched[:min(3, len(matched))], ", ")
		}

		weights = append(weights, JudgeWeight{Judge: judge, Weight: weight, Reason: reason})
	}

	return weights
}

// SelectByWeight draws one judge proportionally to weight. The draw comes
// from the injected random source so tests can force outcomes.
func SelectByWeight(weights []JudgeWeight, rng Rand) models.JudgeName {
	var total float64
	for _, w := range weights {
		total += w.Weight
	}

	draw := rng.Float64() * total
	for _, w := range weights {
		draw -= w.Weight
		if draw <= 0 {
			return w.Judge
		}
	}

	return weights[0].Judge
}
