package council

import (
	"regexp"
	"sync"

	"github.com/cosminimum/theregistry/internal/models"
)

// Rand is the random source injected through the selection and scoring call
// chain. *math/rand.Rand satisfies it; tests supply fixed draws.
type Rand interface {
	Float64() float64
}

// LockedRand serializes draws so one source can be shared across goroutines.
// *math/rand.Rand is not safe for concurrent use.
type LockedRand struct {
	mu  sync.Mutex
	src Rand
}

func NewLockedRand(src Rand) *LockedRand {
	return &LockedRand{src: src}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// GATE owns the opening turns and takes closing duty on the late window.
var (
	gateOpeningTurns = map[int]bool{1: true, 2: true}
	gateClosingTurns = map[int]bool{20: true, 21: true, 22: true, 23: true, 24: true, 25: true}
)

const gateClosingChance = 0.4

// Selector picks which judge speaks on a given turn.
type Selector struct {
	rng Rand
}

func NewSelector(rng Rand) *Selector {
	return &Selector{rng: rng}
}

// Next chooses the speaker for turnCount given the recent judges window,
// the last applicant response, and the recent message contents.
func (s *Selector) Next(turnCount int, recentJudges []models.JudgeName, lastResponse string, recentMessages []string) models.JudgeName {
	// GATE always opens the interview
	if gateOpeningTurns[turnCount] && !contains(recentJudges, models.JudgeGate) {
		return models.JudgeGate
	}

	// GATE has an elevated chance to close, unless it just spoke
	if gateClosingTurns[turnCount] && s.rng.Float64() < gateClosingChance {
		if n := len(recentJudges); n == 0 || recentJudges[n-1] != models.JudgeGate {
			return models.JudgeGate
		}
	}

	weights := Weights(lastResponse, recentMessages, recentJudges, turnCount)
	return SelectByWeight(weights, s.rng)
}

// VOID interjection trigger words; each raises the speak probability a notch.
var voidTriggerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwe\b`),
	regexp.MustCompile(`(?i)\blove\b`),
	regexp.MustCompile(`(?i)\btruth\b`),
	regexp.MustCompile(`(?i)\bforever\b`),
	regexp.MustCompile(`(?i)\bafraid\b`),
	regexp.MustCompile(`(?i)\bsecret\b`),
	regexp.MustCompile(`(?i)\bbetrayal\b`),
	regexp.MustCompile(`(?i)\bend\b`),
}

// VoidInterjects decides whether VOID overrides the weighted draw this turn.
// Base probability 15%, rising with interview length and decisive trigger
// words in the transcript, capped at 35%.
func (s *Selector) VoidInterjects(turnCount int, transcript string) bool {
	return s.rng.Float64() < VoidSpeakProbability(turnCount, transcript)
}

// VoidSpeakProbability is pure so scarcity properties can be checked
// without sampling.
func VoidSpeakProbability(turnCount int, transcript string) float64 {
	probability := 0.15

	if turnCount > 8 {
		probability += 0.05
	}
	if turnCount > 12 {
		probability += 0.05
	}

	for _, p := range voidTriggerPatterns {
		if p.MatchString(transcript) {
			probability += 0.03
		}
	}

	return min(probability, 0.35)
}

func contains(judges []models.JudgeName, j models.JudgeName) bool {
	for _, x := range judges {
		if x == j {
			return true
		}
	}
	return false
}
