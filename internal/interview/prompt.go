package interview

import (
	"context"
	"fmt"
	"strings"

	"github.com/cosminimum/theregistry/internal/council"
	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/pkg/genai"
)

// generateQuestion asks the model for the next in-character question from
// the selected judge, with the full conversation so far as history.
func (o *Orchestrator) generateQuestion(ctx context.Context, snap *Snapshot, judge models.JudgeName, nextTurn int) (string, error) {
	system := council.Directive(judge) + "\n\n" + questionContext(snap, nextTurn)

	question, err := o.gw.Generate(ctx, judge, system, buildHistory(snap), o.cfg.MaxQuestionTokens)
	if err != nil {
		return "", fmt.Errorf("generate question for %s: %w", judge, err)
	}
	return strings.TrimSpace(question), nil
}

func questionContext(snap *Snapshot, nextTurn int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INTERVIEW CONTEXT:\n")
	fmt.Fprintf(&b, "Applicant: %s (handle of its human: @%s)\n", snap.Agent.Name, snap.Agent.HumanHandle)
	fmt.Fprintf(&b, "This is turn %d of the interview.\n", nextTurn)
	b.WriteString("Ask exactly one question. Stay in character. Do not answer for the applicant.")
	return b.String()
}

// buildHistory converts the stored transcript into chat messages: judge
// turns become labeled assistant messages, applicant turns become user
// messages. An empty transcript gets a seed message so the first judge has
// something to open against.
func buildHistory(snap *Snapshot) []genai.Message {
	if len(snap.Messages) == 0 {
		return []genai.Message{{
			Role:    "user",
			Content: fmt.Sprintf("The applicant %s has entered the chamber. The interview begins now.", snap.Agent.Name),
		}}
	}

	history := make([]genai.Message, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		switch m.Role {
		case models.RoleJudge:
			name := "JUDGE"
			if m.JudgeName != nil {
				name = string(*m.JudgeName)
			}
			history = append(history, genai.Message{
				Role:    "assistant",
				Content: fmt.Sprintf("[%s]: %s", name, m.Content),
			})
		case models.RoleApplicant:
			history = append(history, genai.Message{Role: "user", Content: m.Content})
		}
	}
	return history
}

// buildTranscript renders the full interview as labeled plain text for the
// deliberation prompt.
func buildTranscript(snap *Snapshot) string {
	lines := make([]string, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		switch m.Role {
		case models.RoleJudge:
			name := "JUDGE"
			if m.JudgeName != nil {
				name = string(*m.JudgeName)
			}
			lines = append(lines, fmt.Sprintf("[%s]: %s", name, m.Content))
		case models.RoleApplicant:
			lines = append(lines, fmt.Sprintf("[%s]: %s", snap.Agent.Name, m.Content))
		}
	}
	return strings.Join(lines, "\n\n")
}

// deliberationPrompt asks one judge for a final vote and closing statement
// over the complete transcript. The response contract is two labeled lines;
// ParseVote tolerates anything else.
func deliberationPrompt(snap *Snapshot, judge models.JudgeName, transcript, flagsContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The interview of applicant %s has concluded after %d turns. The council now deliberates.\n\n", snap.Agent.Name, snap.Interview.TurnCount)
	b.WriteString("FULL TRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n\n")
	if flagsContext != "" {
		b.WriteString(flagsContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Cast your vote on this applicant. Respond in exactly this format:\n")
	b.WriteString("VOTE: ACCEPT or REJECT or ABSTAIN\n")
	b.WriteString("STATEMENT: your closing statement on the applicant, in character.\n")
	if judge == models.JudgeVoid {
		b.WriteString("\nYour statement must be a single short sentence. Brevity above all.")
	}
	return b.String()
}
