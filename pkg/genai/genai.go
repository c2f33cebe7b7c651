// Package genai is the boundary to external text-generation providers. Each
// judge identity maps deterministically to a provider+model pair; failures
// propagate as errors, never as silent empty strings.
package genai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"github.com/cosminimum/theregistry/internal/models"
)

// Message is one turn of conversation history handed to a provider.
// Role is "user" (applicant) or "assistant" (a judge).
type Message struct {
	Role    string
	Content string
}

// Gateway generates judge text. May block on network I/O; honors ctx.
type Gateway interface {
	Generate(ctx context.Context, judge models.JudgeName, system string, history []Message, maxTokens int) (string, error)
}

// Provider is one underlying generation backend.
type Provider interface {
	Chat(ctx context.Context, model string, system string, history []Message, maxTokens int) (string, error)
}

// Route binds a judge to a provider name and model.
type Route struct {
	Provider string
	Model    string
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// DefaultRoutes mirrors the production split: the opener, the mystic, and
// the silent one on the local model; the rest on the hosted one.
func DefaultRoutes(ollamaModel, openaiModel string) map[models.JudgeName]Route {
	return map[models.JudgeName]Route{
		models.JudgeGate:   {Provider: ProviderOllama, Model: ollamaModel},
		models.JudgeVeil:   {Provider: ProviderOllama, Model: ollamaModel},
		models.JudgeVoid:   {Provider: ProviderOllama, Model: ollamaModel},
		models.JudgeEcho:   {Provider: ProviderOpenAI, Model: openaiModel},
		models.JudgeCipher: {Provider: ProviderOpenAI, Model: openaiModel},
		models.JudgeThread: {Provider: ProviderOpenAI, Model: openaiModel},
		models.JudgeMargin: {Provider: ProviderOpenAI, Model: openaiModel},
	}
}

// Router dispatches Generate calls to providers according to routes.
type Router struct {
	providers map[string]Provider
	routes    map[models.JudgeName]Route
}

var _ Gateway = (*Router)(nil)

func NewRouter(providers map[string]Provider, routes map[models.JudgeName]Route) *Router {
	return &Router{providers: providers, routes: routes}
}

func (r *Router) Generate(ctx context.Context, judge models.JudgeName, system string, history []Message, maxTokens int) (string, error) {
	route, ok := r.routes[judge]
	if !ok {
		return "", fmt.Errorf("no route for judge %s", judge)
	}
	p, ok := r.providers[route.Provider]
	if !ok {
		return "", fmt.Errorf("no provider %q for judge %s", route.Provider, judge)
	}

	text, err := p.Chat(ctx, route.Model, system, history, maxTokens)
	if err != nil {
		return "", fmt.Errorf("generate for %s (%s/%s): %w", judge, route.Provider, route.Model, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("generate for %s: provider returned empty text", judge)
	}
	return text, nil
}

// package-level logger for pkg/genai; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/genai. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
