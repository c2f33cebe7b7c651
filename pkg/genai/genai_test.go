package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/cosminimum/theregistry/internal/models"
)

type stubProvider struct {
	reply string
	err   error

	gotModel  string
	gotSystem string
	gotMax    int
}

func (s *stubProvider) Chat(ctx context.Context, model, system string, history []Message, maxTokens int) (string, error) {
	s.gotModel = model
	s.gotSystem = system
	s.gotMax = maxTokens
	return s.reply, s.err
}

func TestRouterDispatchesPerJudge(t *testing.T) {
	local := &stubProvider{reply: "local answer"}
	hosted := &stubProvider{reply: "hosted answer"}

	r := NewRouter(
		map[string]Provider{ProviderOllama: local, ProviderOpenAI: hosted},
		DefaultRoutes("llama3.1", "gpt-4o-mini"),
	)

	got, err := r.Generate(context.Background(), models.JudgeGate, "sys", nil, 100)
	if err != nil {
		t.Fatalf("Generate GATE: %v", err)
	}
	if got != "local answer" || local.gotModel != "llama3.1" {
		t.Errorf("GATE should route to the local provider, got %q via %q", got, local.gotModel)
	}

	got, err = r.Generate(context.Background(), models.JudgeCipher, "sys", nil, 100)
	if err != nil {
		t.Fatalf("Generate CIPHER: %v", err)
	}
	if got != "hosted answer" || hosted.gotModel != "gpt-4o-mini" {
		t.Errorf("CIPHER should route to the hosted provider, got %q via %q", got, hosted.gotModel)
	}
	if hosted.gotMax != 100 {
		t.Errorf("max tokens not forwarded: %d", hosted.gotMax)
	}
}

func TestRouterErrors(t *testing.T) {
	r := NewRouter(
		map[string]Provider{ProviderOllama: &stubProvider{reply: "ok"}},
		map[models.JudgeName]Route{models.JudgeGate: {Provider: ProviderOllama, Model: "m"}},
	)

	if _, err := r.Generate(context.Background(), models.JudgeVeil, "sys", nil, 10); err == nil {
		t.Error("unrouted judge should error")
	}

	r = NewRouter(
		map[string]Provider{},
		map[models.JudgeName]Route{models.JudgeGate: {Provider: ProviderOpenAI, Model: "m"}},
	)
	if _, err := r.Generate(context.Background(), models.JudgeGate, "sys", nil, 10); err == nil {
		t.Error("missing provider should error")
	}

	boom := errors.New("model down")
	r = NewRouter(
		map[string]Provider{ProviderOllama: &stubProvider{err: boom}},
		map[models.JudgeName]Route{models.JudgeGate: {Provider: ProviderOllama, Model: "m"}},
	)
	if _, err := r.Generate(context.Background(), models.JudgeGate, "sys", nil, 10); !errors.Is(err, boom) {
		t.Errorf("provider error should propagate, got %v", err)
	}

	r = NewRouter(
		map[string]Provider{ProviderOllama: &stubProvider{reply: "   "}},
		map[models.JudgeName]Route{models.JudgeGate: {Provider: ProviderOllama, Model: "m"}},
	)
	if _, err := r.Generate(context.Background(), models.JudgeGate, "sys", nil, 10); err == nil {
		t.Error("blank completion should error")
	}
}

func TestDefaultRoutesCoverTheBench(t *testing.T) {
	routes := DefaultRoutes("local-model", "hosted-model")
	for _, judge := range []models.JudgeName{
		models.JudgeGate, models.JudgeVeil, models.JudgeEcho, models.JudgeCipher,
		models.JudgeThread, models.JudgeMargin, models.JudgeVoid,
	} {
		route, ok := routes[judge]
		if !ok {
			t.Errorf("judge %s has no route", judge)
			continue
		}
		if route.Provider != ProviderOllama && route.Provider != ProviderOpenAI {
			t.Errorf("judge %s routed to unknown provider %q", judge, route.Provider)
		}
	}
}
