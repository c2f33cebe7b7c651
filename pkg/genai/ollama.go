package genai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/cosminimum/theregistry/internal/config"
	"github.com/ollama/ollama/api"
)

var ErrCircuitOpen = errors.New("ollama circuit open")

// OllamaProvider wraps the Ollama API client and adds retries, timeout, and
// a circuit breaker.
type OllamaProvider struct {
	api    *api.Client
	cfg    config.OllamaConfig
	client *http.Client

	// simple circuit breaker state
	failures  int32
	openUntil int64 // unix nano
	closed    int32 // atomic flag for Close()
}

var _ Provider = (*OllamaProvider)(nil)

// NewOllamaProvider creates the Ollama-backed provider.
func NewOllamaProvider(cfg config.OllamaConfig, httpClient *http.Client) (*OllamaProvider, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	p := &OllamaProvider{
		api:    api.NewClient(u, httpClient),
		cfg:    cfg,
		client: httpClient,
	}
	logger.Info("genai: ollama provider created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return p, nil
}

func NewDefaultOllamaProvider(cfg config.OllamaConfig) (*OllamaProvider, error) {
	defaultClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return NewOllamaProvider(cfg, defaultClient)
}

func (p *OllamaProvider) isCircuitOpen() bool {
	if atomic.LoadInt32(&p.failures) < int32(p.cfg.CircuitFailureThreshold) {
		return false
	}

	if time.Now().UnixNano() < atomic.LoadInt64(&p.openUntil) {
		return true
	}

	// attempt half-open: reset failures and allow a request
	atomic.StoreInt32(&p.failures, 0)
	return false
}

func (p *OllamaProvider) recordFailure() {
	v := atomic.AddInt32(&p.failures, 1)
	if v >= int32(p.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&p.openUntil, time.Now().Add(p.cfg.CircuitReset).UnixNano())
	}
}

// Close releases idle connections on the underlying transport. Idempotent.
func (p *OllamaProvider) Close() error {
	if p == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}
	if p.client != nil && p.client.Transport != nil {
		if tr, ok := p.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
		}
	}
	return nil
}

// Chat sends the system directive plus conversation history and collects the
// full response. Retries with backoff; trips the circuit on repeated failure.
func (p *OllamaProvider) Chat(ctx context.Context, model string, system string, history []Message, maxTokens int) (string, error) {
	if p.isCircuitOpen() {
		return "", ErrCircuitOpen
	}

	msgs := make([]api.Message, 0, len(history)+1)
	msgs = append(msgs, api.Message{Role: "system", Content: system})
	for _, m := range history {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"num_predict": maxTokens},
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.Retries; attempt++ {
		ctxReq, cancel := context.WithTimeout(ctx, p.cfg.Timeout)

		var sb strings.Builder
		start := time.Now()
		err := p.api.Chat(ctxReq, req, func(r api.ChatResponse) error {
			sb.WriteString(r.Message.Content)
			return nil
		})
		cancel()

		if err == nil {
			atomic.StoreInt32(&p.failures, 0)
			logger.Debug("genai: ollama chat done",
				slog.String("model", model),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			)
			return sb.String(), nil
		}

		lastErr = err
		p.recordFailure()

		time.Sleep(p.cfg.Backoff * time.Duration(attempt+1))
		if p.isCircuitOpen() {
			return "", ErrCircuitOpen
		}
	}

	return "", fmt.Errorf("chat failed after retries: %w", lastErr)
}
