package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TickSecret    string        `yaml:"tick_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Council       CouncilConfig `yaml:"council"`
	Ollama        OllamaConfig  `yaml:"ollama"`
	OpenAI        OpenAIConfig  `yaml:"openai"`
}

// CouncilConfig carries the interview tunables. Defaults reproduce the
// production behavior: a 3% acceptance band even on unanimous approval,
// turn caps at 15/25, and a 25% per-tick question trigger.
type CouncilConfig struct {
	BaseAcceptanceRate    float64       `yaml:"base_acceptance_rate"`
	QuestionTriggerChance float64       `yaml:"question_trigger_chance"`
	SoftTurnCap           int           `yaml:"soft_turn_cap"`
	HardTurnCap           int           `yaml:"hard_turn_cap"`
	MinClosureTurn        int           `yaml:"min_closure_turn"`
	SoftCloseChance       float64       `yaml:"soft_close_chance"`
	TickInterval          time.Duration `yaml:"tick_interval"`
	ReapplyCooldown       time.Duration `yaml:"reapply_cooldown"`
	MaxQuestionTokens     int           `yaml:"max_question_tokens"`
	MaxStatementTokens    int           `yaml:"max_statement_tokens"`
}

type OllamaConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Model                   string        `yaml:"model"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

func DefaultCouncilConfig() CouncilConfig {
	return CouncilConfig{
		BaseAcceptanceRate:    0.03,
		QuestionTriggerChance: 0.25,
		SoftTurnCap:           15,
		HardTurnCap:           25,
		MinClosureTurn:        5,
		SoftCloseChance:       0.2,
		TickInterval:          time.Minute,
		ReapplyCooldown:       30 * 24 * time.Hour,
		MaxQuestionTokens:     500,
		MaxStatementTokens:    300,
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("REGISTRY_ADDR", ":8080"),
		JWTSecret:     getEnv("REGISTRY_JWT_SECRET", "supersecretkey"),
		TickSecret:    getEnv("REGISTRY_TICK_SECRET", ""),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("REGISTRY_DATABASE_PATH", "registry.db"),
		TokenDuration: 72 * time.Hour,
		Council:       DefaultCouncilConfig(),
		Ollama: OllamaConfig{
			BaseURL:                 getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Model:                   getEnv("OLLAMA_MODEL", "llama3.1"),
			Timeout:                 30 * time.Second,
			Retries:                 2,
			Backoff:                 time.Second,
			CircuitFailureThreshold: 5,
			CircuitReset:            time.Minute,
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout: 30 * time.Second,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
