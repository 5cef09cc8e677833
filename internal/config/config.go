package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	BotToken    string `env:"BOT_TOKEN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// LLM completion endpoint (OpenAI-compatible).
	LLMAPIKey   string  `env:"LLM_API_KEY,required"`
	LLMBaseURL  string  `env:"LLM_BASE_URL" envDefault:"https://api-inference.huggingface.co/v1/"`
	LLMModel    string  `env:"LLM_MODEL" envDefault:"meta-llama/Llama-3.3-70B-Instruct"`
	LLMRateRPS  float64 `env:"LLM_RATE_RPS" envDefault:"1"`
	Temperature float32 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	TopP        float32 `env:"LLM_TOP_P" envDefault:"0.95"`

	// Web search (Perplexity-compatible).
	SearchAPIKey  string `env:"SEARCH_API_KEY,required"`
	SearchBaseURL string `env:"SEARCH_BASE_URL" envDefault:"https://api.perplexity.ai"`
	SearchModel   string `env:"SEARCH_MODEL" envDefault:"sonar-pro"`

	// Image generation (Hyperbolic).
	ImageAPIKey  string `env:"IMAGE_API_KEY"`
	ImageBaseURL string `env:"IMAGE_BASE_URL" envDefault:"https://api.hyperbolic.xyz/v1/image/generation"`
	ImageModel   string `env:"IMAGE_MODEL" envDefault:"FLUX.1-dev"`

	// Authorization.
	PreapprovedPath string `env:"PREAPPROVED_USERS_PATH" envDefault:"secrets/pre_whitelisted_users.txt"`

	// Auto-response policy.
	DisableAutoResponses bool     `env:"DISABLE_AUTO_RESPONSES" envDefault:"false"`
	CriteriaNL           string   `env:"CRITERIA_NL" envDefault:"If the user explicitly requests help or has a question about code, say 'YES: <question>', else NO."`
	CriteriaKeywords     []string `env:"CRITERIA_KEYWORDS" envSeparator:","`

	// Rolling digest.
	SummaryWindowSize int `env:"SUMMARY_WINDOW_SIZE" envDefault:"10"`
	SummaryMaxChars   int `env:"SUMMARY_MAX_CHARS" envDefault:"8000"`

	// /summarize command.
	DefaultSummarizeHours int `env:"DEFAULT_SUMMARIZE_HOURS" envDefault:"3"`

	// Command names, fixed at process start.
	CmdWhitelist      string `env:"CMD_WHITELIST" envDefault:"whitelist"`
	CmdWhitelistGroup string `env:"CMD_WHITELIST_GROUP" envDefault:"whitelist_group"`
	CmdSummarize      string `env:"CMD_SUMMARIZE" envDefault:"summarize"`
	CmdResearch       string `env:"CMD_RESEARCH" envDefault:"px"`
	CmdArt            string `env:"CMD_ART" envDefault:"art"`

	// Outbound HTTP.
	CollaboratorTimeout time.Duration `env:"COLLABORATOR_TIMEOUT" envDefault:"120s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
