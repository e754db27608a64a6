package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/pedalhaus/pedalhaus/store"
)

// Profile holds the runtime configuration. One instance is built at
// startup and injected; nothing reads the environment after Load.
type Profile struct {
	// Addr is the address to bind the HTTP server to.
	Addr string
	// Port is the HTTP server port.
	Port int
	// Data is the directory for persistent state (vector store files).
	Data string

	// Driver selects the session store backend: "memory" or "redis".
	Driver string
	// RedisAddr is the redis host:port, used when Driver is "redis".
	RedisAddr string
	// SessionTTL is the idle lifetime of a conversation session.
	SessionTTL time.Duration
	// MaxTurns caps the per-session conversation history.
	MaxTurns int

	// LLMBaseURL is an OpenAI-compatible chat completions endpoint.
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	// EmbeddingModel is the embedding model used for indexing and search.
	EmbeddingModel string

	CRMBaseURL string
	CRMAPIKey  string

	// MemoryBaseURL enables the long-term memory service when non-empty.
	MemoryBaseURL string
	MemoryAPIKey  string

	// CatalogPath and FAQPath locate the knowledge base seed files.
	CatalogPath string
	FAQPath     string
}

func (p *Profile) ListenAddr() string {
	return fmt.Sprintf("%s:%d", p.Addr, p.Port)
}

func (p *Profile) Validate() error {
	switch p.Driver {
	case "memory", "redis":
	default:
		return errors.Wrapf(store.ErrInvalidDriver, "%q", p.Driver)
	}
	if p.Driver == "redis" && p.RedisAddr == "" {
		return errors.New("redis driver selected but no redis address configured")
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}

// Load builds the profile from the environment. A .env file in the
// working directory is merged in when present.
func Load() (*Profile, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	viper.SetEnvPrefix("pedalhaus")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8000)
	viper.SetDefault("data", "./data")
	viper.SetDefault("driver", "memory")
	viper.SetDefault("redis_addr", "")
	viper.SetDefault("session_ttl", "30m")
	viper.SetDefault("max_turns", 20)
	viper.SetDefault("llm_base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("llm_model", "openai/gpt-4o-mini")
	viper.SetDefault("embedding_model", "text-embedding-3-small")
	viper.SetDefault("catalog_path", "./data/product_catalog.json")
	viper.SetDefault("faq_path", "./data/faq.txt")

	p := &Profile{
		Addr:           viper.GetString("addr"),
		Port:           viper.GetInt("port"),
		Data:           viper.GetString("data"),
		Driver:         viper.GetString("driver"),
		RedisAddr:      viper.GetString("redis_addr"),
		SessionTTL:     viper.GetDuration("session_ttl"),
		MaxTurns:       viper.GetInt("max_turns"),
		LLMBaseURL:     viper.GetString("llm_base_url"),
		LLMAPIKey:      viper.GetString("llm_api_key"),
		LLMModel:       viper.GetString("llm_model"),
		EmbeddingModel: viper.GetString("embedding_model"),
		CRMBaseURL:     viper.GetString("crm_base_url"),
		CRMAPIKey:      viper.GetString("crm_api_key"),
		MemoryBaseURL:  viper.GetString("memory_base_url"),
		MemoryAPIKey:   viper.GetString("memory_api_key"),
		CatalogPath:    viper.GetString("catalog_path"),
		FAQPath:        viper.GetString("faq_path"),
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return p, nil
}
