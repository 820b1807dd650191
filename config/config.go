package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port            string              `mapstructure:"port"`
	Storage         string              `mapstructure:"storage"`
	MongoURI        string              `mapstructure:"MONGODB_URI"`
	MongoDatabase   string              `mapstructure:"mongo_database"`
	UploadDir       string              `mapstructure:"upload_dir"`
	JWTSecret       string              `mapstructure:"JWT_SECRET"`
	RedisURL        string              `mapstructure:"REDIS_URL"`
	MessagePageSize int                 `mapstructure:"message_page_size"`
	AllowedOrigins  []string            `mapstructure:"allowed_origins"`
	Chat            ChatConfig          `mapstructure:"chat"`
	Completion      CompletionConfig    `mapstructure:"completion"`
	Embedding       EmbeddingConfig     `mapstructure:"embedding"`
	Weaviate        WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	RateLimit       RateLimitConfig     `mapstructure:"rate_limit"`
	Ingest          IngestConfig        `mapstructure:"ingest"`
}

type ChatConfig struct {
	MaxMessageLength int           `mapstructure:"max_message_length"`
	TopK             int           `mapstructure:"top_k"`
	HistoryWindow    int           `mapstructure:"history_window"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type CompletionConfig struct {
	Provider     string `mapstructure:"provider"`
	Endpoint     string `mapstructure:"endpoint"`
	Model        string `mapstructure:"model"`
	GoogleAPIKey string `mapstructure:"GOOGLE_API_KEY"`
	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`
}

type EmbeddingConfig struct {
	Model        string `mapstructure:"model"`
	GoogleAPIKey string `mapstructure:"GOOGLE_API_KEY"`
}

type WeaviateStoreConfig struct {
	Scheme    string `mapstructure:"scheme"`
	Host      string `mapstructure:"host"`
	APIKey    string `mapstructure:"WEAVIATE_APIKEY"`
	ClassName string `mapstructure:"class_name"`
}

type RateLimitConfig struct {
	MessagesPerWindow int           `mapstructure:"messages_per_window"`
	Window            time.Duration `mapstructure:"window"`
}

type IngestConfig struct {
	MaxChunkSize int `mapstructure:"max_chunk_size"`
	OverlapSize  int `mapstructure:"overlap_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("storage", StorageMongo)
	v.SetDefault("mongo_database", "pdfchat")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("message_page_size", 10)
	v.SetDefault("allowed_origins", []string{"*"})

	v.SetDefault("chat.max_message_length", 2000)
	v.SetDefault("chat.top_k", 4)
	v.SetDefault("chat.history_window", 6)
	v.SetDefault("chat.timeout", 30*time.Second)

	v.SetDefault("completion.provider", ProviderGemini)
	v.SetDefault("completion.endpoint", "")
	v.SetDefault("completion.model", "gemini-2.0-flash")
	v.SetDefault("embedding.model", "text-embedding-004")

	v.SetDefault("weaviate_store_config.scheme", "http")
	v.SetDefault("weaviate_store_config.host", "localhost:8080")
	v.SetDefault("weaviate_store_config.class_name", "Passage")

	v.SetDefault("rate_limit.messages_per_window", 20)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("ingest.max_chunk_size", 1000)
	v.SetDefault("ingest.overlap_size", 200)
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Secrets never live in the yaml file.
	v.BindEnv("MONGODB_URI")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("REDIS_URL")
	v.BindEnv("completion.GOOGLE_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("completion.OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("embedding.GOOGLE_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("weaviate_store_config.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Storage != StorageMongo && config.Storage != StorageMemory {
		return nil, fmt.Errorf("unknown storage %q", config.Storage)
	}
	if config.Completion.Provider != ProviderGemini && config.Completion.Provider != ProviderOpenAI {
		return nil, fmt.Errorf("unknown completion provider %q", config.Completion.Provider)
	}

	return &config, nil
}
