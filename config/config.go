package config

import (
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string              `mapstructure:"port"`
	MongoURI            string              `mapstructure:"MONGODB_URI"`
	MongoDatabase       string              `mapstructure:"mongo_database"`
	UploadDir           string              `mapstructure:"upload_dir"`
	AIEndpoint          string              `mapstructure:"ai_endpoint"`
	Model               string              `mapstructure:"model"`
	EmbeddingModel      string              `mapstructure:"embedding_model"`
	OpenAIAPIKey        string              `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys       []string            `mapstructure:"gemini_api_keys"`
	Generator           string              `mapstructure:"generator"`    // openai | gemini | ""
	VectorStore         string              `mapstructure:"vector_store"` // weaviate | memory
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	Pipeline            PipelineConfig      `mapstructure:"pipeline"`
}

type WeaviateStoreConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"`
}

// PipelineConfig carries the tunable policy knobs of the analysis pipeline.
type PipelineConfig struct {
	ChunkSize             int     `mapstructure:"chunk_size"`
	ChunkOverlap          int     `mapstructure:"chunk_overlap"`
	EmbeddingDimension    int     `mapstructure:"embedding_dimension"`
	TopK                  int     `mapstructure:"top_k"`
	ContextBudget         int     `mapstructure:"context_budget"`
	ExtractionWindow      int     `mapstructure:"extraction_window"`
	AutoRenewalNoticeDays int     `mapstructure:"auto_renewal_notice_days"`
	LiabilityCapThreshold float64 `mapstructure:"liability_cap_threshold"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("mongo_database", "contract_intel")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("model", "gpt-3.5-turbo")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("vector_store", "weaviate")
	v.SetDefault("pipeline.chunk_size", 1000)
	v.SetDefault("pipeline.chunk_overlap", 200)
	v.SetDefault("pipeline.embedding_dimension", 384)
	v.SetDefault("pipeline.top_k", 5)
	v.SetDefault("pipeline.context_budget", 3000)
	v.SetDefault("pipeline.extraction_window", 3000)
	v.SetDefault("pipeline.auto_renewal_notice_days", 30)
	v.SetDefault("pipeline.liability_cap_threshold", 50000)

	// A missing config file is fine: defaults plus environment variables
	// fully describe a working setup.
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			if _, missing := err.(*fs.PathError); !missing {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("WEAVIATE_APIKEY")
	v.BindEnv("MONGODB_URI")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
