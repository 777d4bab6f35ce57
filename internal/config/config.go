package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName   string `toml:"appName"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	EnableTLS bool   `toml:"enableTLS"`
}

type LogConfig struct {
	LogPath  string `toml:"logPath"`
	LogLevel string `toml:"logLevel"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

// MilvusConfig names the three collections and their fixed dimensions. A
// dimension is part of a collection's identity: changing it requires a full
// reindex, so the values here must match the deployed collections.
type MilvusConfig struct {
	Address  string `toml:"address"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	DBName   string `toml:"dbName"`

	TextsCollection  string `toml:"textsCollection"`
	TextsDim         int    `toml:"textsDim"`
	ImagesCollection string `toml:"imagesCollection"`
	ImagesDim        int    `toml:"imagesDim"`
	MemoryCollection string `toml:"memoryCollection"`
	MemoryDim        int    `toml:"memoryDim"`

	TimeoutSeconds int `toml:"timeoutSeconds"`
}

type KafkaConfig struct {
	Enabled         bool     `toml:"enabled"`
	Brokers         []string `toml:"brokers"`
	ClientID        string   `toml:"clientID"`
	IngestTopic     string   `toml:"ingestTopic"`
	ConsumerGroupID string   `toml:"consumerGroupID"`
	Partitions      int32    `toml:"partitions"`
	Replication     int16    `toml:"replication"`
}

type EmbeddingConfig struct {
	Provider        string `toml:"provider"` // openai | ark | dashscope | mock
	APIKey          string `toml:"apiKey"`
	BaseURL         string `toml:"baseURL"`
	Model           string `toml:"model"`
	Dimensions      int    `toml:"dimensions"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
	ByAzure         bool   `toml:"byAzure"`
	AzureAPIVersion string `toml:"azureApiVersion"`
}

type ImageEmbeddingConfig struct {
	Provider       string `toml:"provider"` // http | mock
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"apiKey"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type ChatModelConfig struct {
	Provider        string `toml:"provider"` // openai | ark
	APIKey          string `toml:"apiKey"`
	BaseURL         string `toml:"baseURL"`
	Model           string `toml:"model"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
	ByAzure         bool   `toml:"byAzure"`
	AzureAPIVersion string `toml:"azureApiVersion"`
}

type AIConfig struct {
	GeneralEmbedding EmbeddingConfig      `toml:"generalEmbedding"`
	MedicalEmbedding EmbeddingConfig      `toml:"medicalEmbedding"`
	ImageEmbedding   ImageEmbeddingConfig `toml:"imageEmbedding"`
	ChatModel        ChatModelConfig      `toml:"chatModel"`
}

type Config struct {
	MainConfig   `toml:"mainConfig"`
	LogConfig    `toml:"logConfig"`
	JwtConfig    `toml:"jwtConfig"`
	MysqlConfig  `toml:"mysqlConfig"`
	MilvusConfig `toml:"milvusConfig"`
	KafkaConfig  `toml:"kafkaConfig"`
	AIConfig     `toml:"aiConfig"`
}

var (
	config *Config
	once   sync.Once
)

const defaultConfigPath = "configs/config.toml"

// LoadConfig reads the TOML config. The path comes from MEDIVISION_CONFIG
// when set, otherwise configs/config.toml relative to the working directory.
func LoadConfig() (*Config, error) {
	path := strings.TrimSpace(os.Getenv("MEDIVISION_CONFIG"))
	if path == "" {
		path = defaultConfigPath
	}

	c := new(Config)
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.MainConfig.AppName == "" {
		c.MainConfig.AppName = "MediVision"
	}
	if c.MainConfig.Port <= 0 {
		c.MainConfig.Port = 8000
	}
	if c.LogConfig.LogLevel == "" {
		c.LogConfig.LogLevel = "info"
	}
	if c.MilvusConfig.DBName == "" {
		c.MilvusConfig.DBName = "medivision"
	}
	if c.MilvusConfig.TextsCollection == "" {
		c.MilvusConfig.TextsCollection = "medical_texts"
	}
	if c.MilvusConfig.TextsDim <= 0 {
		c.MilvusConfig.TextsDim = 768
	}
	if c.MilvusConfig.ImagesCollection == "" {
		c.MilvusConfig.ImagesCollection = "medical_images"
	}
	if c.MilvusConfig.ImagesDim <= 0 {
		c.MilvusConfig.ImagesDim = 2048
	}
	if c.MilvusConfig.MemoryCollection == "" {
		c.MilvusConfig.MemoryCollection = "patient_memory"
	}
	if c.MilvusConfig.MemoryDim <= 0 {
		c.MilvusConfig.MemoryDim = 384
	}
	if c.MilvusConfig.TimeoutSeconds <= 0 {
		c.MilvusConfig.TimeoutSeconds = 15
	}
	if c.AIConfig.GeneralEmbedding.Dimensions <= 0 {
		c.AIConfig.GeneralEmbedding.Dimensions = c.MilvusConfig.MemoryDim
	}
	if c.AIConfig.MedicalEmbedding.Dimensions <= 0 {
		c.AIConfig.MedicalEmbedding.Dimensions = c.MilvusConfig.TextsDim
	}
	if c.AIConfig.ImageEmbedding.Dimensions <= 0 {
		c.AIConfig.ImageEmbedding.Dimensions = c.MilvusConfig.ImagesDim
	}
	if c.KafkaConfig.IngestTopic == "" {
		c.KafkaConfig.IngestTopic = "medivision.knowledge.ingest"
	}
	if c.KafkaConfig.ConsumerGroupID == "" {
		c.KafkaConfig.ConsumerGroupID = "medivision-ingest"
	}
}

// Validate catches the configuration mistakes that must stop the process:
// an embedder whose dimension disagrees with the collection it feeds would
// otherwise surface as a runtime dimension-mismatch on every write.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MilvusConfig.Address) == "" {
		return fmt.Errorf("milvusConfig.address is required")
	}
	if c.AIConfig.GeneralEmbedding.Dimensions != c.MilvusConfig.MemoryDim {
		return fmt.Errorf("general embedding dim %d != memory collection dim %d",
			c.AIConfig.GeneralEmbedding.Dimensions, c.MilvusConfig.MemoryDim)
	}
	if c.AIConfig.MedicalEmbedding.Dimensions != c.MilvusConfig.TextsDim {
		return fmt.Errorf("medical embedding dim %d != texts collection dim %d",
			c.AIConfig.MedicalEmbedding.Dimensions, c.MilvusConfig.TextsDim)
	}
	if c.AIConfig.ImageEmbedding.Dimensions != c.MilvusConfig.ImagesDim {
		return fmt.Errorf("image embedding dim %d != images collection dim %d",
			c.AIConfig.ImageEmbedding.Dimensions, c.MilvusConfig.ImagesDim)
	}
	return nil
}

// GetConfig returns the process-wide config, loading it on first use.
func GetConfig() *Config {
	once.Do(func() {
		c, err := LoadConfig()
		if err != nil {
			// Missing config file is tolerated here so that tests and
			// tooling can run; main calls LoadConfig directly and fails
			// hard on error.
			c = new(Config)
			c.applyDefaults()
		}
		config = c
	})
	return config
}
