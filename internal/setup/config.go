package setup

import (
	"os"
	"strconv"
	"strings"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/config"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/store"
)

type Config struct {
	AWSRegion     string
	ClaudeModelID string
	OpenAIKey     string
	OpenAIModelID string
	// JudgeProvider and EmbeddingProvider are bedrock or openai.
	JudgeProvider       string
	EmbeddingProvider   string
	EmbeddingModelID    string
	EmbeddingDimensions int
	IndexPath           string
	IndexBaseURL        string
	IndexRemotePath     string
	RetrievalConfigPath string
	// IndexAllowedHosts lists request hosts the API may derive the index
	// origin from when IndexBaseURL is unset.
	IndexAllowedHosts []string
	// AcceptThreshold overrides the policy file when positive.
	AcceptThreshold float64
	CorpusRoot      string
	LogLevel        string
	RedisAddr       string
	RedisPassword   string
	APIPort         string
}

func LoadConfig() *Config {
	return &Config{
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID:       getEnv("CLAUDE_MODEL_ID", ""),
		OpenAIKey:           getEnv("OPEN_AI_KEY", ""),
		OpenAIModelID:       getEnv("OPEN_AI_MODEL_ID", ""),
		JudgeProvider:       getEnv("JUDGE_PROVIDER", "bedrock"),
		EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "bedrock"),
		EmbeddingModelID:    getEnv("EMBEDDING_MODEL_ID", ""),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 0),
		IndexPath:           getEnv("INDEX_PATH", store.DefaultLocalPath),
		IndexBaseURL:        getEnv("INDEX_BASE_URL", ""),
		IndexAllowedHosts:   getEnvList("INDEX_ALLOWED_HOSTS"),
		IndexRemotePath:     getEnv("INDEX_REMOTE_PATH", store.DefaultRemotePath),
		RetrievalConfigPath: getEnv("RETRIEVAL_CONFIG_PATH", config.DefaultRetrievalConfigPath),
		AcceptThreshold:     getEnvFloat("ACCEPT_THRESHOLD", 0),
		CorpusRoot:          getEnv("CORPUS_ROOT", "data/standards"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		APIPort:             getEnv("STANDARDS_API_PORT", "18082"),
	}
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
