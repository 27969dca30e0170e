package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	Mongo      MongoConfig      `yaml:"mongo"`
	LLM        LLMConfig        `yaml:"llm"`
	Crawler    CrawlerConfig    `yaml:"crawler"`
	Generation GenerationConfig `yaml:"generation"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// LLMConfig configures the generative-AI collaborator.
// MaxRetries applies to transport failures only, never to
// schema-validation failures.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	ModelName      string `yaml:"model_name"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// CrawlerConfig bounds the crawl adapter. BudgetSeconds is the global wall
// clock for one crawl; RequestTimeoutSeconds applies per page fetch.
type CrawlerConfig struct {
	Workers               int  `yaml:"workers"`
	RequestTimeoutSeconds int  `yaml:"request_timeout_seconds"`
	BudgetSeconds         int  `yaml:"budget_seconds"`
	MaxArticles           int  `yaml:"max_articles"`
	EnableRendering       bool `yaml:"enable_rendering"`
}

type GenerationConfig struct {
	MaxRequiredHashtags int `yaml:"max_required_hashtags"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	// load configuration file
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}

	var c AppConfig
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		panic(err)
	}
	applyDefaults(&c)
	config = &c
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

func applyDefaults(c *AppConfig) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "google"
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 120
	}
	if c.LLM.MaxRetries <= 0 {
		c.LLM.MaxRetries = 3
	}
	if c.Crawler.Workers <= 0 {
		c.Crawler.Workers = 4
	}
	if c.Crawler.RequestTimeoutSeconds <= 0 {
		c.Crawler.RequestTimeoutSeconds = 15
	}
	if c.Crawler.BudgetSeconds <= 0 {
		c.Crawler.BudgetSeconds = 180
	}
	if c.Crawler.MaxArticles <= 0 {
		c.Crawler.MaxArticles = 25
	}
	if c.Generation.MaxRequiredHashtags <= 0 {
		c.Generation.MaxRequiredHashtags = 4
	}
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
