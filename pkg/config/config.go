package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider    string  `yaml:"provider"`
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		VisionModel string  `yaml:"vision_model"`
		APIKey      string  `yaml:"api_key"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Embedding struct {
		Model     string `yaml:"model"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"embedding"`

	Watcher struct {
		Strategy        string `yaml:"strategy"`
		Clipboard       string `yaml:"clipboard"`
		PollIntervalMS  int    `yaml:"poll_interval_ms"`
		TextPromptFile  string `yaml:"text_prompt_file"`
		ImagePromptFile string `yaml:"image_prompt_file"`
	} `yaml:"watcher"`

	OCR struct {
		Binary   string `yaml:"binary"`
		Language string `yaml:"language"`
	} `yaml:"ocr"`

	RAG struct {
		DataDir           string   `yaml:"data_dir"`
		IndexPath         string   `yaml:"index_path"`
		Model             string   `yaml:"model"`
		ChunkSize         int      `yaml:"chunk_size"`
		TopK              int      `yaml:"top_k"`
		AllowedExtensions []string `yaml:"allowed_extensions"`
		WatchDataDir      bool     `yaml:"watch_data_dir"`
	} `yaml:"rag"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Scraper struct {
		MaxDepth       int      `yaml:"max_depth"`
		RateLimit      float64  `yaml:"rate_limit"`
		IgnorePatterns []string `yaml:"ignore_patterns"`
	} `yaml:"scraper"`

	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/examaid/config.yaml"),
			"/etc/examaid/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.Model == "" {
		if config.LLM.Provider == "googleai" {
			config.LLM.Model = "gemini-pro"
		} else {
			config.LLM.Model = "qwen:0.5b"
		}
	}
	if config.LLM.VisionModel == "" {
		if config.LLM.Provider == "googleai" {
			config.LLM.VisionModel = "gemini-pro-vision"
		} else {
			config.LLM.VisionModel = "llava"
		}
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 256
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.2
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text"
	}
	if config.Embedding.BatchSize == 0 {
		config.Embedding.BatchSize = 32
	}

	if config.Watcher.Strategy == "" {
		config.Watcher.Strategy = "ocr"
	}
	if config.Watcher.Clipboard == "" {
		config.Watcher.Clipboard = "wayland"
	}
	if config.Watcher.PollIntervalMS == 0 {
		config.Watcher.PollIntervalMS = 300
	}

	if config.OCR.Binary == "" {
		config.OCR.Binary = "tesseract"
	}
	if config.OCR.Language == "" {
		config.OCR.Language = "eng"
	}

	if config.RAG.DataDir == "" {
		config.RAG.DataDir = "data"
	}
	if config.RAG.IndexPath == "" {
		config.RAG.IndexPath = "index.db"
	}
	if config.RAG.Model == "" {
		config.RAG.Model = "granite3.1-moe:1b"
	}
	if config.RAG.ChunkSize == 0 {
		config.RAG.ChunkSize = 500
	}
	if config.RAG.TopK == 0 {
		config.RAG.TopK = 3
	}
	if len(config.RAG.AllowedExtensions) == 0 {
		config.RAG.AllowedExtensions = []string{".txt", ".md", ".py"}
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}

	if config.Scraper.MaxDepth == 0 {
		config.Scraper.MaxDepth = 3
	}
	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = "localhost:9020"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if strategy := os.Getenv("EXAMAID_STRATEGY"); strategy != "" {
		config.Watcher.Strategy = strategy
	}
}
