package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/recallguard/data/recalls.db"
	}
	if cfg.Feed.PageSize == 0 {
		cfg.Feed.PageSize = 100
	}
	if cfg.Feed.TimeoutSeconds == 0 {
		cfg.Feed.TimeoutSeconds = 30
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o"
	}
	if cfg.OpenAI.VisionModel == "" {
		cfg.OpenAI.VisionModel = "gpt-4o"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 30
	}
	if cfg.Shop.BaseURL == "" {
		cfg.Shop.BaseURL = "https://openapi.naver.com"
	}
	if cfg.Shop.TimeoutSeconds == 0 {
		cfg.Shop.TimeoutSeconds = 10
	}
	if cfg.Search.RequestTimeoutSeconds == 0 {
		cfg.Search.RequestTimeoutSeconds = 60
	}
}
