package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервиса. Структура строится один раз в
// main и передаётся по ссылке в конструкторы — без скрытого глобального
// состояния.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	YouTube struct {
		APIKey  string        `envconfig:"YOUTUBE_API_KEY"`
		BaseURL string        `envconfig:"YOUTUBE_BASE_URL"`
		Timeout time.Duration `envconfig:"YOUTUBE_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Apify struct {
		Token          string        `envconfig:"APIFY_TOKEN"`
		BaseURL        string        `envconfig:"APIFY_BASE_URL"`
		InstagramActor string        `envconfig:"APIFY_INSTAGRAM_ACTOR_ID"`
		TikTokActor    string        `envconfig:"APIFY_TIKTOK_ACTOR_ID"`
		WaitForFinish  time.Duration `envconfig:"APIFY_WAIT_FOR_FINISH" default:"120s"`
		RequestTimeout time.Duration `envconfig:"APIFY_REQUEST_TIMEOUT" default:"150s"`
	} `envconfig:""`

	Instagram struct {
		ScraperScript string        `envconfig:"INSTAGRAM_SCRAPER_SCRIPT"`
		PythonBin     string        `envconfig:"PYTHON_BIN" default:"python3"`
		Username      string        `envconfig:"INSTAGRAM_USERNAME"`
		Password      string        `envconfig:"INSTAGRAM_PASSWORD"`
		Timeout       time.Duration `envconfig:"INSTAGRAM_SCRAPER_TIMEOUT" default:"60s"`
	} `envconfig:""`

	Transcript struct {
		Script   string        `envconfig:"TRANSCRIPT_SCRIPT"`
		Timeout  time.Duration `envconfig:"TRANSCRIPT_TIMEOUT" default:"60s"`
		CacheTTL time.Duration `envconfig:"TRANSCRIPT_CACHE_TTL" default:"24h"`
	} `envconfig:""`

	Limits struct {
		FetchPerAccount int `envconfig:"FETCH_LIMIT_PER_CHANNEL" default:"30"`
		FetchMax        int `envconfig:"FETCH_LIMIT_MAX" default:"100"`
		SearchMax       int `envconfig:"SEARCH_RESULTS_MAX" default:"200"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
