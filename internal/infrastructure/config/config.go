package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	Provider    ProviderConfig   `mapstructure:"provider"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Index       IndexConfig      `mapstructure:"index"`
	Resolution  ResolutionConfig `mapstructure:"resolution"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ProviderConfig 參考營養資料庫配置
// APIKey 以請求參數方式傳遞給供應商
type ProviderConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// CacheConfig 結果快取配置（Redis）
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	Namespace string        `mapstructure:"namespace"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// IndexConfig 本地搜尋索引配置（sqlite）
type IndexConfig struct {
	Path string `mapstructure:"path"`
}

// ResolutionConfig 解析引擎配置
// 密度常數與分量夾取範圍皆為顯式設定，不依賴環境全域值
type ResolutionConfig struct {
	Workers              int           `mapstructure:"workers"`
	ComponentTimeout     time.Duration `mapstructure:"component_timeout"`
	MinAcceptScore       float64       `mapstructure:"min_accept_score"`
	TopK                 int           `mapstructure:"top_k"`
	SolidDensityPerGram  float64       `mapstructure:"solid_density_per_gram"`
	DrinkDensityPer100ml float64       `mapstructure:"drink_density_per_100ml"`
	PortionMinGrams      float64       `mapstructure:"portion_min_grams"`
	PortionMaxGrams      float64       `mapstructure:"portion_max_grams"`
	MaxCaloriesPerItem   float64       `mapstructure:"max_calories_per_item"`
	WriteThroughLimit    int           `mapstructure:"write_through_limit"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（檔案不存在時不視為錯誤）
	_ = godotenv.Load()

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("provider.api_key", "PROVIDER_API_KEY")
	viper.BindEnv("provider.base_url", "PROVIDER_BASE_URL")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.redis_addr", "REDIS_ADDR")
	viper.BindEnv("index.path", "INDEX_PATH")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration", "provider_api_key:", maskAPIKey(viper.GetString("provider.api_key")), "provider_base_url:", viper.GetString("provider.base_url"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "nutrition-resolver")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// 參考資料庫設定
	viper.SetDefault("provider.enabled", true)
	viper.SetDefault("provider.base_url", "https://api.nutritionreference.example/v1")
	viper.SetDefault("provider.timeout", "10s")
	viper.SetDefault("provider.max_retries", 3)

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.redis_addr", "localhost:6379")
	viper.SetDefault("cache.redis_db", 0)
	viper.SetDefault("cache.namespace", "nutres")
	viper.SetDefault("cache.ttl", "24h")

	// 索引設定
	viper.SetDefault("index.path", "data/foods.db")

	// 解析設定
	viper.SetDefault("resolution.workers", 6)
	viper.SetDefault("resolution.component_timeout", "8s")
	viper.SetDefault("resolution.min_accept_score", 0.7)
	viper.SetDefault("resolution.top_k", 5)
	viper.SetDefault("resolution.solid_density_per_gram", 1.2)
	viper.SetDefault("resolution.drink_density_per_100ml", 30.0)
	viper.SetDefault("resolution.portion_min_grams", 10.0)
	viper.SetDefault("resolution.portion_max_grams", 800.0)
	viper.SetDefault("resolution.max_calories_per_item", 10000.0)
	viper.SetDefault("resolution.write_through_limit", 25)

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// 去重視窗預設
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證供應商設定
	if config.Provider.Enabled {
		if config.Provider.BaseURL == "" {
			return fmt.Errorf("provider base url is required")
		}
		if config.Provider.Timeout <= 0 {
			return fmt.Errorf("invalid provider timeout")
		}
		if config.Provider.MaxRetries < 0 {
			return fmt.Errorf("invalid provider max retries")
		}
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.RedisAddr == "" {
			return fmt.Errorf("redis addr is required")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	// 驗證解析設定
	if config.Resolution.Workers <= 0 {
		return fmt.Errorf("invalid resolution workers")
	}
	if config.Resolution.MinAcceptScore <= 0 || config.Resolution.MinAcceptScore > 1 {
		return fmt.Errorf("invalid min accept score")
	}
	if config.Resolution.PortionMinGrams <= 0 || config.Resolution.PortionMaxGrams <= config.Resolution.PortionMinGrams {
		return fmt.Errorf("invalid portion clamp range")
	}

	return nil
}
