package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Analysis AnalysisConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns  int
	MaxIdleConns  int
	MaxConcurrent int64
	AutoMigrate   bool
}

// DSN returns a lib/pq keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MasterTTLSeconds    int
	ShipmentsTTLSeconds int
	StockTTLSeconds     int
}

func (c CacheConfig) MasterTTL() time.Duration {
	return time.Duration(c.MasterTTLSeconds) * time.Second
}

func (c CacheConfig) ShipmentsTTL() time.Duration {
	return time.Duration(c.ShipmentsTTLSeconds) * time.Second
}

func (c CacheConfig) StockTTL() time.Duration {
	return time.Duration(c.StockTTLSeconds) * time.Second
}

// StorageConfig points at an S3-compatible bucket holding seed files.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// DriveConfig configures the Google Drive source and the ingest server.
type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
	DownloadDir     string
	Port            string
	ArchivePrefix   string
}

// AnalysisConfig holds the engine defaults applied when a request does not
// override them.
type AnalysisConfig struct {
	WindowSize      int
	PeriodKind      string
	SafeCoverage    string
	OverstockCover  string
	EagerRounding   bool
	Timezone        string
	DefaultUnit     string
	DefaultCategory string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:          viper.GetString("DB_HOST"),
				Port:          viper.GetString("DB_PORT"),
				User:          viper.GetString("DB_USER"),
				Password:      viper.GetString("DB_PASSWORD"),
				DBName:        viper.GetString("DB_NAME"),
				SSLMode:       viper.GetString("DB_SSLMODE"),
				MaxOpenConns:  viper.GetInt("DB_MAX_OPEN_CONNS"),
				MaxIdleConns:  viper.GetInt("DB_MAX_IDLE_CONNS"),
				MaxConcurrent: viper.GetInt64("DB_MAX_CONCURRENT"),
				AutoMigrate:   viper.GetBool("DB_AUTO_MIGRATE"),
			},
			Cache: CacheConfig{
				Enabled:             viper.GetBool("CACHE_ENABLED"),
				RedisURL:            viper.GetString("REDIS_URL"),
				RedisHost:           viper.GetString("REDIS_HOST"),
				RedisPort:           viper.GetString("REDIS_PORT"),
				RedisPassword:       viper.GetString("REDIS_PASSWORD"),
				RedisDB:             viper.GetInt("REDIS_DB"),
				MasterTTLSeconds:    viper.GetInt("CACHE_MASTER_TTL_SECONDS"),
				ShipmentsTTLSeconds: viper.GetInt("CACHE_SHIPMENTS_TTL_SECONDS"),
				StockTTLSeconds:     viper.GetInt("CACHE_STOCK_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("S3_ENDPOINT"),
				AccessKey: viper.GetString("S3_ACCESS_KEY"),
				SecretKey: viper.GetString("S3_SECRET_KEY"),
				Bucket:    viper.GetString("S3_BUCKET"),
				Region:    viper.GetString("S3_REGION"),
				UseSSL:    viper.GetBool("S3_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsJSON: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
				FolderID:        viper.GetString("GOOGLE_DRIVE_FOLDER_ID"),
				DownloadDir:     viper.GetString("GOOGLE_DRIVE_DOWNLOAD_DIR"),
				Port:            viper.GetString("DRIVE_API_PORT"),
				ArchivePrefix:   viper.GetString("DRIVE_ARCHIVE_PREFIX"),
			},
			Analysis: AnalysisConfig{
				WindowSize:      viper.GetInt("ANALYSIS_WINDOW_SIZE"),
				PeriodKind:      viper.GetString("ANALYSIS_PERIOD_KIND"),
				SafeCoverage:    viper.GetString("ANALYSIS_SAFE_COVERAGE"),
				OverstockCover:  viper.GetString("ANALYSIS_OVERSTOCK_COVERAGE"),
				EagerRounding:   viper.GetBool("ANALYSIS_EAGER_ROUNDING"),
				Timezone:        viper.GetString("ANALYSIS_TIMEZONE"),
				DefaultUnit:     viper.GetString("ANALYSIS_DEFAULT_UNIT"),
				DefaultCategory: viper.GetString("ANALYSIS_DEFAULT_CATEGORY"),
			},
			Log: LogConfig{
				Level:  viper.GetString("LOG_LEVEL"),
				Pretty: viper.GetBool("LOG_PRETTY"),
			},
		}
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "inventory")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_MAX_CONCURRENT", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", false)

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_MASTER_TTL_SECONDS", 600)
	viper.SetDefault("CACHE_SHIPMENTS_TTL_SECONDS", 300)
	viper.SetDefault("CACHE_STOCK_TTL_SECONDS", 300)

	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_USE_SSL", true)

	viper.SetDefault("GOOGLE_DRIVE_DOWNLOAD_DIR", "./data/tmp/drive")
	viper.SetDefault("DRIVE_API_PORT", "8081")
	viper.SetDefault("DRIVE_ARCHIVE_PREFIX", "drive")

	viper.SetDefault("ANALYSIS_WINDOW_SIZE", 12)
	viper.SetDefault("ANALYSIS_PERIOD_KIND", "monthly")
	viper.SetDefault("ANALYSIS_SAFE_COVERAGE", "1.0")
	viper.SetDefault("ANALYSIS_OVERSTOCK_COVERAGE", "3.0")
	viper.SetDefault("ANALYSIS_EAGER_ROUNDING", false)
	viper.SetDefault("ANALYSIS_TIMEZONE", "Asia/Tokyo")
	viper.SetDefault("ANALYSIS_DEFAULT_UNIT", "pack")
	viper.SetDefault("ANALYSIS_DEFAULT_CATEGORY", "")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", true)
}
