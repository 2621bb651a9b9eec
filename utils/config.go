package utils

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" json:"server"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Pipeline    PipelineConfig    `yaml:"pipeline" json:"pipeline"`
	Heuristics  HeuristicsConfig  `yaml:"heuristics" json:"heuristics"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Persistence PersistenceConfig `yaml:"persistence" json:"persistence"`
	Scheduler   SchedulerConfig   `yaml:"scheduler" json:"scheduler"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	ReadTimeout  int    `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" json:"write_timeout"` // seconds
	EnableCORS   bool   `yaml:"enable_cors" json:"enable_cors"`
}

// PathsConfig holds the filesystem locations of the pipeline artifacts
type PathsConfig struct {
	RawData      string `yaml:"raw_data" json:"raw_data"`           // source CSV
	ProcessedDir string `yaml:"processed_dir" json:"processed_dir"` // partitions + encoders
	ModelDir     string `yaml:"model_dir" json:"model_dir"`         // trained model
	TemplateDir  string `yaml:"template_dir" json:"template_dir"`
	StaticDir    string `yaml:"static_dir" json:"static_dir"`
}

// PipelineConfig holds preprocessing and training parameters
type PipelineConfig struct {
	RandomSeed      int64   `yaml:"random_seed" json:"random_seed"`
	TestSize        float64 `yaml:"test_size" json:"test_size"` // e.g. 0.2 for 80/20
	NumRounds       int     `yaml:"num_rounds" json:"num_rounds"`
	LearningRate    float64 `yaml:"learning_rate" json:"learning_rate"`
	MaxDepth        int     `yaml:"max_depth" json:"max_depth"`
	MinSamplesSplit int     `yaml:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf" json:"min_samples_leaf"`
}

// HeuristicsConfig holds the seasonal and regional defaults used to fill
// model features the form does not ask for. Values come from the config
// file so they can be reviewed or replaced without touching handler code.
type HeuristicsConfig struct {
	SeasonSunshine     map[string]float64 `yaml:"season_sunshine" json:"season_sunshine"`
	PrevailingWinds    map[string]string  `yaml:"prevailing_winds" json:"prevailing_winds"`
	FallbackWindDir    string             `yaml:"fallback_wind_dir" json:"fallback_wind_dir"`
	PressureBase       float64            `yaml:"pressure_base" json:"pressure_base"`
	PressureSlope      float64            `yaml:"pressure_slope" json:"pressure_slope"`
	GustOffset         float64            `yaml:"gust_offset" json:"gust_offset"`
	GustCap            float64            `yaml:"gust_cap" json:"gust_cap"`
	MorningWindOffset  float64            `yaml:"morning_wind_offset" json:"morning_wind_offset"`
	RainTodayThreshold float64            `yaml:"rain_today_threshold" json:"rain_today_threshold"`
	EvapSunshineCoef   float64            `yaml:"evap_sunshine_coef" json:"evap_sunshine_coef"`
	EvapRangeCoef      float64            `yaml:"evap_range_coef" json:"evap_range_coef"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format   string `yaml:"format" json:"format"` // json, text
	Output   string `yaml:"output" json:"output"` // stdout, file, both
	FilePath string `yaml:"file_path" json:"file_path"`
}

// PersistenceConfig holds the run-history store configuration
type PersistenceConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	DatabasePath string `yaml:"database_path" json:"database_path"`
}

// SchedulerConfig holds the retraining scheduler configuration
type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	CronExpr string `yaml:"cron_expr" json:"cron_expr"`
}

// ConfigManager manages application configuration
type ConfigManager struct {
	config     *Config
	configPath string
	mutex      sync.RWMutex
}

// NewConfigManager creates a new configuration manager with defaults
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: getDefaultConfig(),
	}
}

// getDefaultConfig returns the built-in defaults. The heuristic tables
// mirror the values the model was characterised with; overriding them in
// config.yaml changes serving-time feature completion only.
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
			EnableCORS:   true,
		},
		Paths: PathsConfig{
			RawData:      "artifacts/raw/data.csv",
			ProcessedDir: "artifacts/processed",
			ModelDir:     "artifacts/models",
			TemplateDir:  "templates",
			StaticDir:    "static",
		},
		Pipeline: PipelineConfig{
			RandomSeed:      42,
			TestSize:        0.2,
			NumRounds:       100,
			LearningRate:    0.1,
			MaxDepth:        4,
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
		},
		Heuristics: HeuristicsConfig{
			SeasonSunshine: map[string]float64{
				"summer": 9.0,
				"autumn": 7.0,
				"winter": 5.0,
				"spring": 8.0,
			},
			PrevailingWinds: map[string]string{
				"Sydney": "NE", "SydneyAirport": "NE", "Wollongong": "NE",
				"Melbourne": "SW", "MelbourneAirport": "SW",
				"Perth": "SW", "PerthAirport": "SW",
				"Brisbane": "SE", "GoldCoast": "SE", "Cairns": "SE", "Townsville": "SE",
				"Hobart": "W", "Launceston": "W",
				"Darwin": "NW", "Katherine": "NW",
			},
			FallbackWindDir:    "SW",
			PressureBase:       1015.0,
			PressureSlope:      0.08,
			GustOffset:         20,
			GustCap:            150,
			MorningWindOffset:  3,
			RainTodayThreshold: 0.2,
			EvapSunshineCoef:   0.12,
			EvapRangeCoef:      0.03,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Persistence: PersistenceConfig{
			Enabled:      false,
			DatabasePath: "artifacts/raincast.db",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			CronExpr: "0 3 * * *",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (cm *ConfigManager) LoadFromFile(configPath string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	newConfig := getDefaultConfig()
	if err := yaml.Unmarshal(data, newConfig); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := validateConfig(newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cm.config = newConfig
	cm.configPath = configPath
	return nil
}

// LoadFromEnvironment overrides configuration from environment variables
func (cm *ConfigManager) LoadFromEnvironment() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if host := os.Getenv("RAINCAST_HOST"); host != "" {
		cm.config.Server.Host = host
	}
	if port := os.Getenv("RAINCAST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cm.config.Server.Port = p
		}
	}
	if logLevel := os.Getenv("RAINCAST_LOG_LEVEL"); logLevel != "" {
		cm.config.Logging.Level = logLevel
	}
	if rawData := os.Getenv("RAINCAST_RAW_DATA"); rawData != "" {
		cm.config.Paths.RawData = rawData
	}
	if processed := os.Getenv("RAINCAST_PROCESSED_DIR"); processed != "" {
		cm.config.Paths.ProcessedDir = processed
	}
	if modelDir := os.Getenv("RAINCAST_MODEL_DIR"); modelDir != "" {
		cm.config.Paths.ModelDir = modelDir
	}
}

// validateConfig checks a configuration for values that cannot work
func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", config.Server.Port)
	}
	if config.Pipeline.TestSize <= 0 || config.Pipeline.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0, 1), got %g", config.Pipeline.TestSize)
	}
	if config.Pipeline.NumRounds <= 0 {
		return fmt.Errorf("num_rounds must be positive, got %d", config.Pipeline.NumRounds)
	}
	if config.Pipeline.LearningRate <= 0 || config.Pipeline.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1], got %g", config.Pipeline.LearningRate)
	}
	if config.Paths.RawData == "" || config.Paths.ProcessedDir == "" || config.Paths.ModelDir == "" {
		return fmt.Errorf("paths.raw_data, paths.processed_dir and paths.model_dir must all be set")
	}
	if config.Persistence.Enabled && config.Persistence.DatabasePath == "" {
		return fmt.Errorf("persistence enabled but database_path is empty")
	}
	if config.Scheduler.Enabled && config.Scheduler.CronExpr == "" {
		return fmt.Errorf("scheduler enabled but cron_expr is empty")
	}
	return nil
}

// GetConfig returns a copy of the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	configCopy := *cm.config
	return &configCopy
}

// GetConfigPath returns the current configuration file path
func (cm *ConfigManager) GetConfigPath() string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.configPath
}

// Global configuration manager
var globalConfigManager *ConfigManager
var configOnce sync.Once

// GetConfigManager returns the global configuration manager
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}

// LoadGlobalConfig loads config.yaml (when present) and applies
// environment overrides to the global configuration manager
func LoadGlobalConfig(configPath string) error {
	cm := GetConfigManager()
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cm.LoadFromFile(configPath); err != nil {
				return err
			}
		}
	}
	cm.LoadFromEnvironment()
	return nil
}
