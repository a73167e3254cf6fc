package junban

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sugawarayuuta/sonnet"
)

// Environment variables read by LoadConfig.
const (
	EnvEntities        = "JUNBAN_ENTITIES"
	EnvUpdateFrequency = "JUNBAN_UPDATE_FREQUENCY"
	EnvChunkCapacity   = "JUNBAN_CHUNK_CAPACITY"
	EnvBatchSize       = "JUNBAN_BATCH_SIZE"
	EnvWorkers         = "JUNBAN_WORKERS"
	EnvStrategy        = "JUNBAN_STRATEGY"
	EnvSpeed           = "JUNBAN_SPEED"
	EnvDeltaTime       = "JUNBAN_DELTA_TIME"
	EnvLogLevel        = "JUNBAN_LOG_LEVEL"
	EnvLogFormat       = "JUNBAN_LOG_FORMAT"
	EnvStatsPath       = "JUNBAN_STATS_PATH"
)

// Config holds the setup of a population and its scheduler.
type Config struct {
	LogLevel        string
	LogFormat       string
	StatsPath       string // sqlite file for tick samples, empty to disable
	Entities        int
	UpdateFrequency int
	ChunkCapacity   int
	BatchSize       int // rows per task for row domains
	Workers         int // 0 selects GOMAXPROCS
	Speed           float32
	DeltaTime       float32 // fixed tick delta, 0 to use wall-clock time
	Strategy        Strategy
}

// DefaultConfig returns a million entities updated over ten groups.
func DefaultConfig() Config {
	return Config{
		Entities:        1_000_000,
		UpdateFrequency: 10,
		ChunkCapacity:   DefaultChunkCapacity,
		BatchSize:       64,
		Speed:           1,
		Strategy:        StrategyModulus,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Validate rejects configurations the scheduler cannot run.
func (c Config) Validate() error {
	if c.UpdateFrequency <= 0 || c.UpdateFrequency > MaxGroups {
		return fmt.Errorf("%w: %d", ErrInvalidFrequency, c.UpdateFrequency)
	}
	if c.ChunkCapacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkCapacity, c.ChunkCapacity)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, c.BatchSize)
	}
	if c.Entities < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidEntityCount, c.Entities)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if !c.Strategy.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStrategy, c.Strategy)
	}
	return nil
}

// configFile is the JSON form of Config. Absent fields keep their defaults.
type configFile struct {
	Entities        *int     `json:"entities"`
	UpdateFrequency *int     `json:"update_frequency"`
	ChunkCapacity   *int     `json:"chunk_capacity"`
	BatchSize       *int     `json:"batch_size"`
	Workers         *int     `json:"workers"`
	Strategy        *string  `json:"strategy"`
	Speed           *float32 `json:"speed"`
	DeltaTime       *float32 `json:"delta_time"`
	LogLevel        *string  `json:"log_level"`
	LogFormat       *string  `json:"log_format"`
	StatsPath       *string  `json:"stats_path"`
}

func (f *configFile) apply(c *Config) error {
	setInt(&c.Entities, f.Entities)
	setInt(&c.UpdateFrequency, f.UpdateFrequency)
	setInt(&c.ChunkCapacity, f.ChunkCapacity)
	setInt(&c.BatchSize, f.BatchSize)
	setInt(&c.Workers, f.Workers)
	if f.Speed != nil {
		c.Speed = *f.Speed
	}
	if f.DeltaTime != nil {
		c.DeltaTime = *f.DeltaTime
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.LogFormat != nil {
		c.LogFormat = *f.LogFormat
	}
	if f.StatsPath != nil {
		c.StatsPath = *f.StatsPath
	}
	if f.Strategy != nil {
		s, err := ParseStrategy(*f.Strategy)
		if err != nil {
			return err
		}
		c.Strategy = s
	}
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// DecodeConfig overlays the JSON document data on c.
func DecodeConfig(data []byte, c *Config) error {
	var f configFile
	if err := sonnet.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("junban: decode config: %w", err)
	}
	return f.apply(c)
}

// LoadConfig starts from DefaultConfig, overlays the JSON file at path (if
// path is not empty), loads envFiles (".env" when none are given) into the
// process environment without overriding variables already set, then applies
// the JUNBAN_* variables. Missing env files are not an error.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("junban: read config: %w", err)
		}
		if err := DecodeConfig(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("junban: load env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays the JUNBAN_* variables found through lookup on c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		dst *int
		key string
	}{
		{&c.Entities, EnvEntities},
		{&c.UpdateFrequency, EnvUpdateFrequency},
		{&c.ChunkCapacity, EnvChunkCapacity},
		{&c.BatchSize, EnvBatchSize},
		{&c.Workers, EnvWorkers},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("junban: %s: %w", e.key, err)
		}
		*e.dst = n
	}
	floats := []struct {
		dst *float32
		key string
	}{
		{&c.Speed, EnvSpeed},
		{&c.DeltaTime, EnvDeltaTime},
	}
	for _, e := range floats {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("junban: %s: %w", e.key, err)
		}
		*e.dst = float32(f)
	}
	strs := []struct {
		dst *string
		key string
	}{
		{&c.LogLevel, EnvLogLevel},
		{&c.LogFormat, EnvLogFormat},
		{&c.StatsPath, EnvStatsPath},
	}
	for _, e := range strs {
		if v, ok := lookup(e.key); ok && v != "" {
			*e.dst = v
		}
	}
	if v, ok := lookup(EnvStrategy); ok && v != "" {
		s, err := ParseStrategy(v)
		if err != nil {
			return err
		}
		c.Strategy = s
	}
	return nil
}
