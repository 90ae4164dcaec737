package config

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string        `json:"log_level" yaml:"log_level"`
	Pacer    PacerConfig   `json:"pacer" yaml:"pacer"`
	API      APIConfig     `json:"api" yaml:"api"`
	Events   EventsConfig  `json:"events" yaml:"events"`
	Storage  StorageConfig `json:"storage" yaml:"storage"`
	Sink     SinkConfig    `json:"sink" yaml:"sink"`
}

type PacerConfig struct {
	Cooldown        time.Duration `json:"cooldown" yaml:"cooldown"`
	Command         []string      `json:"command" yaml:"command"`
	CommandTimeout  time.Duration `json:"command_timeout" yaml:"command_timeout"`
	SummaryInterval time.Duration `json:"summary_interval" yaml:"summary_interval"`
	LogThrottle     time.Duration `json:"log_throttle" yaml:"log_throttle"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type EventsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type SinkConfig struct {
	Kafka KafkaConfig `json:"kafka" yaml:"kafka"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Pacer: PacerConfig{
			Cooldown:        30 * time.Second,
			CommandTimeout:  10 * time.Second,
			SummaryInterval: 60 * time.Second,
			LogThrottle:     10 * time.Second,
		},
		API:     APIConfig{Enabled: true, Addr: ":8080"},
		Events:  EventsConfig{StoreLimit: 1000},
		Storage: StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:ratelimd.db?_pragma=busy_timeout(5000)"},
		Sink:    SinkConfig{Kafka: KafkaConfig{Enabled: false}},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Pacer.CommandTimeout <= 0 {
		cfg.Pacer.CommandTimeout = 10 * time.Second
	}
	if cfg.Pacer.SummaryInterval <= 0 {
		cfg.Pacer.SummaryInterval = 60 * time.Second
	}
	if cfg.Pacer.LogThrottle <= 0 {
		cfg.Pacer.LogThrottle = 10 * time.Second
	}
	if cfg.Events.StoreLimit <= 0 {
		cfg.Events.StoreLimit = 1000
	}
}

func Validate(cfg *Config) error {
	if cfg.Pacer.Cooldown <= 0 {
		return errors.New("pacer.cooldown must be > 0")
	}
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	if cfg.Storage.Enabled && cfg.Storage.Driver == "" {
		return errors.New("storage.driver required when storage.enabled is true")
	}
	if cfg.Sink.Kafka.Enabled {
		if len(cfg.Sink.Kafka.Brokers) == 0 || cfg.Sink.Kafka.Topic == "" {
			return errors.New("sink.kafka requires brokers and topic")
		}
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	info, err := os.Stat(path)
	if err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) NeedsReload() (bool, error) {
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
