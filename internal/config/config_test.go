package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("BEIRKIT_PORT", "9090")
	os.Setenv("BEIRKIT_DATASET_SPLIT", "dev")
	defer func() {
		os.Unsetenv("BEIRKIT_PORT")
		os.Unsetenv("BEIRKIT_DATASET_SPLIT")
	}()

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}

	if cfg.Dataset.Split != "dev" {
		t.Errorf("Dataset.Split = %s, want dev", cfg.Dataset.Split)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Dataset.Split != "test" {
		t.Errorf("default split = %s, want test", cfg.Dataset.Split)
	}
	if cfg.Eval.ScoreFunction != "cos_sim" {
		t.Errorf("default score function = %s, want cos_sim", cfg.Eval.ScoreFunction)
	}
	if len(cfg.Eval.KValues) == 0 {
		t.Error("default k values empty")
	}
	if cfg.Cache.Type != "memory" {
		t.Errorf("default cache type = %s, want memory", cfg.Cache.Type)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
host: "127.0.0.1"
port: 8888
dataset:
  dir: "/data/scifact"
  split: train
eval:
  score_function: dot
  k_values: [1, 5]
log:
  level: warn
  format: json
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Host)
	}
	if cfg.Port != 8888 {
		t.Errorf("Port = %d, want 8888", cfg.Port)
	}
	if cfg.Dataset.Dir != "/data/scifact" {
		t.Errorf("Dataset.Dir = %s", cfg.Dataset.Dir)
	}
	if cfg.Eval.ScoreFunction != "dot" {
		t.Errorf("Eval.ScoreFunction = %s, want dot", cfg.Eval.ScoreFunction)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %s, want warn", cfg.Log.Level)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid port",
			modify: func(c *Config) {
				c.Port = 0
			},
			wantErr: true,
		},
		{
			name: "empty split",
			modify: func(c *Config) {
				c.Dataset.Split = ""
			},
			wantErr: true,
		},
		{
			name: "invalid score function",
			modify: func(c *Config) {
				c.Eval.ScoreFunction = "euclidean"
			},
			wantErr: true,
		},
		{
			name: "invalid k value",
			modify: func(c *Config) {
				c.Eval.KValues = []int{1, 0}
			},
			wantErr: true,
		},
		{
			name: "kafka without brokers",
			modify: func(c *Config) {
				c.Bus.Type = "kafka"
			},
			wantErr: true,
		},
		{
			name: "invalid searcher",
			modify: func(c *Config) {
				c.Eval.Searcher = "bm25"
			},
			wantErr: true,
		},
		{
			name: "invalid cache type",
			modify: func(c *Config) {
				c.Cache.Type = "memcached"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKafkaBrokerList(t *testing.T) {
	bc := BusConfig{KafkaBrokers: "localhost:9092, broker2:9092"}
	brokers := bc.KafkaBrokerList()
	if len(brokers) != 2 || brokers[1] != "broker2:9092" {
		t.Errorf("KafkaBrokerList() = %v", brokers)
	}

	var empty BusConfig
	if got := empty.KafkaBrokerList(); got != nil {
		t.Errorf("empty brokers = %v, want nil", got)
	}
}
