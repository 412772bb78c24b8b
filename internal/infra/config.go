package infra

import (
	"fmt"
	"os"

	"escrow_go/internal/domain"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Sensitive addresses can be
// overridden through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Engine struct {
		AdminAddress      string   `yaml:"admin_address"`
		AggregatorAddress string   `yaml:"aggregator_address"`
		TreasuryAddress   string   `yaml:"treasury_address"`
		ProtocolFeeBPS    uint64   `yaml:"protocol_fee_bps"`
		Tokens            []string `yaml:"tokens"`
		Institutions      []struct {
			Code     string `yaml:"code"`
			Name     string `yaml:"name"`
			Currency string `yaml:"currency"`
		} `yaml:"institutions"`
	} `yaml:"engine"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Feed struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"feed"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Engine.AdminAddress == "" {
		return fmt.Errorf("engine.admin_address is required")
	}
	if c.Engine.AggregatorAddress == "" {
		return fmt.Errorf("engine.aggregator_address is required")
	}
	if c.Engine.TreasuryAddress == "" {
		return fmt.Errorf("engine.treasury_address is required")
	}
	if c.Engine.ProtocolFeeBPS > domain.MaxBPS {
		return fmt.Errorf("engine.protocol_fee_bps %d exceeds %d", c.Engine.ProtocolFeeBPS, domain.MaxBPS)
	}
	for _, inst := range c.Engine.Institutions {
		if inst.Code == "" || inst.Name == "" || inst.Currency == "" {
			return fmt.Errorf("institution entry %+v is incomplete", inst)
		}
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	return nil
}

// SeedInstitutions converts the configured institution entries to domain
// records.
func (c *Config) SeedInstitutions() []domain.Institution {
	out := make([]domain.Institution, 0, len(c.Engine.Institutions))
	for _, inst := range c.Engine.Institutions {
		out = append(out, domain.Institution{Code: inst.Code, Name: inst.Name, Currency: inst.Currency})
	}
	return out
}

// overrideWithEnv replaces settings when the corresponding environment
// variable is present.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("ESCROW_ADMIN_ADDRESS"); addr != "" {
		cfg.Engine.AdminAddress = addr
	}
	if addr := os.Getenv("ESCROW_AGGREGATOR_ADDRESS"); addr != "" {
		cfg.Engine.AggregatorAddress = addr
	}
	if addr := os.Getenv("ESCROW_TREASURY_ADDRESS"); addr != "" {
		cfg.Engine.TreasuryAddress = addr
	}
	if path := os.Getenv("ESCROW_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
}
