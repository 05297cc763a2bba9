package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type WhatsAppConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
	DryRun bool   `yaml:"dry_run"`
}

type PluggyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Sandbox      bool   `yaml:"sandbox"`
}

type ChainConfig struct {
	RelayerURL          string `yaml:"relayer_url"`
	OracleAddress       string `yaml:"oracle_address"`
	FactoryAddress      string `yaml:"factory_address"`
	EnableOnchainDeploy bool   `yaml:"enable_onchain_deploy"`
}

type Config struct {
	Server struct {
		Port    int    `yaml:"port"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Pluggy   PluggyConfig   `yaml:"pluggy"`
	Chain    ChainConfig    `yaml:"chain"`
}

// LoadConfig reads config/config.yaml when present and then applies
// environment overrides, so a container can run off env vars alone.
func LoadConfig() *Config {
	var cfg Config

	if f, err := os.Open("config/config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			panic("Failed to parse config.yaml: " + err.Error())
		}
	}

	applyEnv(&cfg)

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	return &cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	setStr(&cfg.Server.BaseURL, "BASE_URL")
	setStr(&cfg.Database.DSN, "DATABASE_URL")
	setStr(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setStr(&cfg.WhatsApp.APIURL, "WHATSAPP_API_URL")
	setStr(&cfg.WhatsApp.APIKey, "WHATSAPP_API_KEY")
	setBool(&cfg.WhatsApp.DryRun, "WHATSAPP_DRY_RUN")
	setStr(&cfg.Pluggy.ClientID, "PLUGGY_CLIENT_ID")
	setStr(&cfg.Pluggy.ClientSecret, "PLUGGY_CLIENT_SECRET")
	setBool(&cfg.Pluggy.Sandbox, "PLUGGY_SANDBOX")
	setStr(&cfg.Chain.RelayerURL, "RELAYER_URL")
	setStr(&cfg.Chain.OracleAddress, "ORACLE_ADDRESS")
	setStr(&cfg.Chain.FactoryAddress, "FACTORY_ADDRESS")
	setBool(&cfg.Chain.EnableOnchainDeploy, "ENABLE_ONCHAIN_DEPLOY")
}

func setStr(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, env string) {
	v := strings.ToLower(os.Getenv(env))
	switch v {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	}
}
