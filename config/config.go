package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Key        *KeyConfig        `yaml:"key"`
	Prover     *ProverConfig     `yaml:"prover"`
	Aggregator *AggregatorConfig `yaml:"aggregator"`
	Auth       *AuthConfig       `yaml:"auth"`
	DB         *DBConfig         `yaml:"db"`
	Metrics    *MetricsConfig    `yaml:"metrics"`
	LogFile    string            `yaml:"logFile"`
}

type DBConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"inMemory"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	// TextfilePath, when set, receives the process metrics in the text
	// exposition format on shutdown.
	TextfilePath string `yaml:"textfilePath"`
}

type AuthConfig struct {
	ChallengeTTL   time.Duration `yaml:"challengeTTL"`
	ChallengeSize  int           `yaml:"challengeSize"`
	MaxOutstanding int           `yaml:"maxOutstanding"`
}

func NewConfig(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	d := yaml.NewDecoder(file)
	config := DefaultConfig("")

	if err := d.Decode(config); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns the settings written on first run. configPath
// roots the store and key file paths.
func DefaultConfig(configPath string) *Config {
	return &Config{
		Key: &KeyConfig{
			KeyStore: KeyManagerTypeFile,
			KeyStoreFile: &KeyStoreFileConfig{
				Path:            filepath.Join(configPath, "keys.yml"),
				CreateIfMissing: true,
			},
		},
		Prover: &ProverConfig{
			Curve:           CurveTypeSecp256k1,
			KeyCacheSize:    0,
			DefaultIdentity: "default-identity",
		},
		Aggregator: &AggregatorConfig{
			BatchSize:     8,
			VerifyWorkers: 0,
		},
		Auth: &AuthConfig{
			ChallengeTTL:   5 * time.Minute,
			ChallengeSize:  32,
			MaxOutstanding: 4096,
		},
		DB: &DBConfig{
			Path: filepath.Join(configPath, "store"),
		},
		Metrics: &MetricsConfig{
			Enabled:   true,
			Namespace: "zkp",
		},
	}
}

func LoadConfig(configPath string) (*Config, error) {
	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		fmt.Println("Creating config directory " + configPath)
		if err = os.Mkdir(configPath, fs.FileMode(0700)); err != nil {
			return nil, errors.Wrap(err, "load config")
		}
	} else {
		if err != nil {
			return nil, errors.Wrap(err, "load config")
		}

		if !info.IsDir() {
			return nil, errors.New(configPath + " is not a directory")
		}
	}

	file, err := os.Open(filepath.Join(configPath, "config.yml"))
	saveDefaults := false
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			saveDefaults = true
		} else {
			return nil, err
		}
	}

	config := DefaultConfig(configPath)

	if saveDefaults {
		fmt.Println("Generating default config...")
		fmt.Println("Generating keystore key...")
		keystoreKey := make([]byte, 32)
		if _, err := rand.Read(keystoreKey); err != nil {
			return nil, errors.Wrap(err, "load config")
		}

		config.Key.KeyStoreFile.EncryptionKey = hex.EncodeToString(keystoreKey)

		fmt.Println("Saving config...")
		if err = SaveConfig(configPath, config); err != nil {
			return nil, errors.Wrap(err, "load config")
		}

		keyfile, err := os.OpenFile(
			config.Key.KeyStoreFile.Path,
			os.O_CREATE|os.O_RDWR,
			fs.FileMode(0600),
		)
		if err != nil {
			return nil, errors.Wrap(err, "load config")
		}

		keyfile.Write([]byte("{}\n"))
		keyfile.Close()

		if file, err = os.Open(
			filepath.Join(configPath, "config.yml"),
		); err != nil {
			return nil, errors.Wrap(err, "load config")
		}
	}

	defer file.Close()
	d := yaml.NewDecoder(file)
	if err := d.Decode(config); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	return config, nil
}

func SaveConfig(configPath string, config *Config) error {
	file, err := os.OpenFile(
		filepath.Join(configPath, "config.yml"),
		os.O_CREATE|os.O_RDWR|os.O_TRUNC,
		os.FileMode(0600),
	)
	if err != nil {
		return err
	}

	defer file.Close()

	d := yaml.NewEncoder(file)

	if err := d.Encode(config); err != nil {
		return err
	}

	return nil
}
