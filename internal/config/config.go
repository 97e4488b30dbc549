package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Image     Image     `yaml:"image"`
	Journal   Journal   `yaml:"journal"`
	CloudInit CloudInit `yaml:"cloud_init"`
}

type Image struct {
	// Path is the default base image offered when flashing.
	Path string `yaml:"path,omitempty"`
}

type Journal struct {
	Path string `yaml:"path,omitempty"`
}

// CloudInit carries everything the per-host configuration generator
// needs. Which fields are required depends on the interfaces being set
// up; the generator validates before rendering.
type CloudInit struct {
	OutputDir string `yaml:"output_dir,omitempty"`

	Gateway     string `yaml:"gateway"`
	EthNetwork  string `yaml:"eth_network,omitempty"`
	WifiNetwork string `yaml:"wifi_network,omitempty"`

	// HostnamePattern names each node; {num} expands to the
	// zero-padded host number (k8s-node-{num} -> k8s-node-01).
	HostnamePattern string `yaml:"hostname_pattern"`

	LocalAdmin  Account `yaml:"local_admin"`
	RemoteAdmin Account `yaml:"remote_admin"`
	Wifi        Wifi    `yaml:"wifi"`
}

type Account struct {
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
	SSHKey   string `yaml:"ssh_key,omitempty"`
}

type Wifi struct {
	SSID     string `yaml:"ssid,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// defaultConfig provides baseline settings; everything host-specific
// must come from the config file.
var defaultConfig = Config{
	Journal: Journal{
		Path: "/var/lib/nodeboot/journal.db",
	},
	CloudInit: CloudInit{
		OutputDir: "output/cloud-init",
	},
}

func Load(path string) (*Config, error) {
	if path == "" {
		// Try default locations
		candidates := []string{
			"/etc/nodeboot/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/nodeboot/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	var cfg Config
	if path == "" {
		// No config file found - run on defaults
		cfg = defaultConfig
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			cfg = defaultConfig
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		}
	}

	// Apply defaults for missing values
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = defaultConfig.Journal.Path
	}
	if cfg.CloudInit.OutputDir == "" {
		cfg.CloudInit.OutputDir = defaultConfig.CloudInit.OutputDir
	}

	return &cfg, nil
}
