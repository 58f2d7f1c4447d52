package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"craftd/pkg/utils/constants"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var config *Config

// Command line flags shared across the cmd layer.
var (
	ForegroundFlag bool
	LogLevelFlag   string
	ConfigFlag     string
)

// configViperMutex protects the global viper state during config loading.
var configViperMutex sync.Mutex

type Config struct {
	Daemonize bool   `yaml:"daemonize" mapstructure:"daemonize"`
	PidFile   string `yaml:"pidfile" mapstructure:"pidfile"`
	Socket    string `yaml:"socket" mapstructure:"socket"`
	BasePath  string `yaml:"base_path" mapstructure:"base_path"`
	StateDir  string `yaml:"state_dir" mapstructure:"state_dir"`
	Java      Java   `yaml:"java" mapstructure:"java"`
	Log       Log    `yaml:"log" mapstructure:"log"`
}

// Java describes how server processes are launched.
type Java struct {
	Bin       string `yaml:"bin,omitempty" mapstructure:"bin,omitempty"`
	MinHeapMB int    `yaml:"min_heap_mb,omitempty" mapstructure:"min_heap_mb,omitempty"`
	MaxHeapMB int    `yaml:"max_heap_mb,omitempty" mapstructure:"max_heap_mb,omitempty"`
}

type Log struct {
	Level        string `yaml:"level,omitempty" mapstructure:"level,omitempty"`
	FileEnabled  bool   `yaml:"file_enabled" mapstructure:"file_enabled"`
	FilePath     string `yaml:"file_path,omitempty" mapstructure:"file_path,omitempty"`
	FileSize     int    `yaml:"file_size,omitempty" mapstructure:"file_size,omitempty"`
	FileCompress bool   `yaml:"file_compress,omitempty" mapstructure:"file_compress,omitempty"`
	MaxAge       int    `yaml:"max_age,omitempty" mapstructure:"max_age,omitempty"`
	MaxBackups   int    `yaml:"max_backups,omitempty" mapstructure:"max_backups,omitempty"`
}

func setDefault() {
	viper.SetDefault("daemonize", true)
	viper.SetDefault("pidfile", constants.DaemonPidFilePath)
	viper.SetDefault("socket", constants.DaemonSockFilePath)
	viper.SetDefault("base_path", fmt.Sprintf("%s/servers", constants.CraftdHome))
	viper.SetDefault("state_dir", constants.DaemonStateDirPath)
	viper.SetDefault("java", map[string]any{
		"Bin":       "java",
		"MinHeapMB": 1024,
		"MaxHeapMB": 2048,
	})
	viper.SetDefault("log", map[string]any{
		"Level":        constants.DefaultLogLevel,
		"FilePath":     constants.DaemonLogFilePath,
		"FileEnabled":  true,
		"FileCompress": false,
		"FileSize":     10,
		"MaxAge":       7,
		"MaxBackups":   7,
	})
}

func GetConfig() *Config {
	return config
}

func SetConfig(configFile string) {
	configViperMutex.Lock()
	defer configViperMutex.Unlock()

	_, err := os.Stat(configFile)
	if errors.Is(err, os.ErrNotExist) {
		cfgName := fmt.Sprintf("%s.yml", constants.DefaultDaemonName)

		viper.SetConfigName(cfgName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("etc")
		viper.AddConfigPath("../etc")
		viper.AddConfigPath(constants.CraftdHome)
	} else if err != nil {
		log.Fatal(err)
	} else {
		viper.SetConfigFile(configFile)
	}

	viper.SetEnvPrefix("CRAFTD")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefault()

	err = viper.ReadInConfig()
	if err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		log.Fatalf("Error getting config file, %v", err)
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		fmt.Println("Unable to decode into struct, ", err)
	}

	if LogLevelFlag != "" {
		config.Log.Level = LogLevelFlag
	}
}

// WriteDefault materializes the effective configuration as a yaml file so a
// fresh installation has something to edit. Existing files are left alone.
func WriteDefault(path string) error {
	if config == nil {
		return errors.New("config not loaded")
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
