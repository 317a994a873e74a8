package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"regenwasi/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "REGENWASI_LOG_LEVEL")
	viper.BindEnv("persistence.saveInterval", "REGENWASI_SAVE_INTERVAL")
	viper.BindEnv("degradation.tickInterval", "REGENWASI_TICK_INTERVAL")
	viper.BindEnv("chat.apiKey", "REGENWASI_OPENAI_API_KEY")
	viper.BindEnv("chat.baseURL", "REGENWASI_OPENAI_BASE_URL")
	viper.BindEnv("hub.baseURL", "REGENWASI_HUB_BASE_URL")
	viper.BindEnv("cache.enabled", "REGENWASI_CACHE_ENABLED")
	viper.BindEnv("cache.size", "REGENWASI_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "GuardianDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
