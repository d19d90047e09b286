package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"lfd/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "LFD_LOG_LEVEL")
	viper.BindEnv("feedback.flushInterval", "LFD_FLUSH_INTERVAL")
	viper.BindEnv("feedback.lectureTTL", "LFD_LECTURE_TTL")
	viper.BindEnv("persistence.saveInterval", "LFD_SAVE_INTERVAL")
	viper.BindEnv("cache.enabled", "LFD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "LFD_CACHE_SIZE")

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

	conf.AppName = "LectureFeedbackDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
