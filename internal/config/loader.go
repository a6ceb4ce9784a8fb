package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config file locations.
const (
	GlobalConfigDir   = "statediagram"
	GlobalConfigFile  = "config.yaml"
	ProjectConfigDir  = ".statediagram"
	ProjectConfigFile = "config.yaml"
)

// LoadConfig layers configuration onto Default() and validates the result.
// Later layers win:
//
//	$XDG_CONFIG_HOME/statediagram/config.yaml (or ~/.config/...)
//	.statediagram/config.yaml
//	--config file or STATEDIAGRAM_CONFIG, which must exist
//	STATEDIAGRAM_* environment variables and bound flags
//
// The first two layers are optional.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := Default()

	defaults, err := structToMap(cfg)
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, err
	}

	for _, path := range layerPaths() {
		if err := mergeFile(v, path, false); err != nil {
			return nil, err
		}
	}
	if explicit := v.GetString("config"); explicit != "" {
		if err := mergeFile(v, explicit, true); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg, viperDecodeHook()); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// layerPaths lists the optional config files in merge order.
func layerPaths() []string {
	paths := make([]string, 0, 2)
	if dir := userConfigDir(); dir != "" {
		paths = append(paths, filepath.Join(dir, GlobalConfigDir, GlobalConfigFile))
	}
	return append(paths, filepath.Join(ProjectConfigDir, ProjectConfigFile))
}

func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// mergeFile reads a YAML file into v. A missing file is an error only when
// required is set.
func mergeFile(v *viper.Viper, path string, required bool) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	layer := viper.New()
	layer.SetConfigType("yaml")
	if err := layer.ReadConfig(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return v.MergeConfigMap(layer.AllSettings())
}

// viperDecodeHook accepts durations as bare milliseconds or Go syntax, and
// comma separated lists.
func viperDecodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		millisecondsHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// structToMap flattens cfg into the map form viper merges.
func structToMap(cfg *Config) (map[string]any, error) {
	result := make(map[string]any)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  &result,
		DecodeHook: durationToStringHook(),
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}
	return result, nil
}

// durationToStringHook keeps durations in the "1m30s" form viper parses back.
func durationToStringHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data any) (any, error) {
		if from != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return data.(time.Duration).String(), nil
	}
}

// millisecondsHook decodes bare numbers into durations as milliseconds, so
// "dom-wait: 500" means half a second.
func millisecondsHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Millisecond, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return time.Duration(reflect.ValueOf(data).Uint()) * time.Millisecond, nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Millisecond)), nil
		case reflect.String:
			if n, err := strconv.ParseInt(data.(string), 10, 64); err == nil {
				return time.Duration(n) * time.Millisecond, nil
			}
		}
		return data, nil
	}
}

// ParseDuration parses a duration the way config files do: a bare integer
// is milliseconds, anything else uses time.ParseDuration syntax.
func ParseDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}
