package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read. A double underscore
// separates nested keys: LEAPMODEL_ID_HEURISTIC__NAMES.
const EnvPrefix = "LEAPMODEL_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names whose config key is not the snake_case name.
var flagKeys = map[string]string{
	"state": "state_path",
	"input": "inputs",
}

// pathFlags are flags holding paths, resolved against the working directory.
var pathFlags = []string{"models-dir", "directives-dir", "state"}

// configExistsIn returns the config file in dir, or "".
func configExistsIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindProjectRoot searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if configExistsIn(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Directory of an explicit config file
//  2. Explicit --project-dir flag
//  3. Search upward from CWD for leapmodel.yaml
//  4. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}
	if flags != nil && flags.Changed("project-dir") {
		if dir, _ := flags.GetString("project-dir"); dir != "" {
			if abs, err := filepath.Abs(dir); err == nil {
				return abs
			}
			return filepath.Clean(dir)
		}
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := FindProjectRoot(cwd); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(baseDir, path)
}

func defaults() map[string]any {
	return map[string]any{
		"models_dir":       DefaultModelsDir,
		"directives_dir":   DefaultDirectivesDir,
		"state_path":       DefaultStateFile,
		"history_limit":    DefaultHistoryLimit,
		"max_passes":       DefaultMaxPasses,
		"max_alias_passes": DefaultAliasPasses,
		"verbose":          false,
		"log_format":       DefaultLogFormat,
		"output":           DefaultOutput,
		"watch_debounce":   DefaultWatchDebounce.String(),
	}
}

// Load loads configuration from defaults, the config file, environment
// variables and the explicitly set flags of flags (which may be nil).
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	projectRoot := inferProjectRoot(cfgFile, flags)

	// Paths given as flags are relative to the working directory, not the project root.
	flagPaths := make(map[string]string)
	var flagInputs []string
	if flags != nil {
		for _, name := range pathFlags {
			if flags.Lookup(name) == nil || !flags.Changed(name) {
				continue
			}
			if v, _ := flags.GetString(name); v != "" {
				flagPaths[name], _ = filepath.Abs(v)
			}
		}
		if flags.Lookup("input") != nil && flags.Changed("input") {
			inputs, _ := flags.GetStringSlice("input")
			for _, in := range inputs {
				abs, err := filepath.Abs(in)
				if err != nil {
					abs = in
				}
				flagInputs = append(flagInputs, abs)
			}
		}
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFile := cfgFile
	if configFile == "" {
		configFile = configExistsIn(projectRoot)
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	// 3. Environment variables: LEAPMODEL_MODELS_DIR -> models_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Decode
	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve paths
	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = configFile
	cfg.ModelsDir = pick(flagPaths["models-dir"], resolvePathRelativeTo(cfg.ModelsDir, projectRoot))
	cfg.DirectivesDir = pick(flagPaths["directives-dir"], resolvePathRelativeTo(cfg.DirectivesDir, projectRoot))
	cfg.StatePath = pick(flagPaths["state"], resolvePathRelativeTo(cfg.StatePath, projectRoot))

	if flagInputs != nil {
		cfg.Inputs = flagInputs
	} else {
		for i, in := range cfg.Inputs {
			cfg.Inputs[i] = resolvePathRelativeTo(in, projectRoot)
		}
	}
	if len(cfg.Inputs) == 0 {
		cfg.Inputs = []string{cfg.ModelsDir}
	}

	for i := range cfg.Outputs {
		cfg.Outputs[i].Path = resolvePathRelativeTo(cfg.Outputs[i].Path, projectRoot)
		cfg.Outputs[i].Header = resolvePathRelativeTo(cfg.Outputs[i].Header, projectRoot)
	}

	return &cfg, nil
}

func pick(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return fallback
}
