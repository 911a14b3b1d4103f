package twcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/basewarphq/bwcss/bwtailwind"
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap/zapcore"
)

const configFile = "bwcss.toml"

const (
	DefaultInputCSS = "assets/styles/app.css"
	DefaultVarDir   = "var/tailwind"
)

type Config struct {
	Root          string        `toml:"-"`
	InputCSS      []string      `toml:"input_css" validate:"min=1,dive,required"`
	VarDir        string        `toml:"var_dir" validate:"required"`
	Binary        string        `toml:"binary" env:"BWCSS_BINARY"`
	BinaryVersion string        `toml:"binary_version" env:"BWCSS_BINARY_VERSION" validate:"omitempty,startswith=v"`
	ConfigFile    string        `toml:"config_file" validate:"required"`
	PostCSSConfig string        `toml:"postcss_config" env:"BWCSS_POSTCSS_CONFIG"`
	LogLevel      zapcore.Level `toml:"log_level" env:"BWCSS_LOG_LEVEL"`
	Verbose       bool          `toml:"verbose" env:"BWCSS_VERBOSE"`
}

// Builder returns the build configuration for bwtailwind.New.
func (c *Config) Builder() bwtailwind.Config {
	return bwtailwind.Config{
		ProjectDir:    c.Root,
		InputCSS:      c.InputCSS,
		VarDir:        c.VarDir,
		BinaryPath:    c.Binary,
		BinaryVersion: c.BinaryVersion,
		ConfigFile:    c.ConfigFile,
		PostCSSConfig: c.PostCSSConfig,
	}
}

func (c *Config) VarDirPath() string {
	return filepath.Join(c.Root, c.VarDir)
}

// Load finds bwcss.toml in the working directory or one of its parents.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindRoot(wd)
	if err != nil {
		return nil, err
	}
	return LoadDir(root)
}

// LoadDir reads bwcss.toml from root, applies environment overrides and
// validates the result.
func LoadDir(root string) (*Config, error) {
	cfg := Config{
		InputCSS:   []string{DefaultInputCSS},
		VarDir:     DefaultVarDir,
		ConfigFile: bwtailwind.DefaultConfigFile,
	}
	md, err := toml.DecodeFile(filepath.Join(root, configFile), &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", configFile)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Newf("unknown keys in %s: %v", configFile, undecoded)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}

	cfg.Root = root

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", configFile)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
		return name
	})

	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			msgs := make([]string, 0, len(validationErrs))
			for _, e := range validationErrs {
				msgs = append(msgs, formatValidationError(e))
			}
			return errors.Newf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	if filepath.IsAbs(c.VarDir) {
		return errors.Newf("var_dir must be relative, got %q", c.VarDir)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "min":
		return fmt.Sprintf("%s needs at least %s entry", e.Field(), e.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q (got %q)", e.Field(), e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation %q", e.Field(), e.Tag())
	}
}

// FindRoot walks up from dir to the first directory containing bwcss.toml.
func FindRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, configFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Newf("could not find %s in any parent directory", configFile)
		}
		dir = parent
	}
}
