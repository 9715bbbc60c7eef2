// Package config 加载 labelmaker 的运行配置。
//
// 优先级（高到低）：
//  1. 以 LABELMAKER_ 为前缀的环境变量（例如 LABELMAKER_SERVER_ADDR）
//  2. labelmaker.toml
//  3. 内置默认值
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ByLCY/labelmaker/generator"
	"github.com/ByLCY/labelmaker/layout"
	"github.com/ByLCY/labelmaker/logo"
)

// EnvPrefix 是环境变量前缀。
const EnvPrefix = "LABELMAKER"

// DefaultMaxCodes 是网页表单单次请求的默认条码上限。
const DefaultMaxCodes = 500

// Config holds all application configuration.
type Config struct {
	Label  LabelConfig
	Server ServerConfig
	Log    LogConfig
}

// LabelConfig 描述标签样式的来源与输出。
type LabelConfig struct {
	Spec      string  // 标签描述文件路径，为空时使用默认画布
	Logo      string  // logo 文件名，相对路径按程序目录、工作目录依次查找
	NoLogo    bool
	Symbology string  `validate:"omitempty,oneof=code128 code39 code39-full code93"`
	DPI       float64 `validate:"gte=0"`
	FontDir   string
	Output    string `validate:"required"`
	Title     string
}

// ServerConfig 是网页表单服务的配置。
type ServerConfig struct {
	Addr            string        `validate:"required"`
	Mode            string        `validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `validate:"gte=0"`
	WriteTimeout    time.Duration `validate:"gte=0"`
	IdleTimeout     time.Duration `validate:"gte=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	GenerateTimeout time.Duration `validate:"gt=0"`
	MaxBodySize     int64         `validate:"gt=0"`
	MaxCodes        int           `validate:"gte=0"` // 0 表示不限制
	TrustedProxies  []string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json logfmt"`
}

var validate = validator.New()

// Load 读取配置。path 为空时在当前目录与 ~/.config/labelmaker 中查找 labelmaker.toml，找不到不算错误。
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("labelmaker")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/labelmaker")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 未设置时取默认值，显式的 0 表示不限制。
	v.SetDefault("server.max_codes", DefaultMaxCodes)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Label: LabelConfig{
			Spec:      v.GetString("label.spec"),
			Logo:      v.GetString("label.logo"),
			NoLogo:    v.GetBool("label.no_logo"),
			Symbology: strings.ToLower(v.GetString("label.symbology")),
			DPI:       v.GetFloat64("label.dpi"),
			FontDir:   v.GetString("label.font_dir"),
			Output:    v.GetString("label.output"),
			Title:     v.GetString("label.title"),
		},
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			Mode:            v.GetString("server.mode"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			GenerateTimeout: v.GetDuration("server.generate_timeout"),
			MaxBodySize:     v.GetInt64("server.max_body_size"),
			MaxCodes:        v.GetInt("server.max_codes"),
			TrustedProxies:  v.GetStringSlice("server.trusted_proxies"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回只包含默认值的配置，不读取文件与环境变量。
func Default() *Config {
	cfg := &Config{Server: ServerConfig{MaxCodes: DefaultMaxCodes}}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Label.Logo == "" {
		cfg.Label.Logo = logo.DefaultName
	}
	if cfg.Label.DPI == 0 {
		cfg.Label.DPI = 300
	}
	if cfg.Label.Output == "" {
		cfg.Label.Output = generator.FileName
	}
	if cfg.Label.Title == "" {
		cfg.Label.Title = "Activos Fijos Etiquetas"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.GenerateTimeout == 0 {
		cfg.Server.GenerateTimeout = 30 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 1 << 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	for _, section := range []any{c.Label, c.Server, c.Log} {
		if err := validate.Struct(section); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				fields := make([]string, 0, len(verrs))
				for _, fe := range verrs {
					fields = append(fields, fmt.Sprintf("%s(%s=%s)", fe.Namespace(), fe.Tag(), fe.Param()))
				}
				return fmt.Errorf("配置无效: %s", strings.Join(fields, ", "))
			}
			return fmt.Errorf("配置无效: %w", err)
		}
	}
	if c.Server.WriteTimeout > 0 && c.Server.GenerateTimeout > c.Server.WriteTimeout {
		return fmt.Errorf("配置无效: server.generate_timeout (%s) 不能超过 server.write_timeout (%s)",
			c.Server.GenerateTimeout, c.Server.WriteTimeout)
	}
	return nil
}

// LogLevel 返回 charmbracelet/log 的日志级别。
func (l LogConfig) LogLevel() log.Level {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Formatter 返回日志输出格式。
func (l LogConfig) Formatter() log.Formatter {
	switch l.Format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// LabelSpec 读取标签描述文件；未配置时返回默认画布。码制覆盖项在此生效。
func (c *Config) LabelSpec() (*layout.LabelSpec, error) {
	spec := &layout.LabelSpec{
		Name:   "default",
		Canvas: layout.DefaultCanvas(),
	}
	if c.Label.Spec != "" {
		f, err := os.Open(c.Label.Spec)
		if err != nil {
			return nil, fmt.Errorf("打开标签描述失败: %w", err)
		}
		defer f.Close()
		spec, err = layout.ParseSpec(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Label.Spec, err)
		}
	}
	if c.Label.Symbology != "" {
		spec.Canvas.Symbology = c.Label.Symbology
	}
	if spec.Meta.Title == "" || c.Label.Spec == "" {
		spec.Meta.Title = c.Label.Title
	}
	return spec, nil
}

// GeneratorOptions 组合画布、logo 与渲染设置，供 CLI 与网页服务创建 Generator。
func (c *Config) GeneratorOptions(logger *log.Logger) (generator.Options, error) {
	spec, err := c.LabelSpec()
	if err != nil {
		return generator.Options{}, err
	}
	logoPath := c.Label.Logo
	if spec.LogoPath != "" {
		logoPath = spec.LogoPath
	}
	return generator.Options{
		Canvas:   spec.Canvas,
		Meta:     spec.Meta,
		LogoPath: logo.Resolve(logoPath),
		NoLogo:   c.Label.NoLogo || spec.NoLogo,
		DPI:      c.Label.DPI,
		FontDir:  c.Label.FontDir,
		MaxCodes: c.Server.MaxCodes,
		Logger:   logger,
	}, nil
}
