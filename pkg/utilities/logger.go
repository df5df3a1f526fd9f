package utilities

import (
	"fmt"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig controls the process logger. An empty Level means debug in dev
// mode and info otherwise. File is a strftime pattern; when set, JSON
// entries are also written to rotating files.
type LogConfig struct {
	Level        string        `env:"LOG_LEVEL"`
	Dev          bool          `env:"LOG_DEV" envDefault:"false"`
	File         string        `env:"LOG_FILE"`
	FileMaxAge   time.Duration `env:"LOG_FILE_MAX_AGE" envDefault:"168h"`
	FileRotation time.Duration `env:"LOG_FILE_ROTATION" envDefault:"24h"`
}

func levelFromString(l string) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (c LogConfig) level() zapcore.Level {
	if c.Level == "" {
		if c.Dev {
			return zapcore.DebugLevel
		}
		return zapcore.InfoLevel
	}
	return levelFromString(c.Level)
}

// Init initializes and returns a *zap.Logger
func Init(cfg LogConfig) (*zap.Logger, error) {
	lvl := cfg.level()
	if cfg.Dev {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(os.Stdout), lvl)

	if cfg.File != "" {
		w, err := rotatingWriter(cfg)
		if err != nil {
			return nil, err
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), lvl)
		core = zapcore.NewTee(core, fileCore)
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	return zap.New(core, opts...), nil
}

func rotatingWriter(cfg LogConfig) (*rotatelogs.RotateLogs, error) {
	opts := []rotatelogs.Option{}
	if cfg.FileMaxAge > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(cfg.FileMaxAge))
	}
	if cfg.FileRotation > 0 {
		opts = append(opts, rotatelogs.WithRotationTime(cfg.FileRotation))
	}
	w, err := rotatelogs.New(cfg.File, opts...)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", cfg.File, err)
	}
	return w, nil
}
