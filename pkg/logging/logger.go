package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Logger      *zap.Logger     // 全局 Logger 实例
	AtomicLevel zap.AtomicLevel // 全局共享日志级别
)

// Options 对应配置文件中的 log.*
type Options struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // 天
	Compress   bool   `mapstructure:"compress"`
	// Console 为 false 时只写文件
	Console bool `mapstructure:"console"`
}

func (o Options) withDefaults() Options {
	if o.Level == "" {
		o.Level = "info"
	}
	if o.Path == "" {
		o.Path = "logs/grouplink.log"
	}
	if o.MaxSize <= 0 {
		o.MaxSize = 10
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 5
	}
	if o.MaxAge <= 0 {
		o.MaxAge = 7
	}
	return o
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006/01/02 - 15:04:05"))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New 构建控制台 + lumberjack 轮转文件两路输出的 logger，返回的 AtomicLevel 可在运行时调整级别
func New(opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	opts = opts.withDefaults()

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	atomic := zap.NewAtomicLevelAt(level)
	encoder := zapcore.NewJSONEncoder(encoderConfig())

	var cores []zapcore.Core
	if opts.Console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), atomic))
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), os.ModePerm); err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("create log directory: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
		LocalTime:  true,
	}
	cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), atomic))

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), atomic, nil
}

// InitLoggerFromConfig 初始化全局 Logger。文件输出不可用时退回只写控制台
func InitLoggerFromConfig(opts Options) {
	logger, level, err := New(opts)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to init file logger, falling back to console: %v\n", err)
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
		if parsed, perr := zapcore.ParseLevel(opts.Level); perr == nil {
			level.SetLevel(parsed)
		}
		logger = zap.New(zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig()),
			zapcore.AddSync(os.Stdout),
			level,
		), zap.AddCaller())
	}

	Logger = logger
	AtomicLevel = level
	zap.ReplaceGlobals(Logger)

	Logger.Info("InitLoggerFromConfig finished", zap.String("level", level.String()))
}
