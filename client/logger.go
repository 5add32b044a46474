package client

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 全局 SugaredLogger；InitLogger 之前为 Nop，测试里保持静默
var Log = zap.NewNop().Sugar()

// LoggerOptions 日志输出目标
// File 为空时不写文件；Console 非空时同时输出到该 Writer（终端不画棋盘时用 stderr）
type LoggerOptions struct {
	File    string
	Level   string
	Console io.Writer
}

var logEncoderConfig = zapcore.EncoderConfig{
	TimeKey:       "ts",
	LevelKey:      "level",
	CallerKey:     "caller",
	MessageKey:    "msg",
	StacktraceKey: "stack",
	LineEnding:    zapcore.DefaultLineEnding,
	EncodeLevel:   zapcore.CapitalLevelEncoder,
	EncodeTime:    zapcore.ISO8601TimeEncoder,
	EncodeCaller:  zapcore.ShortCallerEncoder,
}

// InitLogger 按选项组装 zap core 并替换全局 Log
func InitLogger(opts LoggerOptions) error {
	lvl, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}
	enc := zapcore.NewConsoleEncoder(logEncoderConfig)

	var cores []zapcore.Core
	if opts.File != "" {
		rotate := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    5, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(rotate), lvl))
	}
	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.Lock(zapcore.AddSync(opts.Console)), lvl))
	}
	if len(cores) == 0 {
		return fmt.Errorf("no log output configured")
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
	return nil
}

// SyncLogger 刷新缓冲
func SyncLogger() {
	_ = Log.Sync()
}
