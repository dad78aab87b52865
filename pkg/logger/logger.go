package logger

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 按配置创建日志器；format 为 json 或 console，output 为 stdout、stderr 或文件路径
func New(level string, format string, output string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	sink, err := sinkFor(output)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoderFor(format), sink, lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.DPanicLevel)), nil
}

func encoderFor(format string) zapcore.Encoder {
	if format == "json" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func sinkFor(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", output)
	}
	return zapcore.AddSync(f), nil
}

// ErrorWithStack 返回错误及其完整堆栈字段，只用于服务端日志
func ErrorWithStack(err error) []zap.Field {
	if err == nil {
		return nil
	}
	return []zap.Field{zap.Error(err), zap.String("stack", stackOf(err))}
}

// NewNop CLI 和测试使用的空日志器
func NewNop() *zap.Logger {
	return zap.NewNop()
}
