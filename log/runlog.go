package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const RunLogTimeLayout = "[2006-01-02 15:04:05]"

// 追加写入的任务日志文件，每行格式为 "[时间] 消息"
type RunLog struct {
	f *os.File
	l *zap.Logger
}

func OpenRunLog(path string) (r *RunLog, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	encCfg := zapcore.EncoderConfig{
		TimeKey:          "T",
		MessageKey:       "M",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(RunLogTimeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zap.DebugLevel)
	r = &RunLog{f: f, l: zap.New(core)}
	return
}

func (r *RunLog) Log(msg string) {
	r.l.Info(msg)
}

func (r *RunLog) Close() error {
	_ = r.l.Sync()
	return r.f.Close()
}
