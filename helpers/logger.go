package helpers

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gitlab.com/aoterocom/AOBacktester/interfaces"
)

type FileLogger struct {
	logger *log.Logger
	mirror interfaces.Notifier
}

func NewFileLogger(output io.Writer) *FileLogger {
	plainFormatter := new(PlainFormatter)
	plainFormatter.TimestampFormat = "2006-01-02 15:04:05"
	plainFormatter.LevelDesc = []string{"PANIC", "FATAL", "ERROR", "WARN", "INFO ", "DEBUG", "TRACE"}
	logger := log.New()
	logger.SetOutput(output)
	logger.SetFormatter(plainFormatter)
	logger.SetLevel(log.InfoLevel)
	return &FileLogger{logger: logger}
}

// Logger starts on stderr so packages can log before InitLogger runs.
var Logger = NewFileLogger(os.Stderr)

// InitLogger points Logger at logFile. The terminal UI owns stdout, so
// diagnostics always go to a file while it runs.
func InitLogger(logFile string, level string) error {
	if logFile == "" {
		logFile = "backtester.log"
	}
	f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening file: %v", err)
	}
	Logger.logger.SetOutput(f)

	if level != "" {
		parsedLevel, err := log.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("error: invalid log level %q", level)
		}
		Logger.logger.SetLevel(parsedLevel)
	}
	return nil
}

// SetMirror forwards every Infoln message to notifier, telegram in practice.
func (l *FileLogger) SetMirror(notifier interfaces.Notifier) {
	l.mirror = notifier
}

func (l *FileLogger) SetOutput(output io.Writer) {
	l.logger.SetOutput(output)
}

func (l *FileLogger) Errorln(args ...interface{}) {
	l.logger.Errorln(args...)
}

func (l *FileLogger) Fatalln(args ...interface{}) {
	l.logger.Fatalln(args...)
}

func (l *FileLogger) Warnln(args ...interface{}) {
	l.logger.Warnln(args...)
}

func (l *FileLogger) Infoln(args ...interface{}) {
	l.logger.Infoln(args...)
	if l.mirror != nil && len(args) > 0 {
		if err := l.mirror.Notify(fmt.Sprint(args...)); err != nil {
			l.logger.Errorln("logger: couldn't mirror message: " + err.Error())
		}
	}
}

func (l *FileLogger) Debugln(args ...interface{}) {
	l.logger.Debugln(args...)
}

type PlainFormatter struct {
	TimestampFormat string
	LevelDesc       []string
}

func (f PlainFormatter) Format(entry *log.Entry) ([]byte, error) {
	timestamp := entry.Time.Format(f.TimestampFormat)
	return []byte(fmt.Sprintf("%s %s %s\n", f.LevelDesc[entry.Level], timestamp, entry.Message)), nil
}
