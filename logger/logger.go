package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota // 调试信息（最详细）
	INFO                  // 一般信息（正常运行信息）
	WARN                  // 警告信息（需要注意但不影响运行）
	ERROR                 // 错误信息（需要关注的问题）
	FATAL                 // 致命错误（程序无法继续）
)

// Fields 结构化日志字段
type Fields = logrus.Fields

// Config 日志配置
type Config struct {
	Level      string // debug, info, warn, error
	File       string // 日志文件路径（为空则只输出到控制台）
	MaxSizeMB  int    // 单个日志文件最大大小（MB）
	MaxBackups int    // 保留的旧日志文件数量
	MaxAgeDays int    // 保留旧日志文件的天数
	Compress   bool   // 是否压缩旧日志文件
}

var (
	mu         sync.RWMutex
	base       = newLogrus(os.Stdout)
	fileWriter *lumberjack.Logger

	// 时区相关
	globalLocation = time.Local
	locationMu     sync.RWMutex

	// SQLite 日志存储（通过函数指针避免循环依赖）
	logStorageWriter func(level, message string)
	logStorageMu     sync.RWMutex

	// Fatal 退出前依次执行
	exitHooks   []func()
	exitHooksMu sync.Mutex
	exit        = os.Exit
)

func newLogrus(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&locationFormatter{inner: &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	}})
	l.AddHook(storageHook{})
	return l
}

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	case FATAL:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLogLevel 解析日志级别字符串
func ParseLogLevel(level string) LogLevel {
	level = strings.ToUpper(strings.TrimSpace(level))
	switch level {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO // 默认INFO级别
	}
}

// Init 初始化日志系统：控制台 + 可选的轮转文件
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	writers := []io.Writer{os.Stdout}

	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("创建日志文件夹失败: %w", err)
		}
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, fileWriter)
	}

	base.SetOutput(io.MultiWriter(writers...))
	base.SetLevel(ParseLogLevel(cfg.Level).logrusLevel())
	return nil
}

// SetOutput 替换输出（测试使用）
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(w)
}

// SetLevel 设置全局日志级别
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	base.SetLevel(level.logrusLevel())
}

// GetLevel 获取全局日志级别
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	switch base.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return DEBUG
	case logrus.WarnLevel:
		return WARN
	case logrus.ErrorLevel:
		return ERROR
	case logrus.FatalLevel, logrus.PanicLevel:
		return FATAL
	default:
		return INFO
	}
}

// SetLocation 设置全局日志时区
func SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	locationMu.Lock()
	defer locationMu.Unlock()
	globalLocation = loc
}

// InitLogStorage 初始化日志存储（通过函数指针避免循环依赖）
func InitLogStorage(writer func(level, message string)) {
	logStorageMu.Lock()
	defer logStorageMu.Unlock()
	logStorageWriter = writer
}

// RegisterExitHook 注册 Fatal 退出前执行的清理函数（如刷新日志存储）
func RegisterExitHook(fn func()) {
	exitHooksMu.Lock()
	defer exitHooksMu.Unlock()
	exitHooks = append(exitHooks, fn)
}

func runExitHooks() {
	exitHooksMu.Lock()
	hooks := exitHooks
	exitHooks = nil
	exitHooksMu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// Close 关闭文件日志（程序退出时调用）
func Close() {
	mu.Lock()
	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
	base.SetOutput(os.Stdout)
	mu.Unlock()

	InitLogStorage(nil)
}

// WithFields 返回带结构化字段的日志条目
func WithFields(fields Fields) *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return base.WithFields(fields)
}

func logf(level LogLevel, format string, args ...interface{}) {
	mu.RLock()
	l := base
	mu.RUnlock()
	l.Logf(level.logrusLevel(), format, args...)
}

// Debug 输出调试日志
func Debug(format string, args ...interface{}) {
	logf(DEBUG, format, args...)
}

// Info 输出一般信息日志
func Info(format string, args ...interface{}) {
	logf(INFO, format, args...)
}

// Warn 输出警告日志
func Warn(format string, args ...interface{}) {
	logf(WARN, format, args...)
}

// Error 输出错误日志
func Error(format string, args ...interface{}) {
	logf(ERROR, format, args...)
}

// Fatal 输出致命错误日志并退出程序
func Fatal(format string, args ...interface{}) {
	logf(FATAL, format, args...)
	runExitHooks()
	exit(1)
}

// locationFormatter 按配置时区输出时间戳
type locationFormatter struct {
	inner logrus.Formatter
}

func (f *locationFormatter) Format(e *logrus.Entry) ([]byte, error) {
	locationMu.RLock()
	loc := globalLocation
	locationMu.RUnlock()
	e.Time = e.Time.In(loc)
	return f.inner.Format(e)
}

// storageHook 把日志同步给 SQLite 存储；写入端自身是非阻塞的
type storageHook struct{}

func (storageHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (storageHook) Fire(e *logrus.Entry) error {
	logStorageMu.RLock()
	writer := logStorageWriter
	logStorageMu.RUnlock()
	if writer == nil {
		return nil
	}

	message := e.Message
	if len(e.Data) > 0 {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		sb.WriteString(message)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, e.Data[k])
		}
		message = sb.String()
	}
	writer(levelName(e.Level), message)
	return nil
}

func levelName(l logrus.Level) string {
	switch l {
	case logrus.TraceLevel, logrus.DebugLevel:
		return DEBUG.String()
	case logrus.InfoLevel:
		return INFO.String()
	case logrus.WarnLevel:
		return WARN.String()
	case logrus.ErrorLevel:
		return ERROR.String()
	default:
		return FATAL.String()
	}
}
