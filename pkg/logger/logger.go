package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level representa o nível de log
type Level int

const (
	// DEBUG nível para mensagens detalhadas de depuração
	DEBUG Level = iota
	// INFO nível para informações gerais
	INFO
	// WARN nível para avisos
	WARN
	// ERROR nível para erros
	ERROR
	// FATAL nível para erros fatais (encerra o programa)
	FATAL
)

var (
	// Nível mínimo de log (compartilhado por todos os cores)
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	// Formato de saída: "console" ou "json"
	format = "console"

	// Arquivos de log abertos por EnableFileLogging
	fileOutput    *os.File
	fileOutputErr *os.File

	base  *zap.Logger
	sugar *zap.SugaredLogger

	mu          sync.Mutex
	initialized = false
)

// Init inicializa o logger com saída no terminal
func Init() {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return
	}

	rebuild(zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
	initialized = true
}

// SetFormat define o formato de saída ("console" ou "json")
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()

	if f != "json" {
		f = "console"
	}
	format = f
	if initialized {
		rebuild(zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
	}
}

// SetLevel define o nível mínimo de log
func SetLevel(level Level) {
	atomicLevel.SetLevel(toZapLevel(level))
}

// ParseLevel converte "debug", "info", "warn" ou "error" em Level
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DEBUG
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// GetLevel retorna o nível atual de log
func GetLevel() Level {
	switch atomicLevel.Level() {
	case zapcore.DebugLevel:
		return DEBUG
	case zapcore.WarnLevel:
		return WARN
	case zapcore.ErrorLevel:
		return ERROR
	case zapcore.FatalLevel:
		return FATAL
	default:
		return INFO
	}
}

// IsDebugEnabled verifica se o nível de debug está habilitado
func IsDebugEnabled() bool {
	return GetLevel() <= DEBUG
}

// EnableFileLogging habilita o log para arquivo, mantendo a saída no terminal
func EnableFileLogging(logDir, prefix string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("erro ao criar diretório de log: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	if prefix != "" {
		prefix = prefix + "_"
	}

	logFilePath := filepath.Join(logDir, fmt.Sprintf("%s%s.log", prefix, timestamp))
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("erro ao criar arquivo de log: %w", err)
	}

	errFilePath := filepath.Join(logDir, fmt.Sprintf("%s%s_error.log", prefix, timestamp))
	errFile, err := os.OpenFile(errFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logFile.Close()
		return fmt.Errorf("erro ao criar arquivo de log de erro: %w", err)
	}

	closeFiles()
	fileOutput = logFile
	fileOutputErr = errFile

	rebuild(
		zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), zapcore.AddSync(logFile)),
		zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stderr), zapcore.AddSync(errFile)),
	)
	initialized = true

	sugar.Info("Logging iniciado")
	return nil
}

// Sync descarrega os buffers do zap e fecha os arquivos de log
func Sync() {
	mu.Lock()
	defer mu.Unlock()

	if base != nil {
		_ = base.Sync()
	}
	closeFiles()
}

// GetLogger retorna o *zap.Logger subjacente para pacotes que usam campos estruturados
func GetLogger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if base == nil {
		return zap.NewNop()
	}
	return base
}

// rebuild recria o logger com as saídas informadas. Deve ser chamado com mu travado.
func rebuild(out, errOut zapcore.WriteSyncer) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	// Erros vão para a saída de erro, o restante para a saída normal
	belowError := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return atomicLevel.Enabled(l) && l < zapcore.ErrorLevel
	})
	fromError := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return atomicLevel.Enabled(l) && l >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, out, belowError),
		zapcore.NewCore(encoder.Clone(), errOut, fromError),
	)

	base = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	sugar = base.Sugar()
}

func closeFiles() {
	if fileOutput != nil {
		fileOutput.Close()
		fileOutput = nil
	}
	if fileOutputErr != nil {
		fileOutputErr.Close()
		fileOutputErr = nil
	}
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case FATAL:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// current retorna o sugared logger, criando um de fallback se Init não foi chamado
func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()

	if sugar == nil {
		rebuild(zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
	}
	return sugar
}

// Debug escreve mensagem de log com nível DEBUG
func Debug(msg string) {
	current().Debug(msg)
}

// Debugf escreve mensagem de log formatada com nível DEBUG
func Debugf(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Info escreve mensagem de log com nível INFO
func Info(msg string) {
	current().Info(msg)
}

// Infof escreve mensagem de log formatada com nível INFO
func Infof(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Warn escreve mensagem de log com nível WARN
func Warn(msg string) {
	current().Warn(msg)
}

// Warnf escreve mensagem de log formatada com nível WARN
func Warnf(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Error escreve mensagem de log com nível ERROR
func Error(msg string, err error) {
	if err != nil {
		current().Errorw(msg, "error", err)
	} else {
		current().Error(msg)
	}
}

// Errorf escreve mensagem de log formatada com nível ERROR
func Errorf(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// Fatal escreve mensagem de log com nível FATAL e encerra o programa
func Fatal(msg string, err error) {
	if err != nil {
		current().Fatalw(msg, "error", err)
	} else {
		current().Fatal(msg)
	}
}

// Fatalf escreve mensagem de log formatada com nível FATAL e encerra o programa
func Fatalf(format string, args ...interface{}) {
	current().Fatalf(format, args...)
}
