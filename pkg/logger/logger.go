package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	// Leveled loggers. They write to stdout until SetupLogger adds the daily file.
	InfoLogger    = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarningLogger = log.New(os.Stdout, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger   = log.New(os.Stdout, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	setupMu sync.Mutex
)

// SetupLogger sends every level to stdout and to logs/<date>.log
func SetupLogger() error {
	return SetupLoggerInDir("logs")
}

// SetupLoggerInDir is SetupLogger with an explicit log directory
func SetupLoggerInDir(logDir string) error {
	setupMu.Lock()
	defer setupMu.Unlock()

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	logFileName := filepath.Join(logDir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, logFile)

	InfoLogger.SetOutput(multiWriter)
	WarningLogger.SetOutput(multiWriter)
	ErrorLogger.SetOutput(multiWriter)

	return nil
}

// SetOutput redirects all levels, mainly for tests
func SetOutput(w io.Writer) {
	setupMu.Lock()
	defer setupMu.Unlock()

	InfoLogger.SetOutput(w)
	WarningLogger.SetOutput(w)
	ErrorLogger.SetOutput(w)
}

// Info 记录信息级别的日志
func Info(format string, v ...interface{}) {
	InfoLogger.Output(2, fmt.Sprintf(format, v...))
}

// Warning 记录警告级别的日志
func Warning(format string, v ...interface{}) {
	WarningLogger.Output(2, fmt.Sprintf(format, v...))
}

// Error 记录错误级别的日志
func Error(format string, v ...interface{}) {
	ErrorLogger.Output(2, fmt.Sprintf(format, v...))
}
