package metrics

import (
	"fmt"
	"log"
	"os"
	"path"
)

type Logger interface {
	Log(info *RunInfo)
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *RunInfo) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

const defaultMaxLogFileSize = 64 * 1024 * 1024
const defaultMaxLogFiles = 10

// FileLogger appends one JSON record per pipeline run to a log file under
// LogDir, rotating by size. Writes are synchronous, batch runs log a handful
// of records so there is no queue.
type FileLogger struct {
	LogDir         string
	MaxLogFileSize int64
	MaxLogFiles    int
	Verbose        bool
}

func NewFileLogger(logDir string, maxLogFileSize int64, maxLogFiles int, verbose bool) *FileLogger {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	if maxLogFiles <= 0 {
		maxLogFiles = defaultMaxLogFiles
	}
	return &FileLogger{
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		MaxLogFiles:    maxLogFiles,
		Verbose:        verbose,
	}
}

func (l *FileLogger) Log(info *RunInfo) {
	infoStr, err := info.ToJSON()
	if err != nil {
		log.Printf("FileLogger: info.ToJSON() error: %v", err)
		return
	}

	f, err := l.openLogFile()
	if err != nil {
		log.Printf("FileLogger: log open error: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(infoStr); err != nil {
		log.Printf("FileLogger: write error: %v", err)
		return
	}
	f.Sync()

	if err := l.tryRotateLogFile(f); err != nil {
		log.Printf("FileLogger: log rotation error: %v", err)
	}
}

func (l *FileLogger) openLogFile() (*os.File, error) {
	logFilePath := path.Join(l.LogDir, "log")
	return os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (l *FileLogger) tryRotateLogFile(currFile *os.File) error {
	info, err := currFile.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.MaxLogFileSize {
		return nil
	}

	currLogFilePath := path.Join(l.LogDir, "log")
	var rotatedLogFilePath string
	for i := 0; i < l.MaxLogFiles; i++ {
		filePath := path.Join(l.LogDir, fmt.Sprintf("log.%d", i))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			rotatedLogFilePath = filePath
			break
		}
	}
	if len(rotatedLogFilePath) == 0 {
		// All rotation slots taken, overwrite the first one.
		rotatedLogFilePath = path.Join(l.LogDir, "log.0")
		if err := os.Remove(rotatedLogFilePath); err != nil {
			return err
		}
	}

	if err := os.Rename(currLogFilePath, rotatedLogFilePath); err != nil {
		return err
	}
	if l.Verbose {
		log.Printf("FileLogger: log file rotated: %v", rotatedLogFilePath)
	}
	return nil
}
