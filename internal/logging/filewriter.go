package logging

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWriter is a buffered, self-rotating io.Writer, adapted from the
// teacher's internal/logger.FileWriter: any existing file is rotated
// on startup, writes are buffered, and a background goroutine flushes
// periodically so a crash loses at most one flush interval.
type FileWriter struct {
	filePath   string
	maxBackups int

	file   *os.File
	writer *bufio.Writer

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// FileWriterConfig configures a FileWriter.
type FileWriterConfig struct {
	FilePath   string
	MaxBackups int
	BufferSize int
	FlushEvery time.Duration
}

// NewFileWriter opens (rotating any prior file) and returns a FileWriter.
func NewFileWriter(cfg FileWriterConfig) (*FileWriter, error) {
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 5
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 8192
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 3 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if err := rotateOnStartup(cfg.FilePath, cfg.MaxBackups); err != nil {
		return nil, fmt.Errorf("failed to rotate log file: %w", err)
	}

	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fw := &FileWriter{
		filePath:   cfg.FilePath,
		maxBackups: cfg.MaxBackups,
		file:       file,
		writer:     bufio.NewWriterSize(file, cfg.BufferSize),
		done:       make(chan struct{}),
	}

	fw.ticker = time.NewTicker(cfg.FlushEvery)
	fw.wg.Add(1)
	go fw.periodicFlush()

	return fw, nil
}

// Write implements io.Writer so a FileWriter composes with
// io.MultiWriter alongside the console handler's destination.
func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.writer.Write(p)
}

// Flush flushes the buffer to disk.
func (fw *FileWriter) Flush() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.writer.Flush()
}

// Close stops the flush goroutine, flushes, and closes the file.
func (fw *FileWriter) Close() error {
	fw.ticker.Stop()
	close(fw.done)
	fw.wg.Wait()

	if err := fw.Flush(); err != nil {
		return err
	}
	return fw.file.Close()
}

func (fw *FileWriter) periodicFlush() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.ticker.C:
			_ = fw.Flush()
		case <-fw.done:
			return
		}
	}
}

// rotateOnStartup renames a non-empty existing file to the ".1.log"
// backup slot, shifting older backups up to maxBackups.
func rotateOnStartup(filePath string, maxBackups int) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	basePath := filePath
	if ext := filepath.Ext(filePath); ext != "" {
		basePath = filePath[:len(filePath)-len(ext)]
	}

	for i := maxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d.log", basePath, i)
		newPath := fmt.Sprintf("%s.%d.log", basePath, i+1)
		if _, err := os.Stat(oldPath); err == nil {
			os.Rename(oldPath, newPath)
		}
	}

	backupPath := fmt.Sprintf("%s.1.log", basePath)
	return os.Rename(filePath, backupPath)
}
