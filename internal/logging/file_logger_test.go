package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLogger_WritesJSONLines(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "mirrorctl.log")

	logger, err := NewFileLogger(FileLoggerConfig{
		FilePath: logPath,
		Level:    DEBUG,
	})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	logger.Info("sync started", F("package", "left-pad"), F("attempt", 1))
	logger.Error("sync failed", F("package", "left-pad"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	file, err := os.Open(logPath)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "INFO" || entries[0].Message != "sync started" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[0].Fields["package"] != "left-pad" {
		t.Errorf("Expected package field, got %v", entries[0].Fields)
	}
	if entries[1].Level != "ERROR" {
		t.Errorf("Expected ERROR entry, got %+v", entries[1])
	}
}

func TestFileLogger_RespectsLevel(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "mirrorctl.log")

	logger, err := NewFileLogger(FileLoggerConfig{
		FilePath: logPath,
		Level:    WARN,
	})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	content := string(data)
	if strings.Contains(content, "debug message") || strings.Contains(content, "info message") {
		t.Errorf("Messages below WARN were written: %s", content)
	}
	if !strings.Contains(content, "warn message") {
		t.Errorf("Expected warn message, got: %s", content)
	}
}

func TestFileLogger_Rotation(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "mirrorctl.log")

	logger, err := NewFileLogger(FileLoggerConfig{
		FilePath:      logPath,
		Level:         DEBUG,
		MaxFileSize:   64,
		RotateEnabled: true,
	})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	for i := 0; i < 10; i++ {
		logger.Info("a fairly long log message to exceed the rotation threshold quickly")
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	matches, err := filepath.Glob(logPath + ".*")
	if err != nil {
		t.Fatalf("Glob error: %v", err)
	}
	if len(matches) == 0 {
		t.Error("Expected at least one rotated log file")
	}
}

func TestFileLogger_CreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "dir", "mirrorctl.log")

	logger, err := NewFileLogger(FileLoggerConfig{
		FilePath: logPath,
		Level:    INFO,
	})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	t.Cleanup(func() {
		logger.Close()
	})

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Log file was not created in nested directory")
	}
}
