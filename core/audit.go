package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/driftsec/lakesweep/utils"
)

// AuditLogLevel defines the verbosity of audit logging
type AuditLogLevel string

const (
	// AuditLogLevelMinimal logs only essential scan events
	AuditLogLevelMinimal AuditLogLevel = "minimal"

	// AuditLogLevelStandard logs scan events with moderate detail
	AuditLogLevelStandard AuditLogLevel = "standard"

	// AuditLogLevelVerbose logs all details including sampled content
	AuditLogLevelVerbose AuditLogLevel = "verbose"
)

// AuditLogSeverity defines the severity of audit log events
type AuditLogSeverity string

const (
	// SeverityInfo for normal operations
	SeverityInfo AuditLogSeverity = "info"

	// SeverityWarning for degraded results, e.g. a skipped detector pass
	SeverityWarning AuditLogSeverity = "warning"

	// SeverityError for failed operations
	SeverityError AuditLogSeverity = "error"

	// SeverityCritical for failures that abort a scan
	SeverityCritical AuditLogSeverity = "critical"
)

// AuditLog represents a scan audit log entry
type AuditLog struct {
	// Core fields for traceability
	RequestID    string           `json:"request_id"`
	Timestamp    string           `json:"timestamp"`
	EventType    string           `json:"event_type"`
	ActionSource string           `json:"action_source"` // e.g. "catalog-scan", "object-scan", "tagging"
	Severity     AuditLogSeverity `json:"severity"`

	// Scan context
	ScanID   string `json:"scan_id,omitempty"`
	SourceID string `json:"source_id,omitempty"`
	Region   string `json:"region,omitempty"`

	// Processing information
	Input       string        `json:"input,omitempty"`
	Transformed string        `json:"transformed,omitempty"`
	Matches     []utils.Match `json:"matches,omitempty"`

	// Result fields
	Categories     []PIICategory      `json:"categories,omitempty"`
	Classification DataClassification `json:"classification,omitempty"`
	Metadata       map[string]string  `json:"metadata,omitempty"`
}

// AuditLogger manages JSONL audit logging for scan runs
type AuditLogger struct {
	mu            sync.Mutex
	logPath       string
	level         AuditLogLevel
	writer        io.Writer
	rotationSize  int64 // Size in bytes after which logs should rotate
	currentSize   int64
	logRetention  int // Number of days to retain logs
	initialized   bool
	enableConsole bool
}

// Global default logger
var defaultLogger *AuditLogger
var loggerOnce sync.Once

// GetAuditLogger returns the singleton audit logger instance
func GetAuditLogger() *AuditLogger {
	loggerOnce.Do(func() {
		// Default to writing to audit.log in the current directory
		defaultLogger = &AuditLogger{
			logPath:       "audit.log",
			level:         AuditLogLevelStandard,
			rotationSize:  100 * 1024 * 1024, // 100MB default rotation size
			logRetention:  90,                // 90 days default retention
			enableConsole: true,
		}
		defaultLogger.initialize()
	})

	return defaultLogger
}

// ConfigureLogger configures the audit logger with specific settings
func ConfigureLogger(path string, level AuditLogLevel, rotationSize int64, retention int, enableConsole bool) error {
	logger := GetAuditLogger()

	logger.mu.Lock()
	defer logger.mu.Unlock()

	logger.logPath = path
	logger.level = level
	logger.rotationSize = rotationSize
	logger.logRetention = retention
	logger.enableConsole = enableConsole

	// Re-initialize with new settings
	return logger.initialize()
}

// initialize the logger with current settings
func (l *AuditLogger) initialize() error {
	// Create log directory if it doesn't exist
	dir := filepath.Dir(l.logPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	// Open log file for appending
	f, err := os.OpenFile(l.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	// Get current file size for rotation tracking
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to get log file info: %w", err)
	}

	l.currentSize = info.Size()

	// If console logging is enabled, use a multiwriter
	if l.enableConsole {
		l.writer = io.MultiWriter(f, os.Stdout)
	} else {
		l.writer = f
	}

	l.initialized = true
	return nil
}

// maybeRotateLog checks if log rotation is needed and performs it if so
func (l *AuditLogger) maybeRotateLog() error {
	if l.currentSize >= l.rotationSize {
		// Close current log file
		if closer, ok := l.writer.(io.Closer); ok {
			closer.Close()
		}

		// Rotate log file
		timestamp := time.Now().Format("20060102-150405")
		rotatedPath := fmt.Sprintf("%s.%s", l.logPath, timestamp)

		if err := os.Rename(l.logPath, rotatedPath); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}

		// Cleanup old logs
		l.cleanupOldLogs()

		// Reinitialize logger with new file
		return l.initialize()
	}

	return nil
}

// cleanupOldLogs removes log files older than the retention period
func (l *AuditLogger) cleanupOldLogs() {
	dir := filepath.Dir(l.logPath)
	base := filepath.Base(l.logPath)

	cutoffTime := time.Now().AddDate(0, 0, -l.logRetention)

	files, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			os.Remove(file)
		}
	}
}

// LogEvent logs an audit event with the specified parameters
func (l *AuditLogger) LogEvent(log AuditLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		if err := l.initialize(); err != nil {
			return err
		}
	}

	// Check if rotation is needed
	if err := l.maybeRotateLog(); err != nil {
		return err
	}

	// Set timestamp if not already set
	if log.Timestamp == "" {
		log.Timestamp = time.Now().Format(time.RFC3339Nano)
	}

	// Generate a request ID if not provided
	if log.RequestID == "" {
		log.RequestID = fmt.Sprintf("%d-%x", time.Now().UnixNano(), time.Now().Nanosecond())
	}

	// Apply log level filtering
	if l.level == AuditLogLevelMinimal && log.Severity == SeverityInfo {
		// Skip detailed info logs in minimal mode
		return nil
	}

	// Truncate sampled content in standard mode
	if l.level == AuditLogLevelStandard {
		if len(log.Input) > 100 {
			log.Input = log.Input[:100] + "... [truncated]"
		}
		if len(log.Transformed) > 100 {
			log.Transformed = log.Transformed[:100] + "... [truncated]"
		}
	}

	// In minimal mode, remove content completely
	if l.level == AuditLogLevelMinimal {
		log.Input = "[redacted]"
		log.Transformed = "[redacted]"
	}

	// Convert to JSON
	entry, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	// Write to log file
	n, err := fmt.Fprintln(l.writer, string(entry))
	if err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}

	// Update current size
	l.currentSize += int64(n)

	return nil
}

// LogEvent appends an audit event to audit.log in JSONL format
func LogEvent(log AuditLog) error {
	// Set severity if not set
	if log.Severity == "" {
		log.Severity = SeverityInfo
	}

	// Use the singleton logger
	return GetAuditLogger().LogEvent(log)
}

// LogScanEvent is a helper function to log scan pipeline events
func LogScanEvent(scanID, eventType string, severity AuditLogSeverity, sourceID string, metadata map[string]string) error {
	log := AuditLog{
		Timestamp:    time.Now().Format(time.RFC3339Nano),
		EventType:    eventType,
		ActionSource: "scan",
		Severity:     severity,
		ScanID:       scanID,
		SourceID:     sourceID,
		Metadata:     metadata,
	}

	return GetAuditLogger().LogEvent(log)
}

// LogTaggingEvent is a helper function to log governance tagging events
func LogTaggingEvent(scanID, sourceID string, categories []PIICategory, classification DataClassification, metadata map[string]string) error {
	log := AuditLog{
		Timestamp:      time.Now().Format(time.RFC3339Nano),
		EventType:      "tags_applied",
		ActionSource:   "tagging",
		Severity:       SeverityInfo,
		ScanID:         scanID,
		SourceID:       sourceID,
		Categories:     categories,
		Classification: classification,
		Metadata:       metadata,
	}

	return GetAuditLogger().LogEvent(log)
}
