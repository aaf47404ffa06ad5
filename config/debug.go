package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// CheckDebug reports whether RELAY_DEBUG is set to a truthy value.
func CheckDebug() bool {
	v := strings.ToLower(os.Getenv("RELAY_DEBUG"))
	return v == "1" || v == "true" || v == "yes"
}

// InitDebugLog enables debug logging to <dataDir>/relay-debug.log when
// RELAY_DEBUG is set. Falls back to stderr if the file can't be opened.
func InitDebugLog(dataDir string) {
	Debug = CheckDebug()
	if !Debug {
		return
	}

	flags := log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		DebugLog = log.New(os.Stderr, "", flags)
		return
	}

	logPath := filepath.Join(dataDir, "relay-debug.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		DebugLog = log.New(os.Stderr, "", flags)
		return
	}

	DebugLog = log.New(f, "", flags)
	DebugLog.Printf("=== Debug logging started (RELAY_DEBUG=%s) ===", os.Getenv("RELAY_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}
