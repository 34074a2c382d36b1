package orchestrator

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Timeout constants for different operations
var (
	// DefaultWorkflowTimeout bounds a whole bump, hooks included
	DefaultWorkflowTimeout = getTimeoutOrDefault("VERBUMP_WORKFLOW_TIMEOUT", 60*time.Minute, 5*time.Second)
	// RollbackTimeout is the timeout for rollback operations
	RollbackTimeout = getTimeoutOrDefault("VERBUMP_ROLLBACK_TIMEOUT", 2*time.Minute, 100*time.Millisecond)
	// DefaultRetryCount is the standard number of retries for operations
	DefaultRetryCount = uint64(getRetryCountOrDefault("VERBUMP_RETRY_COUNT", 3, 1))
	// DefaultRetryDelay is the initial delay for exponential backoff
	DefaultRetryDelay = getTimeoutOrDefault("VERBUMP_RETRY_DELAY", 200*time.Millisecond, 10*time.Millisecond)
)

// isTestEnvironment detects if we're running in a test environment
func isTestEnvironment() bool {
	for _, arg := range os.Args {
		if strings.HasSuffix(arg, ".test") || strings.Contains(arg, "-test.") {
			return true
		}
	}
	return os.Getenv("GO_TEST") == "true" || os.Getenv("TEST_MODE") == "true"
}

// getTimeoutOrDefault returns production timeout or test timeout based on environment
func getTimeoutOrDefault(envVar string, prodDefault, testDefault time.Duration) time.Duration {
	if env := os.Getenv(envVar); env != "" {
		if duration, err := time.ParseDuration(env); err == nil {
			return duration
		}
	}
	if isTestEnvironment() {
		return testDefault
	}
	return prodDefault
}

// getRetryCountOrDefault returns production retry count or test retry count based on environment
func getRetryCountOrDefault(envVar string, prodDefault, testDefault int) int {
	if env := os.Getenv(envVar); env != "" {
		if count, err := strconv.Atoi(env); err == nil && count >= 0 {
			return count
		}
	}
	if isTestEnvironment() {
		return testDefault
	}
	return prodDefault
}
