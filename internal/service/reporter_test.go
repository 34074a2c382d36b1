package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleReporter(t *testing.T) {
	t.Run("Should route messages to the right stream", func(t *testing.T) {
		var out, errOut bytes.Buffer
		reporter := NewConsoleReporter(&out, &errOut)
		reporter.Info("Previous version: 1.2.3")
		reporter.Warning("post-version script failed")
		reporter.Error("preid must be one of: alpha")
		assert.Equal(t, "Previous version: 1.2.3\n", out.String())
		assert.Equal(t, "Warning: post-version script failed\nError: preid must be one of: alpha\n", errOut.String())
	})
}
