// Package testhelpers holds shared helpers for package tests.
package testhelpers

import (
	"github.com/prehisle/ydms-sub001/internal/logger"
)

// NewTestLogger creates a logger suitable for testing (discards output).
func NewTestLogger() logger.Logger {
	return logger.NewNopLogger()
}
