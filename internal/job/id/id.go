// Package id provides unique identifier generation for hook jobs.
package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefix starts every hook job ID.
const Prefix = "hook"

// Generate creates a new unique job ID.
// Format: hook-<timestamp>-<random>
// Example: hook-1701432000-a1b2c3d4
func Generate() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", Prefix, time.Now().Unix(), random)
}
