package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUniqueID returns a process-unique identifier used to tag detection
// requests in logs.
func GenerateUniqueID() string {
	return uuid.NewString()
}

// GenerateAPIKey returns a fresh API key suitable for handing to a client.
func GenerateAPIKey() string {
	return "vd_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
