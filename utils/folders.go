package utils

import (
	"fmt"
	"os"
)

// CreateFolder creates folderPath and any missing parents.
func CreateFolder(folderPath string) error {
	if err := os.MkdirAll(folderPath, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create folder %q: %v", folderPath, err)
	}
	return nil
}
