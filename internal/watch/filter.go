package watch

import (
	"path/filepath"
	"strings"
)

// isEditorArtifact reports paths that editors create transiently while
// saving. They never settle into copyable files.
func isEditorArtifact(path string) bool {
	base := filepath.Base(path)

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "4913" // vim write probe
}
