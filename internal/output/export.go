package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Export writes each line followed by a newline to <dir>/<name>.txt and returns
// the path written. The file is replaced if it exists.
func Export(dir, name string, lines []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("export name must not be empty")
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, name+".txt")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return "", fmt.Errorf("write export file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, f.Close()
}
