package ai

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ClassTable maps model class indices to names. It is built once at startup and
// shared read-only by every detector.
type ClassTable []string

// LoadClassNames reads one class name per line, skipping blank lines.
func LoadClassNames(path string) (ClassTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class names file: %w", err)
	}
	defer file.Close()

	var classes ClassTable
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		classes = append(classes, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read class names: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("class names file %s is empty", path)
	}
	return classes, nil
}

// Name returns the label for classID, or a placeholder for ids outside the table.
func (c ClassTable) Name(classID int) string {
	if classID >= 0 && classID < len(c) {
		return c[classID]
	}
	return fmt.Sprintf("unknown%d", classID)
}
