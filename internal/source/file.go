package source

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// FromFile reads one clone URL per line. Blank lines and '#' comments are
// ignored; order is preserved.
func FromFile(path string) ([]Ref, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repos file: %w", err)
	}
	defer f.Close()

	var refs []Ref
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, Ref{URL: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read repos file: %w", err)
	}
	return refs, nil
}
