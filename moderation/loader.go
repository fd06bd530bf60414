package moderation

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
)

//go:embed censored/*.txt
var dictionaries embed.FS

// LoadDictionary returns the embedded censored word lists, one word per
// line, blank lines and # comments skipped.
func LoadDictionary() ([]string, error) {
	entries, err := dictionaries.ReadDir("censored")
	if err != nil {
		return nil, fmt.Errorf("reading dictionaries: %w", err)
	}

	var words []string
	for _, entry := range entries {
		file, err := dictionaries.Open("censored/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", entry.Name(), err)
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			words = append(words, word)
		}
		if err := scanner.Err(); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("scanning %s: %w", entry.Name(), err)
		}
		_ = file.Close()
	}
	return words, nil
}
