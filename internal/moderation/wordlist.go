package moderation

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadWordlist reads a line-oriented banned-word list. Blank lines and
// surrounding whitespace are ignored. The list is loaded once at startup and
// never reloaded.
func LoadWordlist(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordlist: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wordlist: %w", err)
	}
	return words, nil
}
