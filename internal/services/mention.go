package services

import (
	"regexp"
	"strings"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractMentions returns the distinct @handles in content, compared
// case-insensitively, in order of first appearance. Each handle keeps the
// spelling of its first occurrence.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	handles := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		key := strings.ToLower(m[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		handles = append(handles, m[1])
	}
	return handles
}
