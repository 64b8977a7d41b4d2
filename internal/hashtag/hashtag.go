// Package hashtag pulls #tags out of post content.
package hashtag

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`#\w+`)

// Extract returns every #tag in content, lower-cased, in the order they
// appear. Repeated tags are kept.
func Extract(content string) []string {
	found := tagRe.FindAllString(content, -1)
	tags := make([]string, 0, len(found))
	for _, t := range found {
		tags = append(tags, strings.ToLower(t))
	}
	return tags
}
