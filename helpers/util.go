package helpers

import "strings"

// FirstSegment returns the part of target before the earliest of the separators
func FirstSegment(target string, separators ...string) string {
	cut := len(target)
	for _, sep := range separators {
		if sep == "" {
			continue
		}
		if i := strings.Index(target, sep); i >= 0 && i < cut {
			cut = i
		}
	}
	return target[:cut]
}
