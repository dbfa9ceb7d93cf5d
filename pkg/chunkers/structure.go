package chunkers

import (
	"regexp"
	"strings"
)

var (
	sectionHeadingRegex    = regexp.MustCompile(`^#\s+(.+)$`)
	subsectionHeadingRegex = regexp.MustCompile(`^##\s+(.+)$`)
)

// DetectSectionStructure scans markdown line by line and maps each top-level
// section title to its subsection titles. A subsection heading seen before
// any section heading has nothing to attach to and is dropped; re-opening a
// section title starts its list over. Headings deeper than two levels are
// ignored. Text without any section heading yields the single fallback entry.
func DetectSectionStructure(text string) map[string][]string {
	structure := make(map[string][]string)
	currentSection := ""
	haveSection := false

	for _, line := range strings.Split(text, "\n") {
		if match := sectionHeadingRegex.FindStringSubmatch(line); match != nil {
			currentSection = strings.TrimSpace(match[1])
			structure[currentSection] = []string{}
			haveSection = true
			continue
		}
		if match := subsectionHeadingRegex.FindStringSubmatch(line); match != nil && haveSection {
			title := strings.TrimSpace(match[1])
			structure[currentSection] = append(structure[currentSection], title)
		}
	}

	if len(structure) == 0 {
		structure[FallbackSection] = []string{}
	}

	return structure
}
