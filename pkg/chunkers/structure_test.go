package chunkers

import (
	"reflect"
	"testing"
)

func TestDetectSectionStructure(t *testing.T) {
	text := `Some preamble text.

# Introduction

Opening words.

## Background

Context here.

# Usage

## Install

## Configure

Details.
`

	structure := DetectSectionStructure(text)

	expected := map[string][]string{
		"Introduction": {"Background"},
		"Usage":        {"Install", "Configure"},
	}

	if !reflect.DeepEqual(structure, expected) {
		t.Errorf("Expected structure %v, got %v", expected, structure)
	}
}

func TestDetectSectionStructureEmpty(t *testing.T) {
	structure := DetectSectionStructure("")

	if len(structure) != 1 {
		t.Fatalf("Expected single fallback entry, got %v", structure)
	}

	subsections, ok := structure[FallbackSection]
	if !ok {
		t.Fatalf("Expected fallback section %q, got %v", FallbackSection, structure)
	}
	if len(subsections) != 0 {
		t.Errorf("Expected no subsections under fallback, got %v", subsections)
	}
}

func TestDetectSectionStructureNoHeadings(t *testing.T) {
	structure := DetectSectionStructure("Plain text.\n\nNo headings anywhere.")

	if len(structure) != 1 {
		t.Fatalf("Expected single fallback entry, got %v", structure)
	}
	if _, ok := structure[FallbackSection]; !ok {
		t.Errorf("Expected fallback section %q, got %v", FallbackSection, structure)
	}
}

func TestDetectSectionStructureOrphanSubsection(t *testing.T) {
	// A subsection heading before any section heading has no parent
	text := "## Orphan\n\n# Section\n\n## Child\n"

	structure := DetectSectionStructure(text)

	expected := map[string][]string{
		"Section": {"Child"},
	}

	if !reflect.DeepEqual(structure, expected) {
		t.Errorf("Expected orphan to be dropped, got %v", structure)
	}
}

func TestDetectSectionStructureDuplicateSection(t *testing.T) {
	// Re-opening a section title starts its subsection list over
	text := "# Notes\n\n## First\n\n# Notes\n\n## Second\n"

	structure := DetectSectionStructure(text)

	expected := map[string][]string{
		"Notes": {"Second"},
	}

	if !reflect.DeepEqual(structure, expected) {
		t.Errorf("Expected duplicate section to reset subsections, got %v", structure)
	}
}

func TestDetectSectionStructureIgnoresDeepHeadings(t *testing.T) {
	text := "# Top\n\n## Mid\n\n### Deep\n\n#### Deeper\n"

	structure := DetectSectionStructure(text)

	expected := map[string][]string{
		"Top": {"Mid"},
	}

	if !reflect.DeepEqual(structure, expected) {
		t.Errorf("Expected deep headings to be ignored, got %v", structure)
	}
}

func TestDetectSectionStructureBareHashes(t *testing.T) {
	// Heading markers without a title are not headings
	text := "#\n\n# \n\n# Real\n"

	structure := DetectSectionStructure(text)

	expected := map[string][]string{
		"Real": {},
	}

	if !reflect.DeepEqual(structure, expected) {
		t.Errorf("Expected bare hashes to be ignored, got %v", structure)
	}
}
