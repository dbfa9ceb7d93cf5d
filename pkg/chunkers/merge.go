package chunkers

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MergeChunks combines stored chunks into a single chunk. The ids are
// resolved against the table in request order and unknown ids are skipped.
// No resolved chunk returns nil; exactly one returns the stored chunk
// itself. Otherwise the resolved chunks are ordered by level, then section,
// then subsection with section-level chunks first, and their contents joined
// by a blank line. Section, subsection, parent id and level come from the
// first chunk in that order; the merged chunk gets a fresh id and carries no
// embeddings or summary, so enrichment must be redone.
func MergeChunks(table ChunkTable, ids []string) *Chunk {
	resolved := make([]*Chunk, 0, len(ids))
	for _, id := range ids {
		if chunk, ok := table[id]; ok {
			resolved = append(resolved, chunk)
		}
	}

	switch len(resolved) {
	case 0:
		return nil
	case 1:
		return resolved[0]
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		if resolved[i].Level != resolved[j].Level {
			return resolved[i].Level < resolved[j].Level
		}
		if resolved[i].Section != resolved[j].Section {
			return resolved[i].Section < resolved[j].Section
		}
		return resolved[i].Subsection < resolved[j].Subsection
	})

	contents := make([]string, len(resolved))
	for i, chunk := range resolved {
		contents[i] = chunk.Content
	}

	first := resolved[0]
	return &Chunk{
		ID:         uuid.New().String(),
		Content:    strings.Join(contents, "\n\n"),
		Section:    first.Section,
		Subsection: first.Subsection,
		ParentID:   first.ParentID,
		Level:      first.Level,
		CreatedAt:  time.Now(),
	}
}
