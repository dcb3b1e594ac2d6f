package labeler

import "sync"

// ColumnCandidates defines possible header names for auto-detecting CSV/TSV columns.
type ColumnCandidates struct {
	ID          []string `json:"id"`
	Title       []string `json:"title"`
	Description []string `json:"description"`
	Label       []string `json:"label"`
	LabelText   []string `json:"labelText"`
}

var (
	columnCandidatesMu  sync.RWMutex
	activeColumnOptions = defaultColumnCandidates()
)

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		ID:          []string{"id", "issue", "number", "key", "index"},
		Title:       []string{"title", "summary", "subject", "name"},
		Description: []string{"description", "body", "text", "details", "content"},
		Label:       []string{"label", "area", "category", "class"},
		LabelText:   []string{"description", "text", "prototype", "keywords"},
	}
}

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates().clone()
}

// SetColumnCandidates updates the column detection candidates used during auto-detection.
// Fields left nil fall back to the built-in defaults.
func SetColumnCandidates(candidates ColumnCandidates) {
	columnCandidatesMu.Lock()
	defer columnCandidatesMu.Unlock()
	activeColumnOptions = candidates.withDefaults()
}

func getColumnCandidates() ColumnCandidates {
	columnCandidatesMu.RLock()
	defer columnCandidatesMu.RUnlock()
	return activeColumnOptions.clone()
}

func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := defaultColumnCandidates()
	return ColumnCandidates{
		ID:          pickStrings(c.ID, defaults.ID),
		Title:       pickStrings(c.Title, defaults.Title),
		Description: pickStrings(c.Description, defaults.Description),
		Label:       pickStrings(c.Label, defaults.Label),
		LabelText:   pickStrings(c.LabelText, defaults.LabelText),
	}
}

func (c ColumnCandidates) clone() ColumnCandidates {
	return ColumnCandidates{
		ID:          cloneStrings(c.ID),
		Title:       cloneStrings(c.Title),
		Description: cloneStrings(c.Description),
		Label:       cloneStrings(c.Label),
		LabelText:   cloneStrings(c.LabelText),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
