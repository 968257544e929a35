package core

// NotApplicable marks a finding that has no weakness classification.
// Findings carrying it are never collapsed by deduplication.
const NotApplicable = "N/A"

// ChangedFile holds the filename and unified diff for a single file of a change set.
// An empty Patch means the provider had no textual diff (binary, rename only, too large).
type ChangedFile struct {
	Filename string
	Patch    string
}

// Finding is a single issue reported by an analyzer.
type Finding struct {
	File           string `json:"file"`
	Category       string `json:"category"`
	Snippet        string `json:"snippet"`
	Title          string `json:"title"`
	Issue          string `json:"issue"`
	Recommendation string `json:"recommendation"`
	WeaknessID     string `json:"weakness_id"`
	Priority       int    `json:"priority"`

	// LineNumber is nil until the finding has been anchored to a line of the new file.
	LineNumber *int `json:"line_number"`

	// Position is the diff position of LineNumber. Runtime only.
	Position int `json:"-"`
}

// Resolved reports whether the finding has been anchored to a diff line.
func (f Finding) Resolved() bool {
	return f.LineNumber != nil && *f.LineNumber > 0
}

// Line returns the anchored line number, or 0 when unresolved.
func (f Finding) Line() int {
	if f.LineNumber == nil {
		return 0
	}
	return *f.LineNumber
}

// CacheEntry is the persisted form of an analysis result for one file content.
type CacheEntry struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
}

// ReviewComment is a comment anchored to a diff position, ready to be posted.
type ReviewComment struct {
	Path     string
	Position int
	Body     string
}
