package llm

import (
	"fmt"
	"sort"

	"github.com/sevigo/diff-warden/internal/core"
)

// Persona is an analyst role: a system prompt plus the defaults applied to the
// findings it returns.
type Persona struct {
	Name            string
	Prompt          PromptKey
	Category        string
	WeaknessID      string
	DefaultPriority int
}

var personas = map[string]Persona{
	"security": {
		Name:            "security",
		Prompt:          SecurityPrompt,
		Category:        "Security",
		DefaultPriority: 1,
	},
	"codequality": {
		Name:            "codequality",
		Prompt:          CodeQualityPrompt,
		Category:        "BAD PATTERN",
		WeaknessID:      core.NotApplicable,
		DefaultPriority: 3,
	},
	"typo": {
		Name:            "typo",
		Prompt:          TypoPrompt,
		Category:        "typo",
		WeaknessID:      core.NotApplicable,
		DefaultPriority: 5,
	},
}

// LookupPersona returns the persona registered under name.
func LookupPersona(name string) (Persona, error) {
	p, ok := personas[name]
	if !ok {
		return Persona{}, fmt.Errorf("unknown analyst %q (available: %v)", name, PersonaNames())
	}
	return p, nil
}

// PersonaNames lists the registered personas.
func PersonaNames() []string {
	names := make([]string, 0, len(personas))
	for n := range personas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply fills the fields a model left empty. The analyzed file is the default file
// because every prompt covers exactly one file.
func (p Persona) Apply(f core.Finding, filename string) core.Finding {
	if f.File == "" {
		f.File = filename
	}
	if f.Category == "" {
		f.Category = p.Category
	}
	if p.WeaknessID != "" {
		f.WeaknessID = p.WeaknessID
	} else if f.WeaknessID == "" {
		f.WeaknessID = core.NotApplicable
	}
	if f.Priority <= 0 {
		f.Priority = p.DefaultPriority
	}
	if f.Priority > 9 {
		f.Priority = 9
	}
	return f
}
