package sanitize

import "fmt"

// Rename is one old-name to new-name assignment.
type Rename struct {
	From string
	To   string
}

// RenameMap holds the field renames of one layer in original field order.
type RenameMap []Rename

// Get returns the sanitized name assigned to from.
func (m RenameMap) Get(from string) (string, bool) {
	for _, r := range m {
		if r.From == from {
			return r.To, true
		}
	}
	return "", false
}

// Changed returns only the entries whose name actually changed.
func (m RenameMap) Changed() []Rename {
	var out []Rename
	for _, r := range m {
		if r.From != r.To {
			out = append(out, r)
		}
	}
	return out
}

// Renamer resolves duplicate sanitized names in first-seen order: the first
// occurrence keeps its name, later collisions get the smallest unused numeric
// suffix (_1, _2, ...).
type Renamer struct {
	seen map[string]struct{}
}

// NewRenamer returns an empty Renamer.
func NewRenamer() *Renamer {
	return &Renamer{seen: make(map[string]struct{})}
}

// Reserve marks name as taken without producing a rename. Used to protect
// names that already exist at the destination.
func (r *Renamer) Reserve(name string) {
	r.seen[name] = struct{}{}
}

// Resolve returns candidate, or candidate with the smallest unused numeric
// suffix if it was already produced, and records the result.
func (r *Renamer) Resolve(candidate string) string {
	name := candidate
	for count := 1; ; count++ {
		if _, taken := r.seen[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_%d", candidate, count)
	}
	r.seen[name] = struct{}{}
	return name
}

// FieldRenames sanitizes an ordered field list (no prefix is ever applied to
// field names) and resolves duplicates. The result has exactly one distinct
// new name per input field.
func FieldRenames(fields []string, conv Convention, maxLen int) RenameMap {
	renamer := NewRenamer()
	out := make(RenameMap, 0, len(fields))
	for _, f := range fields {
		clean := Identifier(f, Options{Convention: conv, MaxLen: maxLen})
		out = append(out, Rename{From: f, To: renamer.Resolve(clean)})
	}
	return out
}
