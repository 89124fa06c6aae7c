package ledger

import "math"

// CategoryMapping is one learned (input-string, category) pair. Key holds
// the normalized form of the input; UseCount drives tie-breaks between
// mappings that match the same payee.
type CategoryMapping struct {
	Key      string   `json:"key"`
	Category Category `json:"category"`
	UseCount int64    `json:"use_count"`
}

// Bump increments the usage count, saturating at the integer maximum so it
// never wraps.
func (m *CategoryMapping) Bump() {
	if m.UseCount < math.MaxInt64 {
		m.UseCount++
	}
}
