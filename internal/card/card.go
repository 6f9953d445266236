package card

import "time"

// Ruling is an official clarification for a card. Rulings are rendered
// verbatim, in the order the provider returns them.
type Ruling struct {
	PublishedAt string `json:"published_at"`
	Comment     string `json:"comment"`
}

// LookupResult is the outcome of a rulings lookup. At most one of Rulings
// and Suggestions is populated: rulings when the name resolved, suggestions
// when the lookup fell back to autocomplete, neither when nothing was
// found. Callers rely on this exclusivity when rendering.
type LookupResult struct {
	CardName    string   `json:"card_name"`
	Rulings     []Ruling `json:"rulings"`
	Suggestions []string `json:"suggestions"`
}

// Found reports whether the lookup produced anything to show
func (r *LookupResult) Found() bool {
	return len(r.Rulings) > 0 || len(r.Suggestions) > 0
}

// Scan represents one processed card photo with its lookup outcome
type Scan struct {
	ID          string    `json:"id"`
	CardName    string    `json:"card_name"`
	RawText     string    `json:"raw_text"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Rulings     []Ruling  `json:"rulings"`
	Suggestions []string  `json:"suggestions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
