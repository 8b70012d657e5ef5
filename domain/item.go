package domain

// SourceType identifies which image model generated an image.
type SourceType string

const (
	SourceGPT  SourceType = "gpt"
	SourceMJ   SourceType = "mj"
	SourceNano SourceType = "nano"
)

var validSourceTypes = map[SourceType]bool{
	SourceGPT:  true,
	SourceMJ:   true,
	SourceNano: true,
}

func ValidSourceType(s SourceType) bool {
	return validSourceTypes[s]
}

// Item is one (poem, image) evaluation unit. Immutable after catalog load.
// Uniquely identified by (PoemTitle, SourceType); ImagePath is derived.
type Item struct {
	PoemTitle  string     `json:"poem_title"`
	ImagePath  string     `json:"image_path"`
	SourceType SourceType `json:"source_type"`
}

// Key returns the identity of the item within the catalog.
func (i Item) Key() string {
	return i.PoemTitle + "|" + string(i.SourceType)
}

// Poem holds the metadata loaded for one poem title, including the
// pre-configured decoy titles used for the blind selection step.
type Poem struct {
	Title   string   `json:"title"`
	Author  string   `json:"author"`
	Content string   `json:"content"`
	Decoys  []string `json:"-"`
}

// Question is one entry of the phase-2 questionnaire catalog.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}
