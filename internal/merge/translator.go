package merge

// IDTranslator maps one source's local ids of a single entity type to the
// ids assigned in the merged output. Zero means unmapped; row ids are always
// positive.
type IDTranslator struct {
	ids map[int64]int64
}

// NewIDTranslator creates an empty translator
func NewIDTranslator() *IDTranslator {
	return &IDTranslator{ids: make(map[int64]int64)}
}

// Add records that sourceID became mergedID
func (t *IDTranslator) Add(sourceID, mergedID int64) {
	t.ids[sourceID] = mergedID
}

// Translate returns the merged id for sourceID, or 0 if there is none
func (t *IDTranslator) Translate(sourceID int64) int64 {
	return t.ids[sourceID]
}

// Len returns the number of recorded mappings
func (t *IDTranslator) Len() int {
	return len(t.ids)
}

// translators holds one IDTranslator per entity type for a single source
type translators struct {
	locations     *IDTranslator
	tags          *IDTranslator
	userMarks     *IDTranslator
	notes         *IDTranslator
	playlistMedia *IDTranslator
	playlistItems *IDTranslator
}

func newTranslators() *translators {
	return &translators{
		locations:     NewIDTranslator(),
		tags:          NewIDTranslator(),
		userMarks:     NewIDTranslator(),
		notes:         NewIDTranslator(),
		playlistMedia: NewIDTranslator(),
		playlistItems: NewIDTranslator(),
	}
}
