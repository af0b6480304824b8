package merge

import "github.com/franz/jwl-merge/internal/model"

// RemoveTags keeps only the first tag (Favorites) and drops every tag map.
// It returns the number of rows removed.
func RemoveTags(db *model.Database) int {
	removed := len(db.TagMaps)
	db.TagMaps = nil
	if len(db.Tags) > 1 {
		removed += len(db.Tags) - 1
		db.Tags = db.Tags[:1]
	}
	return removed
}

// RemoveBookmarks drops every bookmark
func RemoveBookmarks(db *model.Database) int {
	removed := len(db.Bookmarks)
	db.Bookmarks = nil
	return removed
}

// RemoveNotes drops every note and the tag maps attached to notes
func RemoveNotes(db *model.Database) int {
	removed := len(db.Notes)
	db.Notes = nil

	tagMaps := db.TagMaps[:0:0]
	for _, m := range db.TagMaps {
		if m.NoteID.Valid {
			removed++
			continue
		}
		tagMaps = append(tagMaps, m)
	}
	db.TagMaps = tagMaps
	return removed
}

// RemoveUnderlining drops the user marks no note is attached to, together
// with their block ranges.
func RemoveUnderlining(db *model.Database) int {
	retain := make(map[int64]bool, len(db.Notes))
	for _, n := range db.Notes {
		if n.UserMarkID.Valid {
			retain[n.UserMarkID.Int64] = true
		}
	}

	removed := 0
	userMarks := make([]model.UserMark, 0, len(retain))
	for _, m := range db.UserMarks {
		if retain[m.UserMarkID] {
			userMarks = append(userMarks, m)
			continue
		}
		removed++
	}
	db.UserMarks = userMarks

	ranges := make([]model.BlockRange, 0, len(db.BlockRanges))
	for _, b := range db.BlockRanges {
		if retain[b.UserMarkID] {
			ranges = append(ranges, b)
			continue
		}
		removed++
	}
	db.BlockRanges = ranges
	return removed
}

// StripOptions selects the redactions applied to each source before merging
type StripOptions struct {
	Tags        bool
	Bookmarks   bool
	Notes       bool
	Underlining bool
}

// Any reports whether at least one redaction is selected
func (o StripOptions) Any() bool {
	return o.Tags || o.Bookmarks || o.Notes || o.Underlining
}

// Apply runs the selected redactions and returns the rows removed per entity
// group. Notes are removed before underlining so marks attached to removed
// notes are dropped as well.
func (o StripOptions) Apply(db *model.Database) map[string]int {
	removed := make(map[string]int)
	if o.Tags {
		removed[model.EntityTag] = RemoveTags(db)
	}
	if o.Bookmarks {
		removed[model.EntityBookmark] = RemoveBookmarks(db)
	}
	if o.Notes {
		removed[model.EntityNote] = RemoveNotes(db)
	}
	if o.Underlining {
		removed[model.EntityUserMark] = RemoveUnderlining(db)
	}
	return removed
}
