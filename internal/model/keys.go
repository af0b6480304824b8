package model

import (
	"database/sql"

	"golang.org/x/text/unicode/norm"
)

// LocationKey is the business identity of a location. Null and zero are
// distinct values, so the nullable columns keep their validity flag.
type LocationKey struct {
	BookNumber     sql.NullInt64
	ChapterNumber  sql.NullInt64
	DocumentID     sql.NullInt64
	Track          sql.NullInt64
	IssueTagNumber int64
	KeySymbol      sql.NullString
	MepsLanguage   sql.NullInt64
	Type           int64
}

// Key returns the identity key of the location
func (l Location) Key() LocationKey {
	return LocationKey{
		BookNumber:     l.BookNumber,
		ChapterNumber:  l.ChapterNumber,
		DocumentID:     l.DocumentID,
		Track:          l.Track,
		IssueTagNumber: l.IssueTagNumber,
		KeySymbol:      l.KeySymbol,
		MepsLanguage:   l.MepsLanguage,
		Type:           l.Type,
	}
}

// TagKey is the business identity of a tag
type TagKey struct {
	Type int64
	Name string
}

// Key returns the identity key of the tag. Names are compared in NFC so the
// same name typed on two devices collapses even if encoded differently.
func (t Tag) Key() TagKey {
	return TagKey{Type: t.Type, Name: norm.NFC.String(t.Name)}
}

// TargetKind identifies which reference of a TagMap is active
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetLocation
	TargetNote
	TargetPlaylistItem
	TargetMultiple
)

func (k TargetKind) String() string {
	switch k {
	case TargetLocation:
		return "location"
	case TargetNote:
		return "note"
	case TargetPlaylistItem:
		return "playlist_item"
	case TargetMultiple:
		return "multiple"
	default:
		return "none"
	}
}

// Target returns the active reference of the tag map. A tag map with no
// reference reports TargetNone, one with several reports TargetMultiple.
func (m TagMap) Target() (TargetKind, int64) {
	kind, id, n := TargetNone, int64(0), 0
	if m.LocationID.Valid {
		kind, id = TargetLocation, m.LocationID.Int64
		n++
	}
	if m.NoteID.Valid {
		kind, id = TargetNote, m.NoteID.Int64
		n++
	}
	if m.PlaylistItemID.Valid {
		kind, id = TargetPlaylistItem, m.PlaylistItemID.Int64
		n++
	}
	if n > 1 {
		return TargetMultiple, 0
	}
	return kind, id
}

// WithTarget returns a copy of the tag map pointing at the given target only
func (m TagMap) WithTarget(kind TargetKind, id int64) TagMap {
	m.LocationID = sql.NullInt64{}
	m.NoteID = sql.NullInt64{}
	m.PlaylistItemID = sql.NullInt64{}
	switch kind {
	case TargetLocation:
		m.LocationID = ID(id)
	case TargetNote:
		m.NoteID = ID(id)
	case TargetPlaylistItem:
		m.PlaylistItemID = ID(id)
	}
	return m
}

// TagMapKey identifies a (tag, target) association
type TagMapKey struct {
	TagID    int64
	Kind     TargetKind
	TargetID int64
}

// Key returns the association key of the tag map
func (m TagMap) Key() TagMapKey {
	kind, id := m.Target()
	return TagMapKey{TagID: m.TagID, Kind: kind, TargetID: id}
}

// BookmarkKey identifies a bookmark by its location and slot
type BookmarkKey struct {
	LocationID int64
	Slot       int64
}

// Key returns the identity key of the bookmark
func (b Bookmark) Key() BookmarkKey {
	return BookmarkKey{LocationID: b.LocationID, Slot: b.Slot}
}

// SlotKey identifies a slot on a publication's bookmark shelf
type SlotKey struct {
	PublicationLocationID int64
	Slot                  int64
}

// SlotKey returns the shelf slot the bookmark occupies
func (b Bookmark) SlotKey() SlotKey {
	return SlotKey{PublicationLocationID: b.PublicationLocationID, Slot: b.Slot}
}

// InputFieldKey identifies an input field
type InputFieldKey struct {
	LocationID int64
	TextTag    string
}

// Key returns the identity key of the input field
func (f InputField) Key() InputFieldKey {
	return InputFieldKey{LocationID: f.LocationID, TextTag: f.TextTag}
}
