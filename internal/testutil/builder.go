// Package testutil builds small databases for tests
package testutil

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/franz/jwl-merge/internal/model"
)

// Builder appends rows to a database, assigning sequential ids
type Builder struct {
	db *model.Database
}

// NewBuilder starts from a blank database holding the Favorites tag
func NewBuilder() *Builder {
	return &Builder{db: model.NewBlank()}
}

// Database returns the built database
func (b *Builder) Database() *model.Database {
	return b.db
}

// Location adds a Bible chapter location and returns its id
func (b *Builder) Location(book, chapter int64, keySymbol string) int64 {
	id := int64(len(b.db.Locations) + 1)
	b.db.Locations = append(b.db.Locations, model.Location{
		LocationID:    id,
		BookNumber:    model.ID(book),
		ChapterNumber: model.ID(chapter),
		KeySymbol:     model.Text(keySymbol),
		MepsLanguage:  model.ID(0),
		Type:          0,
	})
	return id
}

// Publication adds a document location and returns its id
func (b *Builder) Publication(keySymbol string, documentID int64) int64 {
	id := int64(len(b.db.Locations) + 1)
	b.db.Locations = append(b.db.Locations, model.Location{
		LocationID:   id,
		DocumentID:   model.ID(documentID),
		KeySymbol:    model.Text(keySymbol),
		MepsLanguage: model.ID(0),
		Type:         1,
	})
	return id
}

// Tag adds a user tag and returns its id
func (b *Builder) Tag(name string) int64 {
	id := int64(len(b.db.Tags) + 1)
	b.db.Tags = append(b.db.Tags, model.Tag{TagID: id, Type: 1, Name: name})
	return id
}

// Highlight adds a user mark with a fresh guid and its block range
func (b *Builder) Highlight(locationID int64) int64 {
	return b.HighlightWithGUID(locationID, uuid.NewString())
}

// HighlightWithGUID adds a user mark with the given guid and its block range
func (b *Builder) HighlightWithGUID(locationID int64, guid string) int64 {
	id := int64(len(b.db.UserMarks) + 1)
	b.db.UserMarks = append(b.db.UserMarks, model.UserMark{
		UserMarkID:   id,
		ColorIndex:   1,
		LocationID:   locationID,
		UserMarkGUID: guid,
		Version:      1,
	})
	b.db.BlockRanges = append(b.db.BlockRanges, model.BlockRange{
		BlockRangeID: int64(len(b.db.BlockRanges) + 1),
		BlockType:    2,
		Identifier:   1,
		StartToken:   model.ID(0),
		EndToken:     model.ID(10),
		UserMarkID:   id,
	})
	return id
}

// Note adds a note. A zero userMarkID or locationID leaves the reference null.
func (b *Builder) Note(guid string, userMarkID, locationID int64, content string) int64 {
	id := int64(len(b.db.Notes) + 1)
	b.db.Notes = append(b.db.Notes, model.Note{
		NoteID:       id,
		GUID:         guid,
		UserMarkID:   optional(userMarkID),
		LocationID:   optional(locationID),
		Title:        model.Text("note " + guid),
		Content:      model.Text(content),
		LastModified: "2024-01-02T03:04:05+00:00",
		BlockType:    0,
	})
	return id
}

// Bookmark adds a bookmark in the given slot of a publication
func (b *Builder) Bookmark(locationID, publicationID, slot int64, title string) int64 {
	id := int64(len(b.db.Bookmarks) + 1)
	b.db.Bookmarks = append(b.db.Bookmarks, model.Bookmark{
		BookmarkID:            id,
		LocationID:            locationID,
		PublicationLocationID: publicationID,
		Slot:                  slot,
		Title:                 title,
	})
	return id
}

// InputField adds a form field value
func (b *Builder) InputField(locationID int64, textTag, value string) {
	b.db.InputFields = append(b.db.InputFields, model.InputField{
		LocationID: locationID,
		TextTag:    textTag,
		Value:      value,
	})
}

// TagLocation attaches a tag to a location at the given position
func (b *Builder) TagLocation(tagID, locationID, position int64) int64 {
	return b.tagMap(model.TagMap{TagID: tagID, LocationID: model.ID(locationID), Position: position})
}

// TagNote attaches a tag to a note at the given position
func (b *Builder) TagNote(tagID, noteID, position int64) int64 {
	return b.tagMap(model.TagMap{TagID: tagID, NoteID: model.ID(noteID), Position: position})
}

// TagPlaylistItem attaches a tag to a playlist item at the given position
func (b *Builder) TagPlaylistItem(tagID, itemID, position int64) int64 {
	return b.tagMap(model.TagMap{TagID: tagID, PlaylistItemID: model.ID(itemID), Position: position})
}

// TagMap adds a raw tag map row
func (b *Builder) TagMap(m model.TagMap) int64 {
	return b.tagMap(m)
}

func (b *Builder) tagMap(m model.TagMap) int64 {
	m.TagMapID = int64(len(b.db.TagMaps) + 1)
	b.db.TagMaps = append(b.db.TagMaps, m)
	return m.TagMapID
}

// Playlist adds a media row, an item playing it and one child segment. It
// returns the item id. A zero locationID leaves the media unanchored.
func (b *Builder) Playlist(label string, locationID int64) int64 {
	mediaID := int64(len(b.db.PlaylistMedia) + 1)
	b.db.PlaylistMedia = append(b.db.PlaylistMedia, model.PlaylistMedia{
		PlaylistMediaID: mediaID,
		MediaType:       1,
		Label:           model.Text(label),
		Filename:        model.Text(label + ".mp4"),
		LocationID:      optional(locationID),
	})

	itemID := int64(len(b.db.PlaylistItems) + 1)
	b.db.PlaylistItems = append(b.db.PlaylistItems, model.PlaylistItem{
		PlaylistItemID:     itemID,
		Label:              model.Text(label),
		AccuracyStatement:  0,
		EndTimeOffsetTicks: 100,
		PlaylistMediaID:    mediaID,
	})

	b.db.PlaylistItemChildren = append(b.db.PlaylistItemChildren, model.PlaylistItemChild{
		PlaylistItemChildID: int64(len(b.db.PlaylistItemChildren) + 1),
		BaseDurationTicks:   100,
		MarkerID:            1,
		MarkerLabel:         model.Text(label),
		PlaylistItemID:      itemID,
	})
	return itemID
}

func optional(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return model.ID(id)
}
