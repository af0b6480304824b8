package model

import (
	"database/sql"
	"time"
)

// LastModifiedLayout is the timestamp format used by the LastModified table
const LastModifiedLayout = "2006-01-02T15:04:05Z"

// Database is the in-memory content of one backup's embedded store.
// Rows reference each other only by integer id.
type Database struct {
	LastModified         LastModified
	Locations            []Location
	Tags                 []Tag
	TagMaps              []TagMap
	UserMarks            []UserMark
	BlockRanges          []BlockRange
	Notes                []Note
	Bookmarks            []Bookmark
	InputFields          []InputField
	PlaylistMedia        []PlaylistMedia
	PlaylistItems        []PlaylistItem
	PlaylistItemChildren []PlaylistItemChild
}

// LastModified is the singleton modification marker
type LastModified struct {
	TimeLastModified sql.NullString
}

// Touch sets the marker to t, in UTC
func (l *LastModified) Touch(t time.Time) {
	l.TimeLastModified = sql.NullString{String: t.UTC().Format(LastModifiedLayout), Valid: true}
}

// Location is a place in a publication or the Bible
type Location struct {
	LocationID     int64
	BookNumber     sql.NullInt64
	ChapterNumber  sql.NullInt64
	DocumentID     sql.NullInt64
	Track          sql.NullInt64
	IssueTagNumber int64
	KeySymbol      sql.NullString
	MepsLanguage   sql.NullInt64
	Type           int64
	Title          sql.NullString
}

// Tag is a user category. The first tag of a backup is conventionally "Favorites".
type Tag struct {
	TagID int64
	Type  int64
	Name  string
}

// TagMap attaches a tag to exactly one of a location, a note or a playlist item
type TagMap struct {
	TagMapID       int64
	PlaylistItemID sql.NullInt64
	LocationID     sql.NullInt64
	NoteID         sql.NullInt64
	TagID          int64
	Position       int64
}

// UserMark is a highlight anchored to a location
type UserMark struct {
	UserMarkID   int64
	ColorIndex   int64
	LocationID   int64
	StyleIndex   int64
	UserMarkGUID string
	Version      int64
}

// BlockRange is the highlighted span of a user mark
type BlockRange struct {
	BlockRangeID int64
	BlockType    int64
	Identifier   int64
	StartToken   sql.NullInt64
	EndToken     sql.NullInt64
	UserMarkID   int64
}

// Note is a user-authored annotation
type Note struct {
	NoteID          int64
	GUID            string
	UserMarkID      sql.NullInt64
	LocationID      sql.NullInt64
	Title           sql.NullString
	Content         sql.NullString
	LastModified    string
	BlockType       int64
	BlockIdentifier sql.NullInt64
}

// Bookmark occupies one slot of a publication's bookmark shelf
type Bookmark struct {
	BookmarkID            int64
	LocationID            int64
	PublicationLocationID int64
	Slot                  int64
	Title                 string
	Snippet               sql.NullString
	BlockType             int64
	BlockIdentifier       sql.NullInt64
}

// InputField is a value typed into a publication's form field
type InputField struct {
	LocationID int64
	TextTag    string
	Value      string
}

// PlaylistMedia describes a media file referenced by playlist items
type PlaylistMedia struct {
	PlaylistMediaID int64
	MediaType       int64
	Label           sql.NullString
	Filename        sql.NullString
	LocationID      sql.NullInt64
}

// PlaylistItem is one entry of a playlist
type PlaylistItem struct {
	PlaylistItemID       int64
	Label                sql.NullString
	AccuracyStatement    int64
	StartTimeOffsetTicks int64
	EndTimeOffsetTicks   int64
	EndAction            int64
	ThumbnailFilename    sql.NullString
	PlaylistMediaID      int64
}

// PlaylistItemChild is an ordered segment within a playlist item
type PlaylistItemChild struct {
	PlaylistItemChildID              int64
	BaseDurationTicks                int64
	MarkerID                         int64
	MarkerLabel                      sql.NullString
	MarkerStartTimeTicks             int64
	MarkerEndTransitionDurationTicks int64
	PlaylistItemID                   int64
}

// NewBlank returns an empty database with the default "Favorites" tag
func NewBlank() *Database {
	db := &Database{
		Tags: []Tag{{TagID: 1, Type: 0, Name: "Favorites"}},
	}
	db.LastModified.Touch(time.Now())
	return db
}

// ID wraps a valid nullable reference
func ID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: true}
}

// Text wraps a valid nullable string
func Text(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

// Clone returns a copy of db that shares no row slices with it
func (db *Database) Clone() *Database {
	return &Database{
		LastModified:         db.LastModified,
		Locations:            append([]Location(nil), db.Locations...),
		Tags:                 append([]Tag(nil), db.Tags...),
		TagMaps:              append([]TagMap(nil), db.TagMaps...),
		UserMarks:            append([]UserMark(nil), db.UserMarks...),
		BlockRanges:          append([]BlockRange(nil), db.BlockRanges...),
		Notes:                append([]Note(nil), db.Notes...),
		Bookmarks:            append([]Bookmark(nil), db.Bookmarks...),
		InputFields:          append([]InputField(nil), db.InputFields...),
		PlaylistMedia:        append([]PlaylistMedia(nil), db.PlaylistMedia...),
		PlaylistItems:        append([]PlaylistItem(nil), db.PlaylistItems...),
		PlaylistItemChildren: append([]PlaylistItemChild(nil), db.PlaylistItemChildren...),
	}
}
