package model

import "fmt"

// Counts holds the number of rows per entity type
type Counts struct {
	Locations            int `json:"locations"`
	Tags                 int `json:"tags"`
	TagMaps              int `json:"tag_maps"`
	UserMarks            int `json:"user_marks"`
	BlockRanges          int `json:"block_ranges"`
	Notes                int `json:"notes"`
	Bookmarks            int `json:"bookmarks"`
	InputFields          int `json:"input_fields"`
	PlaylistMedia        int `json:"playlist_media"`
	PlaylistItems        int `json:"playlist_items"`
	PlaylistItemChildren int `json:"playlist_item_children"`
}

// Counts returns the row counts of the database
func (db *Database) Counts() Counts {
	return Counts{
		Locations:            len(db.Locations),
		Tags:                 len(db.Tags),
		TagMaps:              len(db.TagMaps),
		UserMarks:            len(db.UserMarks),
		BlockRanges:          len(db.BlockRanges),
		Notes:                len(db.Notes),
		Bookmarks:            len(db.Bookmarks),
		InputFields:          len(db.InputFields),
		PlaylistMedia:        len(db.PlaylistMedia),
		PlaylistItems:        len(db.PlaylistItems),
		PlaylistItemChildren: len(db.PlaylistItemChildren),
	}
}

// Total returns the number of rows across all entity types
func (c Counts) Total() int {
	return c.Locations + c.Tags + c.TagMaps + c.UserMarks + c.BlockRanges +
		c.Notes + c.Bookmarks + c.InputFields + c.PlaylistMedia +
		c.PlaylistItems + c.PlaylistItemChildren
}

// EntityCount is one row of a counts table
type EntityCount struct {
	Entity string
	Count  int
}

// Rows returns the counts in table order for display
func (c Counts) Rows() []EntityCount {
	return []EntityCount{
		{EntityLocation, c.Locations},
		{EntityTag, c.Tags},
		{EntityTagMap, c.TagMaps},
		{EntityUserMark, c.UserMarks},
		{EntityBlockRange, c.BlockRanges},
		{EntityNote, c.Notes},
		{EntityBookmark, c.Bookmarks},
		{EntityInputField, c.InputFields},
		{EntityPlaylistMedia, c.PlaylistMedia},
		{EntityPlaylistItem, c.PlaylistItems},
		{EntityPlaylistItemChild, c.PlaylistItemChildren},
	}
}

func (c Counts) String() string {
	return fmt.Sprintf("locations=%d tags=%d tag_maps=%d user_marks=%d block_ranges=%d notes=%d bookmarks=%d input_fields=%d playlist_media=%d playlist_items=%d playlist_item_children=%d",
		c.Locations, c.Tags, c.TagMaps, c.UserMarks, c.BlockRanges, c.Notes,
		c.Bookmarks, c.InputFields, c.PlaylistMedia, c.PlaylistItems, c.PlaylistItemChildren)
}

// Entity names, matching the table names of the embedded store
const (
	EntityLocation          = "Location"
	EntityTag               = "Tag"
	EntityTagMap            = "TagMap"
	EntityUserMark          = "UserMark"
	EntityBlockRange        = "BlockRange"
	EntityNote              = "Note"
	EntityBookmark          = "Bookmark"
	EntityInputField        = "InputField"
	EntityPlaylistMedia     = "PlaylistMedia"
	EntityPlaylistItem      = "PlaylistItem"
	EntityPlaylistItemChild = "PlaylistItemChild"
	EntityLastModified      = "LastModified"
)
