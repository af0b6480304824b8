package model

// Index maps primary keys to rows for explicit lookups. It is a snapshot of
// the database at build time and must be rebuilt after the rows change.
type Index struct {
	Locations            map[int64]Location
	Tags                 map[int64]Tag
	UserMarks            map[int64]UserMark
	Notes                map[int64]Note
	PlaylistMedia        map[int64]PlaylistMedia
	PlaylistItems        map[int64]PlaylistItem
	UserMarksByGUID      map[string]UserMark
	NotesByGUID          map[string]Note
	BlockRangeByUserMark map[int64]BlockRange
}

// BuildIndex builds the id lookups for the database
func (db *Database) BuildIndex() *Index {
	idx := &Index{
		Locations:            make(map[int64]Location, len(db.Locations)),
		Tags:                 make(map[int64]Tag, len(db.Tags)),
		UserMarks:            make(map[int64]UserMark, len(db.UserMarks)),
		Notes:                make(map[int64]Note, len(db.Notes)),
		PlaylistMedia:        make(map[int64]PlaylistMedia, len(db.PlaylistMedia)),
		PlaylistItems:        make(map[int64]PlaylistItem, len(db.PlaylistItems)),
		UserMarksByGUID:      make(map[string]UserMark, len(db.UserMarks)),
		NotesByGUID:          make(map[string]Note, len(db.Notes)),
		BlockRangeByUserMark: make(map[int64]BlockRange, len(db.BlockRanges)),
	}

	for _, l := range db.Locations {
		idx.Locations[l.LocationID] = l
	}
	for _, t := range db.Tags {
		idx.Tags[t.TagID] = t
	}
	for _, m := range db.UserMarks {
		idx.UserMarks[m.UserMarkID] = m
		idx.UserMarksByGUID[m.UserMarkGUID] = m
	}
	for _, n := range db.Notes {
		idx.Notes[n.NoteID] = n
		idx.NotesByGUID[n.GUID] = n
	}
	for _, m := range db.PlaylistMedia {
		idx.PlaylistMedia[m.PlaylistMediaID] = m
	}
	for _, p := range db.PlaylistItems {
		idx.PlaylistItems[p.PlaylistItemID] = p
	}
	for _, r := range db.BlockRanges {
		if _, ok := idx.BlockRangeByUserMark[r.UserMarkID]; !ok {
			idx.BlockRangeByUserMark[r.UserMarkID] = r
		}
	}

	return idx
}

// HasTarget reports whether the tag map's target kind and id resolve
func (idx *Index) HasTarget(kind TargetKind, id int64) bool {
	switch kind {
	case TargetLocation:
		_, ok := idx.Locations[id]
		return ok
	case TargetNote:
		_, ok := idx.Notes[id]
		return ok
	case TargetPlaylistItem:
		_, ok := idx.PlaylistItems[id]
		return ok
	default:
		return false
	}
}
