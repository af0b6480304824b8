package merge

import (
	"errors"
	"fmt"

	"github.com/franz/jwl-merge/internal/model"
)

// Validate checks that every reference of db resolves and that the
// uniqueness rules hold. All violations are returned joined.
func Validate(db *model.Database) error {
	idx := db.BuildIndex()
	var errs []error

	fail := func(entity string, id int64, format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%s %d: %s", entity, id, fmt.Sprintf(format, args...)))
	}

	guids := make(map[string]bool, len(db.UserMarks))
	for _, m := range db.UserMarks {
		if _, ok := idx.Locations[m.LocationID]; !ok {
			fail(model.EntityUserMark, m.UserMarkID, "location %d missing", m.LocationID)
		}
		if guids[m.UserMarkGUID] {
			fail(model.EntityUserMark, m.UserMarkID, "duplicate guid %s", m.UserMarkGUID)
		}
		guids[m.UserMarkGUID] = true
	}

	owners := make(map[int64]bool, len(db.BlockRanges))
	for _, b := range db.BlockRanges {
		if _, ok := idx.UserMarks[b.UserMarkID]; !ok {
			fail(model.EntityBlockRange, b.BlockRangeID, "user mark %d missing", b.UserMarkID)
		}
		if owners[b.UserMarkID] {
			fail(model.EntityBlockRange, b.BlockRangeID, "user mark %d already has a range", b.UserMarkID)
		}
		owners[b.UserMarkID] = true
	}

	guids = make(map[string]bool, len(db.Notes))
	for _, n := range db.Notes {
		if n.UserMarkID.Valid {
			if _, ok := idx.UserMarks[n.UserMarkID.Int64]; !ok {
				fail(model.EntityNote, n.NoteID, "user mark %d missing", n.UserMarkID.Int64)
			}
		}
		if n.LocationID.Valid {
			if _, ok := idx.Locations[n.LocationID.Int64]; !ok {
				fail(model.EntityNote, n.NoteID, "location %d missing", n.LocationID.Int64)
			}
		}
		if guids[n.GUID] {
			fail(model.EntityNote, n.NoteID, "duplicate guid %s", n.GUID)
		}
		guids[n.GUID] = true
	}

	slots := make(map[model.SlotKey]bool, len(db.Bookmarks))
	for _, b := range db.Bookmarks {
		if _, ok := idx.Locations[b.LocationID]; !ok {
			fail(model.EntityBookmark, b.BookmarkID, "location %d missing", b.LocationID)
		}
		if _, ok := idx.Locations[b.PublicationLocationID]; !ok {
			fail(model.EntityBookmark, b.BookmarkID, "publication location %d missing", b.PublicationLocationID)
		}
		if slots[b.SlotKey()] {
			fail(model.EntityBookmark, b.BookmarkID, "slot %d of publication %d already occupied", b.Slot, b.PublicationLocationID)
		}
		slots[b.SlotKey()] = true
	}

	fields := make(map[model.InputFieldKey]bool, len(db.InputFields))
	for _, f := range db.InputFields {
		if _, ok := idx.Locations[f.LocationID]; !ok {
			fail(model.EntityInputField, f.LocationID, "location missing")
		}
		if fields[f.Key()] {
			fail(model.EntityInputField, f.LocationID, "duplicate text tag %s", f.TextTag)
		}
		fields[f.Key()] = true
	}

	for _, p := range db.PlaylistMedia {
		if p.LocationID.Valid {
			if _, ok := idx.Locations[p.LocationID.Int64]; !ok {
				fail(model.EntityPlaylistMedia, p.PlaylistMediaID, "location %d missing", p.LocationID.Int64)
			}
		}
	}
	for _, p := range db.PlaylistItems {
		if _, ok := idx.PlaylistMedia[p.PlaylistMediaID]; !ok {
			fail(model.EntityPlaylistItem, p.PlaylistItemID, "playlist media %d missing", p.PlaylistMediaID)
		}
	}
	for _, c := range db.PlaylistItemChildren {
		if _, ok := idx.PlaylistItems[c.PlaylistItemID]; !ok {
			fail(model.EntityPlaylistItemChild, c.PlaylistItemChildID, "playlist item %d missing", c.PlaylistItemID)
		}
	}

	pairs := make(map[model.TagMapKey]bool, len(db.TagMaps))
	for _, m := range db.TagMaps {
		if _, ok := idx.Tags[m.TagID]; !ok {
			fail(model.EntityTagMap, m.TagMapID, "tag %d missing", m.TagID)
		}
		kind, id := m.Target()
		switch kind {
		case model.TargetNone, model.TargetMultiple:
			fail(model.EntityTagMap, m.TagMapID, "target is %s", kind)
			continue
		}
		if !idx.HasTarget(kind, id) {
			fail(model.EntityTagMap, m.TagMapID, "%s %d missing", kind, id)
		}
		if pairs[m.Key()] {
			fail(model.EntityTagMap, m.TagMapID, "tag %d already attached to %s %d", m.TagID, kind, id)
		}
		pairs[m.Key()] = true
	}

	return errors.Join(errs...)
}
