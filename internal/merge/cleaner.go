package merge

import (
	"github.com/franz/jwl-merge/internal/model"
	"github.com/franz/jwl-merge/internal/report"
	"github.com/franz/jwl-merge/internal/util"
)

// Cleaner removes rows of a single database that nothing can reach
type Cleaner struct {
	// Source names the database in events
	Source string
	Events *report.EventLogger
}

// CleanResult counts the rows removed per entity type
type CleanResult struct {
	BlockRanges int
	Locations   int
}

// Total returns the number of rows removed
func (r CleanResult) Total() int {
	return r.BlockRanges + r.Locations
}

// Clean removes orphaned rows from db and returns the number removed
func Clean(db *model.Database) int {
	return (&Cleaner{}).Clean(db).Total()
}

// Clean removes block ranges that have no user mark or share one with a
// later range, then removes locations that no row references. Removing
// nothing is the normal outcome for a healthy backup.
func (c *Cleaner) Clean(db *model.Database) CleanResult {
	result := CleanResult{
		BlockRanges: c.cleanBlockRanges(db),
		Locations:   c.cleanLocations(db),
	}
	if result.Total() > 0 {
		util.DebugLog("Cleaned %s: removed %d block ranges, %d locations",
			c.source(), result.BlockRanges, result.Locations)
	}
	return result
}

func (c *Cleaner) cleanBlockRanges(db *model.Database) int {
	if len(db.BlockRanges) == 0 {
		return 0
	}

	userMarks := make(map[int64]bool, len(db.UserMarks))
	for _, m := range db.UserMarks {
		userMarks[m.UserMarkID] = true
	}

	// Walk backwards so the last range inserted for a mark is the one kept
	claimed := make(map[int64]bool, len(db.BlockRanges))
	keep := make([]bool, len(db.BlockRanges))
	removed := 0
	for i := len(db.BlockRanges) - 1; i >= 0; i-- {
		r := db.BlockRanges[i]
		switch {
		case !userMarks[r.UserMarkID]:
			c.Events.LogClean(c.source(), model.EntityBlockRange, r.BlockRangeID, "user mark missing")
			removed++
		case claimed[r.UserMarkID]:
			c.Events.LogClean(c.source(), model.EntityBlockRange, r.BlockRangeID, "duplicate user mark")
			removed++
		default:
			claimed[r.UserMarkID] = true
			keep[i] = true
		}
	}

	if removed == 0 {
		return 0
	}
	ranges := make([]model.BlockRange, 0, len(db.BlockRanges)-removed)
	for i, r := range db.BlockRanges {
		if keep[i] {
			ranges = append(ranges, r)
		}
	}
	db.BlockRanges = ranges
	return removed
}

func (c *Cleaner) cleanLocations(db *model.Database) int {
	if len(db.Locations) == 0 {
		return 0
	}

	inUse := locationsInUse(db)
	locations := make([]model.Location, 0, len(db.Locations))
	for _, l := range db.Locations {
		if inUse[l.LocationID] {
			locations = append(locations, l)
			continue
		}
		c.Events.LogClean(c.source(), model.EntityLocation, l.LocationID, "unreferenced")
	}

	removed := len(db.Locations) - len(locations)
	if removed > 0 {
		db.Locations = locations
	}
	return removed
}

func locationsInUse(db *model.Database) map[int64]bool {
	inUse := make(map[int64]bool, len(db.Locations))
	for _, b := range db.Bookmarks {
		inUse[b.LocationID] = true
		inUse[b.PublicationLocationID] = true
	}
	for _, n := range db.Notes {
		if n.LocationID.Valid {
			inUse[n.LocationID.Int64] = true
		}
	}
	for _, m := range db.UserMarks {
		inUse[m.LocationID] = true
	}
	for _, m := range db.TagMaps {
		if m.LocationID.Valid {
			inUse[m.LocationID.Int64] = true
		}
	}
	for _, m := range db.PlaylistMedia {
		if m.LocationID.Valid {
			inUse[m.LocationID.Int64] = true
		}
	}
	for _, f := range db.InputFields {
		inUse[f.LocationID] = true
	}
	return inUse
}

func (c *Cleaner) source() string {
	if c.Source == "" {
		return "database"
	}
	return c.Source
}
