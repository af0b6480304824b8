package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/jwl-merge/internal/model"
	"github.com/franz/jwl-merge/internal/testutil"
)

func rangeIDs(db *model.Database) []int64 {
	ids := make([]int64, 0, len(db.BlockRanges))
	for _, r := range db.BlockRanges {
		ids = append(ids, r.BlockRangeID)
	}
	return ids
}

func TestCleanOrphanBlockRange(t *testing.T) {
	b := testutil.NewBuilder()
	loc := b.Location(19, 23, "nwt")
	b.Highlight(loc)
	db := b.Database()
	db.BlockRanges = append(db.BlockRanges, model.BlockRange{BlockRangeID: 2, UserMarkID: 99})

	removed := Clean(db)

	assert.Equal(t, 1, removed)
	assert.Equal(t, []int64{1}, rangeIDs(db))

	merged, err := Merge(db)
	require.NoError(t, err)
	require.Len(t, merged.BlockRanges, 1)
	assert.Equal(t, merged.UserMarks[0].UserMarkID, merged.BlockRanges[0].UserMarkID)
}

func TestCleanDuplicateBlockRanges(t *testing.T) {
	db := &model.Database{
		Locations: []model.Location{{LocationID: 1}},
		UserMarks: []model.UserMark{
			{UserMarkID: 1, LocationID: 1, UserMarkGUID: "a"},
			{UserMarkID: 2, LocationID: 1, UserMarkGUID: "b"},
		},
		BlockRanges: []model.BlockRange{
			{BlockRangeID: 1, UserMarkID: 1},
			{BlockRangeID: 2, UserMarkID: 1},
			{BlockRangeID: 3, UserMarkID: 2},
		},
	}

	result := (&Cleaner{Source: "test"}).Clean(db)

	assert.Equal(t, CleanResult{BlockRanges: 1}, result)
	assert.Equal(t, []int64{2, 3}, rangeIDs(db), "the last range of a mark is kept")
}

func TestCleanLocations(t *testing.T) {
	db := &model.Database{
		Locations: []model.Location{
			{LocationID: 1}, {LocationID: 2}, {LocationID: 3}, {LocationID: 4},
			{LocationID: 5}, {LocationID: 6}, {LocationID: 7}, {LocationID: 8},
		},
		UserMarks:     []model.UserMark{{UserMarkID: 1, LocationID: 1, UserMarkGUID: "a"}},
		Bookmarks:     []model.Bookmark{{BookmarkID: 1, LocationID: 2, PublicationLocationID: 3}},
		Notes:         []model.Note{{NoteID: 1, GUID: "n", LocationID: model.ID(4)}},
		TagMaps:       []model.TagMap{{TagMapID: 1, TagID: 1, LocationID: model.ID(5)}},
		PlaylistMedia: []model.PlaylistMedia{{PlaylistMediaID: 1, LocationID: model.ID(6)}},
		InputFields:   []model.InputField{{LocationID: 7, TextTag: "tt1"}},
	}

	result := (&Cleaner{}).Clean(db)

	assert.Equal(t, 1, result.Locations)
	assert.Len(t, db.Locations, 7)
	for _, l := range db.Locations {
		assert.NotEqual(t, int64(8), l.LocationID)
	}
}

func TestCleanIsMonotonicAndIdempotent(t *testing.T) {
	db := richSource()
	db.Locations = append(db.Locations, model.Location{LocationID: 50, DocumentID: model.ID(9)})
	db.BlockRanges = append(db.BlockRanges, model.BlockRange{BlockRangeID: 50, UserMarkID: 500})
	before := db.Counts()

	first := Clean(db)
	after := db.Counts()

	assert.Equal(t, 2, first)
	assert.Equal(t, before.Total()-first, after.Total())
	for i, row := range after.Rows() {
		assert.LessOrEqual(t, row.Count, before.Rows()[i].Count, row.Entity)
	}

	assert.Equal(t, 0, Clean(db), "second pass removes nothing")
	assert.Equal(t, after, db.Counts())
}

func TestCleanEmptyDatabase(t *testing.T) {
	assert.Equal(t, 0, Clean(&model.Database{}))
	assert.Equal(t, 0, Clean(model.NewBlank()))
}
