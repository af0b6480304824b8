package merge

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/jwl-merge/internal/model"
	"github.com/franz/jwl-merge/internal/report"
	"github.com/franz/jwl-merge/internal/testutil"
)

func richSource() *model.Database {
	b := testutil.NewBuilder()
	psalm := b.Location(19, 23, "nwt")
	john := b.Location(43, 3, "nwt")
	pub := b.Publication("w", 2024100)
	study := b.Tag("Study")

	mark := b.HighlightWithGUID(psalm, "mark-ps23")
	b.HighlightWithGUID(john, "mark-jn3")
	note := b.Note("note-ps23", mark, psalm, "The Lord is my shepherd")
	b.Note("note-free", 0, 0, "loose thought")
	b.Bookmark(john, pub, 0, "John 3")
	b.TagLocation(study, psalm, 0)
	b.TagNote(study, note, 1)
	b.TagNote(1, note, 0)
	b.InputField(pub, "tt12", "answer")
	return b.Database()
}

func TestMergeNoSources(t *testing.T) {
	_, err := New(nil).Merge(nil)
	assert.ErrorIs(t, err, ErrNoSources)

	_, err = Merge()
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestMergeDisjointSources(t *testing.T) {
	a := testutil.NewBuilder()
	a1 := a.Location(1, 1, "nwt")
	a2 := a.Location(1, 2, "nwt")
	a3 := a.Location(1, 3, "nwt")
	markA := a.Highlight(a1)
	a.Highlight(a2)
	a.Note("note-a", markA, a3, "Genesis")

	b := testutil.NewBuilder()
	b1 := b.Location(2, 1, "nwt")
	b2 := b.Location(2, 2, "nwt")
	b.Highlight(b1)
	b.Note("note-b", 0, b2, "Exodus")

	merged, err := Merge(a.Database(), b.Database())
	require.NoError(t, err)

	assert.Len(t, merged.Locations, 5)
	assert.Len(t, merged.UserMarks, 3)
	assert.Len(t, merged.BlockRanges, 3)
	assert.Len(t, merged.Notes, 2)
	assert.Len(t, merged.Tags, 1)
	assert.NoError(t, Validate(merged))

	for i, l := range merged.Locations {
		assert.Equal(t, int64(i+1), l.LocationID, "ids are sequential")
	}
}

func TestMergeOverlappingLocation(t *testing.T) {
	a := testutil.NewBuilder()
	a.Location(1, 1, "nwt")
	psalmA := a.Location(19, 23, "nwt")
	a.Highlight(psalmA)

	b := testutil.NewBuilder()
	psalmB := b.Location(19, 23, "nwt")
	b.Highlight(psalmB)

	result, err := New(nil).Merge([]*model.Database{a.Database(), b.Database()})
	require.NoError(t, err)
	merged := result.Database

	var psalmIDs []int64
	for _, l := range merged.Locations {
		if l.BookNumber.Int64 == 19 && l.ChapterNumber.Int64 == 23 && l.KeySymbol.String == "nwt" {
			psalmIDs = append(psalmIDs, l.LocationID)
		}
	}
	require.Len(t, psalmIDs, 1)

	require.Len(t, merged.UserMarks, 2)
	for _, m := range merged.UserMarks {
		assert.Equal(t, psalmIDs[0], m.LocationID)
	}
	assert.Equal(t, 1, result.Stats.Deduplicated[model.EntityLocation])
}

func TestMergeTagFavorites(t *testing.T) {
	a := testutil.NewBuilder()
	a.Tag("Study")
	b := testutil.NewBuilder()
	b.Tag("Sermon")

	merged, err := Merge(a.Database(), b.Database())
	require.NoError(t, err)

	names := make([]string, 0, len(merged.Tags))
	for _, tag := range merged.Tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"Favorites", "Study", "Sermon"}, names)
	assert.Equal(t, int64(1), merged.Tags[0].TagID)
	assert.Equal(t, int64(0), merged.Tags[0].Type)
}

func TestMergeFirstWriterWins(t *testing.T) {
	build := func(title, content string) *model.Database {
		b := testutil.NewBuilder()
		loc := b.Location(19, 23, "nwt")
		b.Note("shared-note", 0, loc, content)
		db := b.Database()
		db.Locations[0].Title = model.Text(title)
		return db
	}

	testCases := []struct {
		name        string
		sources     []*model.Database
		wantTitle   string
		wantContent string
	}{
		{
			name:        "first source wins",
			sources:     []*model.Database{build("Psalm 23 (A)", "from A"), build("Psalm 23 (B)", "from B")},
			wantTitle:   "Psalm 23 (A)",
			wantContent: "from A",
		},
		{
			name:        "order decides",
			sources:     []*model.Database{build("Psalm 23 (B)", "from B"), build("Psalm 23 (A)", "from A")},
			wantTitle:   "Psalm 23 (B)",
			wantContent: "from B",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			merged, err := Merge(tc.sources...)
			require.NoError(t, err)
			require.Len(t, merged.Locations, 1)
			require.Len(t, merged.Notes, 1)
			assert.Equal(t, tc.wantTitle, merged.Locations[0].Title.String)
			assert.Equal(t, tc.wantContent, merged.Notes[0].Content.String)
		})
	}
}

func TestMergeWithItselfIsIdempotent(t *testing.T) {
	src := richSource()

	merged, err := Merge(src, src.Clone())
	require.NoError(t, err)

	assert.Equal(t, src.Counts(), merged.Counts())
	assert.Equal(t, "Favorites", merged.Tags[0].Name)
	assert.NoError(t, Validate(merged))

	again, err := Merge(merged, src)
	require.NoError(t, err)
	assert.Equal(t, src.Counts(), again.Counts())
}

func TestMergeWithItselfRepeatsPlaylistItems(t *testing.T) {
	b := testutil.NewBuilder()
	loc := b.Location(19, 23, "nwt")
	study := b.Tag("Study")
	b.TagLocation(study, loc, 0)
	item := b.Playlist("clip", loc)
	b.TagPlaylistItem(study, item, 1)
	src := b.Database()

	merged, err := Merge(src, src.Clone())
	require.NoError(t, err)
	require.NoError(t, Validate(merged))

	before, after := src.Counts(), merged.Counts()
	assert.Equal(t, before.Locations, after.Locations)
	assert.Equal(t, before.Tags, after.Tags)
	assert.Equal(t, 2*before.PlaylistItems, after.PlaylistItems, "playlist items are never deduplicated")
	assert.Equal(t, 2*before.PlaylistItemChildren, after.PlaylistItemChildren)
	assert.Equal(t, before.TagMaps+1, after.TagMaps, "the copied item gets its own tag map")
}

func TestMergeReferentialClosure(t *testing.T) {
	other := testutil.NewBuilder()
	loc := other.Location(19, 23, "nwt")
	item := other.Playlist("clip", loc)
	study := other.Tag("Study")
	other.TagPlaylistItem(study, item, 0)
	other.Bookmark(loc, loc, 3, "Psalms")

	sources := []*model.Database{richSource(), other.Database(), richSource()}
	for n := 1; n <= len(sources); n++ {
		merged, err := Merge(sources[:n]...)
		require.NoError(t, err)
		assert.NoError(t, Validate(merged), "with %d sources", n)
	}
}

func TestMergeDropsUnresolvedReferences(t *testing.T) {
	b := testutil.NewBuilder()
	loc := b.Location(1, 1, "nwt")
	pub := b.Publication("nwtsty", 100)
	db := b.Database()

	db.UserMarks = append(db.UserMarks, model.UserMark{UserMarkID: 1, LocationID: 99, UserMarkGUID: "orphan"})
	db.BlockRanges = append(db.BlockRanges, model.BlockRange{BlockRangeID: 1, UserMarkID: 1})
	note := b.Note("note", 1, loc, "kept")
	b.Bookmark(loc, 99, 0, "no publication")
	b.Bookmark(loc, pub, 1, "ok")

	b.TagMap(model.TagMap{TagID: 1})
	b.TagMap(model.TagMap{TagID: 1, LocationID: model.ID(loc), NoteID: model.ID(note)})
	b.TagMap(model.TagMap{TagID: 5, LocationID: model.ID(loc)})
	b.TagNote(1, note, 0)

	db.PlaylistMedia = append(db.PlaylistMedia, model.PlaylistMedia{PlaylistMediaID: 1, MediaType: 1, LocationID: model.ID(77)})
	db.PlaylistItems = append(db.PlaylistItems, model.PlaylistItem{PlaylistItemID: 1, PlaylistMediaID: 42})
	db.PlaylistItemChildren = append(db.PlaylistItemChildren, model.PlaylistItemChild{PlaylistItemChildID: 1, PlaylistItemID: 1})

	result, err := New(nil).Merge([]*model.Database{db})
	require.NoError(t, err)
	merged := result.Database

	assert.Empty(t, merged.UserMarks)
	assert.Empty(t, merged.BlockRanges)
	require.Len(t, merged.Notes, 1)
	assert.False(t, merged.Notes[0].UserMarkID.Valid, "unresolved mark reference is cleared")
	assert.True(t, merged.Notes[0].LocationID.Valid)
	require.Len(t, merged.Bookmarks, 1)
	assert.Equal(t, "ok", merged.Bookmarks[0].Title)
	require.Len(t, merged.TagMaps, 1)
	assert.Equal(t, int64(1), merged.TagMaps[0].NoteID.Int64)
	require.Len(t, merged.PlaylistMedia, 1)
	assert.False(t, merged.PlaylistMedia[0].LocationID.Valid)
	assert.Empty(t, merged.PlaylistItems)
	assert.Empty(t, merged.PlaylistItemChildren)

	assert.Equal(t, map[string]int{
		model.EntityUserMark:          1,
		model.EntityBlockRange:        1,
		model.EntityBookmark:          1,
		model.EntityTagMap:            3,
		model.EntityPlaylistItem:      1,
		model.EntityPlaylistItemChild: 1,
	}, result.Stats.Dropped)
}

func TestMergeBookmarkSlots(t *testing.T) {
	a := testutil.NewBuilder()
	la := a.Location(1, 1, "nwt")
	pa := a.Publication("nwt", 1)
	a.Bookmark(la, pa, 0, "A")

	b := testutil.NewBuilder()
	lb1 := b.Location(1, 1, "nwt")
	lb2 := b.Location(1, 2, "nwt")
	pb := b.Publication("nwt", 1)
	b.Bookmark(lb1, pb, 0, "B same")
	b.Bookmark(lb2, pb, 0, "B collides")
	b.Bookmark(lb2, pb, 1, "B new")

	result, err := New(nil).Merge([]*model.Database{a.Database(), b.Database()})
	require.NoError(t, err)

	bookmarks := result.Database.Bookmarks
	require.Len(t, bookmarks, 2)
	assert.Equal(t, "A", bookmarks[0].Title)
	assert.Equal(t, "B new", bookmarks[1].Title)
	assert.Equal(t, int64(1), bookmarks[1].Slot)
	assert.Equal(t, bookmarks[0].PublicationLocationID, bookmarks[1].PublicationLocationID)
	assert.Equal(t, 1, result.Stats.Deduplicated[model.EntityBookmark])
	assert.Equal(t, 1, result.Stats.Dropped[model.EntityBookmark])
}

func TestMergeTagMapPositions(t *testing.T) {
	a := testutil.NewBuilder()
	a1 := a.Location(1, 1, "nwt")
	a2 := a.Location(1, 2, "nwt")
	studyA := a.Tag("Study")
	a.TagLocation(studyA, a1, 5)
	a.TagLocation(studyA, a2, 2)

	b := testutil.NewBuilder()
	b1 := b.Location(1, 1, "nwt")
	b3 := b.Location(1, 3, "nwt")
	studyB := b.Tag("Study")
	b.TagLocation(studyB, b1, 0)
	b.TagLocation(studyB, b3, 1)

	merged, err := Merge(a.Database(), b.Database())
	require.NoError(t, err)

	type member struct {
		location int64
		position int64
	}
	var got []member
	for _, m := range merged.TagMaps {
		assert.Equal(t, int64(2), m.TagID)
		got = append(got, member{m.LocationID.Int64, m.Position})
	}
	assert.Equal(t, []member{{2, 0}, {1, 1}, {3, 2}}, got)
}

func TestMergeInputFields(t *testing.T) {
	a := testutil.NewBuilder()
	pa := a.Publication("w", 1)
	a.InputField(pa, "tt1", "from A")

	b := testutil.NewBuilder()
	pb := b.Publication("w", 1)
	b.InputField(pb, "tt1", "from B")
	b.InputField(pb, "tt2", "second field")
	b.InputField(99, "tt3", "no location")

	result, err := New(nil).Merge([]*model.Database{a.Database(), b.Database()})
	require.NoError(t, err)

	fields := result.Database.InputFields
	require.Len(t, fields, 2)
	assert.Equal(t, "from A", fields[0].Value)
	assert.Equal(t, "tt2", fields[1].TextTag)
	assert.Equal(t, int64(1), fields[1].LocationID)
	assert.Equal(t, 1, result.Stats.Dropped[model.EntityInputField])
}

func TestMergeBlockRanges(t *testing.T) {
	a := testutil.NewBuilder()
	la := a.Location(40, 5, "nwt")
	a.HighlightWithGUID(la, "shared")

	b := testutil.NewBuilder()
	lb := b.Location(40, 5, "nwt")
	markB := b.HighlightWithGUID(lb, "shared")
	db := b.Database()
	db.BlockRanges = append(db.BlockRanges, model.BlockRange{BlockRangeID: 2, Identifier: 7, UserMarkID: markB})

	merged, err := Merge(a.Database(), db)
	require.NoError(t, err)

	require.Len(t, merged.UserMarks, 1)
	require.Len(t, merged.BlockRanges, 1)
	assert.Equal(t, int64(1), merged.BlockRanges[0].Identifier, "first range wins")
}

func TestMergePlaylists(t *testing.T) {
	a := testutil.NewBuilder()
	a.Playlist("morning", 0)

	b := testutil.NewBuilder()
	loc := b.Location(19, 23, "nwt")
	item := b.Playlist("evening", loc)
	favorites := int64(1)
	b.TagPlaylistItem(favorites, item, 0)

	merged, err := Merge(a.Database(), b.Database())
	require.NoError(t, err)

	assert.Len(t, merged.PlaylistMedia, 2)
	require.Len(t, merged.PlaylistItems, 2)
	assert.Len(t, merged.PlaylistItemChildren, 2)
	assert.Equal(t, int64(2), merged.PlaylistItems[1].PlaylistMediaID)
	assert.Equal(t, int64(2), merged.PlaylistItemChildren[1].PlaylistItemID)

	require.Len(t, merged.TagMaps, 1)
	assert.Equal(t, int64(2), merged.TagMaps[0].PlaylistItemID.Int64)
	assert.Equal(t, int64(1), merged.PlaylistMedia[1].LocationID.Int64)
}

func TestMergeLastModifiedUsesClock(t *testing.T) {
	zone := time.FixedZone("CEST", 2*60*60)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, zone)

	src := richSource()
	src.LastModified.TimeLastModified = model.Text("2001-01-01T00:00:00Z")

	result, err := New(&Config{Now: func() time.Time { return now }}).Merge([]*model.Database{src})
	require.NoError(t, err)

	assert.Equal(t, "2024-05-06T05:08:09Z", result.Database.LastModified.TimeLastModified.String)
}

func TestMergeDoesNotModifySources(t *testing.T) {
	a := richSource()
	b := richSource()
	b.Tags[1].Name = "Research"
	snapshotA, snapshotB := a.Clone(), b.Clone()

	_, err := Merge(a, b)
	require.NoError(t, err)

	assert.Equal(t, snapshotA, a)
	assert.Equal(t, snapshotB, b)
}

func TestMergeReportsProgressAndEvents(t *testing.T) {
	logger, err := report.NewEventLogger(t.TempDir(), report.LevelDebug)
	require.NoError(t, err)

	var messages []string
	m := New(&Config{
		SourceNames: []string{"a.jwlibrary", "b.jwlibrary"},
		Events:      logger,
		Progress:    func(msg string) { messages = append(messages, msg) },
	})

	_, err = m.Merge([]*model.Database{richSource(), richSource()})
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	assert.Equal(t, []string{"Merging a.jwlibrary", "Merging b.jwlibrary"}, messages)

	file, err := os.Open(logger.Path())
	require.NoError(t, err)
	defer file.Close()

	dedups := 0
	merges := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event report.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		switch event.Event {
		case report.EventDedup:
			assert.Equal(t, "b.jwlibrary", event.Source)
			dedups++
		case report.EventMerge:
			merges++
		}
	}
	require.NoError(t, scanner.Err())
	assert.Greater(t, dedups, 0)
	assert.Equal(t, 1, merges)
}
