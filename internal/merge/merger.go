package merge

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/franz/jwl-merge/internal/model"
	"github.com/franz/jwl-merge/internal/report"
	"github.com/franz/jwl-merge/internal/util"
)

// Config holds merger configuration
type Config struct {
	// SourceNames labels each input in events and progress messages
	SourceNames []string
	Events      *report.EventLogger
	Progress    report.ProgressFunc
	// Now stamps LastModified; defaults to time.Now
	Now func() time.Time
}

// Merger combines cleaned databases into one with fresh, consistent ids.
// Sources are processed in order and the first copy of an equivalent row wins.
type Merger struct {
	config *Config
}

// Stats counts the rows collapsed and dropped per entity type
type Stats struct {
	Sources      int
	Deduplicated map[string]int
	Dropped      map[string]int
}

// Result is the outcome of a merge run
type Result struct {
	Database *model.Database
	Stats    *Stats
	Duration time.Duration
}

// New creates a new merger
func New(config *Config) *Merger {
	if config == nil {
		config = &Config{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Merger{config: config}
}

// Merge merges the databases with a default merger
func Merge(sources ...*model.Database) (*model.Database, error) {
	result, err := New(nil).Merge(sources)
	if err != nil {
		return nil, err
	}
	return result.Database, nil
}

// Merge produces one database from the ordered sources. The sources are not
// modified. The only caller error is an empty input; rows whose references
// cannot be resolved are dropped, never reported as errors.
func (m *Merger) Merge(sources []*model.Database) (*Result, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	start := time.Now()
	r := newRun(m.config)

	for i, src := range sources {
		name := m.sourceName(i)
		m.config.Progress.Send("Merging %s", name)
		util.DebugLog("Merging %s (%s)", name, src.Counts())
		r.mergeSource(name, src)
	}

	r.out.LastModified.Touch(m.config.Now())

	if err := Validate(r.out); err != nil {
		return nil, fmt.Errorf("%w: merged database: %w", ErrIntegrity, err)
	}

	r.stats.Sources = len(sources)
	duration := time.Since(start)
	m.config.Events.LogMerge(len(sources), r.out.Counts(), duration)

	return &Result{Database: r.out, Stats: r.stats, Duration: duration}, nil
}

func (m *Merger) sourceName(i int) string {
	if i < len(m.config.SourceNames) && m.config.SourceNames[i] != "" {
		return m.config.SourceNames[i]
	}
	return fmt.Sprintf("source %d", i+1)
}

// run is the state of one merge invocation. It is discarded afterwards.
type run struct {
	config *Config
	out    *model.Database
	stats  *Stats

	locations       map[model.LocationKey]int64
	tags            map[model.TagKey]int64
	userMarks       map[string]int64
	notes           map[string]int64
	rangeByUserMark map[int64]int64
	bookmarks       map[model.BookmarkKey]int64
	slots           map[model.SlotKey]bool
	inputFields     map[model.InputFieldKey]bool
	tagMaps         map[model.TagMapKey]int64
	nextPosition    map[int64]int64

	// set per source
	source string
	ids    *translators
}

func newRun(config *Config) *run {
	return &run{
		config: config,
		out:    &model.Database{},
		stats: &Stats{
			Deduplicated: make(map[string]int),
			Dropped:      make(map[string]int),
		},
		locations:       make(map[model.LocationKey]int64),
		tags:            make(map[model.TagKey]int64),
		userMarks:       make(map[string]int64),
		notes:           make(map[string]int64),
		rangeByUserMark: make(map[int64]int64),
		bookmarks:       make(map[model.BookmarkKey]int64),
		slots:           make(map[model.SlotKey]bool),
		inputFields:     make(map[model.InputFieldKey]bool),
		tagMaps:         make(map[model.TagMapKey]int64),
		nextPosition:    make(map[int64]int64),
	}
}

// mergeSource folds one source into the output. Each stage only depends on
// translators filled by earlier stages.
func (r *run) mergeSource(name string, src *model.Database) {
	r.source = name
	r.ids = newTranslators()

	r.mergeLocations(src.Locations)
	r.mergeTags(src.Tags)
	r.mergeUserMarks(src.UserMarks)
	r.mergeBlockRanges(src.BlockRanges)
	r.mergeNotes(src.Notes)
	r.mergeBookmarks(src.Bookmarks)
	r.mergeInputFields(src.InputFields)
	r.mergePlaylistMedia(src.PlaylistMedia)
	r.mergePlaylistItems(src.PlaylistItems)
	r.mergePlaylistItemChildren(src.PlaylistItemChildren)
	r.mergeTagMaps(src.TagMaps)

	util.DebugLog("%s: mapped %d locations, %d tags, %d user marks, %d notes",
		name, r.ids.locations.Len(), r.ids.tags.Len(), r.ids.userMarks.Len(), r.ids.notes.Len())
}

func (r *run) dedup(entity string, sourceID, mergedID int64) {
	r.stats.Deduplicated[entity]++
	r.config.Events.LogDedup(r.source, entity, sourceID, mergedID)
}

func (r *run) drop(entity string, sourceID int64, reason string) {
	r.stats.Dropped[entity]++
	util.DebugLog("%s: dropping %s %d: %s", r.source, entity, sourceID, reason)
	r.config.Events.LogDrop(r.source, entity, sourceID, reason)
}

// dropRef records an optional reference cleared from a kept row
func (r *run) dropRef(entity string, sourceID int64, reason string) {
	r.config.Events.LogDrop(r.source, entity, sourceID, reason)
}

func (r *run) mergeLocations(rows []model.Location) {
	for _, l := range rows {
		key := l.Key()
		if id, ok := r.locations[key]; ok {
			r.ids.locations.Add(l.LocationID, id)
			r.dedup(model.EntityLocation, l.LocationID, id)
			continue
		}
		id := int64(len(r.out.Locations) + 1)
		row := l
		row.LocationID = id
		r.out.Locations = append(r.out.Locations, row)
		r.locations[key] = id
		r.ids.locations.Add(l.LocationID, id)
	}
}

func (r *run) mergeTags(rows []model.Tag) {
	for _, t := range rows {
		key := t.Key()
		if id, ok := r.tags[key]; ok {
			r.ids.tags.Add(t.TagID, id)
			r.dedup(model.EntityTag, t.TagID, id)
			continue
		}
		id := int64(len(r.out.Tags) + 1)
		row := t
		row.TagID = id
		r.out.Tags = append(r.out.Tags, row)
		r.tags[key] = id
		r.ids.tags.Add(t.TagID, id)
	}
}

func (r *run) mergeUserMarks(rows []model.UserMark) {
	for _, m := range rows {
		if id, ok := r.userMarks[m.UserMarkGUID]; ok {
			r.ids.userMarks.Add(m.UserMarkID, id)
			r.dedup(model.EntityUserMark, m.UserMarkID, id)
			continue
		}
		location := r.ids.locations.Translate(m.LocationID)
		if location == 0 {
			r.drop(model.EntityUserMark, m.UserMarkID, "location unresolved")
			continue
		}
		id := int64(len(r.out.UserMarks) + 1)
		row := m
		row.UserMarkID = id
		row.LocationID = location
		r.out.UserMarks = append(r.out.UserMarks, row)
		r.userMarks[m.UserMarkGUID] = id
		r.ids.userMarks.Add(m.UserMarkID, id)
	}
}

func (r *run) mergeBlockRanges(rows []model.BlockRange) {
	for _, b := range rows {
		userMark := r.ids.userMarks.Translate(b.UserMarkID)
		if userMark == 0 {
			r.drop(model.EntityBlockRange, b.BlockRangeID, "user mark unresolved")
			continue
		}
		if id, ok := r.rangeByUserMark[userMark]; ok {
			r.dedup(model.EntityBlockRange, b.BlockRangeID, id)
			continue
		}
		id := int64(len(r.out.BlockRanges) + 1)
		row := b
		row.BlockRangeID = id
		row.UserMarkID = userMark
		r.out.BlockRanges = append(r.out.BlockRanges, row)
		r.rangeByUserMark[userMark] = id
	}
}

func (r *run) mergeNotes(rows []model.Note) {
	for _, n := range rows {
		if id, ok := r.notes[n.GUID]; ok {
			r.ids.notes.Add(n.NoteID, id)
			r.dedup(model.EntityNote, n.NoteID, id)
			continue
		}
		row := n
		if n.UserMarkID.Valid {
			row.UserMarkID = translateOptional(r.ids.userMarks, n.UserMarkID.Int64)
			if !row.UserMarkID.Valid {
				r.dropRef(model.EntityNote, n.NoteID, "user mark reference unresolved")
			}
		}
		if n.LocationID.Valid {
			row.LocationID = translateOptional(r.ids.locations, n.LocationID.Int64)
			if !row.LocationID.Valid {
				r.dropRef(model.EntityNote, n.NoteID, "location reference unresolved")
			}
		}
		id := int64(len(r.out.Notes) + 1)
		row.NoteID = id
		r.out.Notes = append(r.out.Notes, row)
		r.notes[n.GUID] = id
		r.ids.notes.Add(n.NoteID, id)
	}
}

// translateOptional returns the merged reference, or null when unresolved
func translateOptional(t *IDTranslator, sourceID int64) sql.NullInt64 {
	if id := t.Translate(sourceID); id != 0 {
		return model.ID(id)
	}
	return sql.NullInt64{}
}

func (r *run) mergeBookmarks(rows []model.Bookmark) {
	for _, b := range rows {
		location := r.ids.locations.Translate(b.LocationID)
		publication := r.ids.locations.Translate(b.PublicationLocationID)
		if location == 0 || publication == 0 {
			r.drop(model.EntityBookmark, b.BookmarkID, "location unresolved")
			continue
		}
		row := b
		row.LocationID = location
		row.PublicationLocationID = publication

		if id, ok := r.bookmarks[row.Key()]; ok {
			r.dedup(model.EntityBookmark, b.BookmarkID, id)
			continue
		}
		if r.slots[row.SlotKey()] {
			r.drop(model.EntityBookmark, b.BookmarkID, fmt.Sprintf("slot %d already occupied", b.Slot))
			continue
		}
		id := int64(len(r.out.Bookmarks) + 1)
		row.BookmarkID = id
		r.out.Bookmarks = append(r.out.Bookmarks, row)
		r.bookmarks[row.Key()] = id
		r.slots[row.SlotKey()] = true
	}
}

func (r *run) mergeInputFields(rows []model.InputField) {
	for _, f := range rows {
		location := r.ids.locations.Translate(f.LocationID)
		if location == 0 {
			r.drop(model.EntityInputField, f.LocationID, "location unresolved")
			continue
		}
		row := f
		row.LocationID = location
		if r.inputFields[row.Key()] {
			r.dedup(model.EntityInputField, f.LocationID, location)
			continue
		}
		r.out.InputFields = append(r.out.InputFields, row)
		r.inputFields[row.Key()] = true
	}
}

func (r *run) mergePlaylistMedia(rows []model.PlaylistMedia) {
	for _, p := range rows {
		row := p
		if p.LocationID.Valid {
			row.LocationID = translateOptional(r.ids.locations, p.LocationID.Int64)
			if !row.LocationID.Valid {
				r.dropRef(model.EntityPlaylistMedia, p.PlaylistMediaID, "location reference unresolved")
			}
		}
		id := int64(len(r.out.PlaylistMedia) + 1)
		row.PlaylistMediaID = id
		r.out.PlaylistMedia = append(r.out.PlaylistMedia, row)
		r.ids.playlistMedia.Add(p.PlaylistMediaID, id)
	}
}

func (r *run) mergePlaylistItems(rows []model.PlaylistItem) {
	for _, p := range rows {
		media := r.ids.playlistMedia.Translate(p.PlaylistMediaID)
		if media == 0 {
			r.drop(model.EntityPlaylistItem, p.PlaylistItemID, "playlist media unresolved")
			continue
		}
		id := int64(len(r.out.PlaylistItems) + 1)
		row := p
		row.PlaylistItemID = id
		row.PlaylistMediaID = media
		r.out.PlaylistItems = append(r.out.PlaylistItems, row)
		r.ids.playlistItems.Add(p.PlaylistItemID, id)
	}
}

func (r *run) mergePlaylistItemChildren(rows []model.PlaylistItemChild) {
	for _, c := range rows {
		item := r.ids.playlistItems.Translate(c.PlaylistItemID)
		if item == 0 {
			r.drop(model.EntityPlaylistItemChild, c.PlaylistItemChildID, "playlist item unresolved")
			continue
		}
		row := c
		row.PlaylistItemChildID = int64(len(r.out.PlaylistItemChildren) + 1)
		row.PlaylistItemID = item
		r.out.PlaylistItemChildren = append(r.out.PlaylistItemChildren, row)
	}
}

func (r *run) mergeTagMaps(rows []model.TagMap) {
	// Keep the members of each tag in their original relative order
	sorted := make([]model.TagMap, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TagID != b.TagID {
			return a.TagID < b.TagID
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.TagMapID < b.TagMapID
	})

	for _, m := range sorted {
		kind, target := m.Target()
		if kind == model.TargetNone || kind == model.TargetMultiple {
			r.drop(model.EntityTagMap, m.TagMapID, fmt.Sprintf("target is %s", kind))
			continue
		}
		tag := r.ids.tags.Translate(m.TagID)
		if tag == 0 {
			r.drop(model.EntityTagMap, m.TagMapID, "tag unresolved")
			continue
		}
		mergedTarget := r.translateTarget(kind, target)
		if mergedTarget == 0 {
			r.drop(model.EntityTagMap, m.TagMapID, kind.String()+" unresolved")
			continue
		}

		row := m.WithTarget(kind, mergedTarget)
		row.TagID = tag
		key := row.Key()
		if id, ok := r.tagMaps[key]; ok {
			r.dedup(model.EntityTagMap, m.TagMapID, id)
			continue
		}
		id := int64(len(r.out.TagMaps) + 1)
		row.TagMapID = id
		row.Position = r.nextPosition[tag]
		r.nextPosition[tag]++
		r.out.TagMaps = append(r.out.TagMaps, row)
		r.tagMaps[key] = id
	}
}

func (r *run) translateTarget(kind model.TargetKind, id int64) int64 {
	switch kind {
	case model.TargetLocation:
		return r.ids.locations.Translate(id)
	case model.TargetNote:
		return r.ids.notes.Translate(id)
	case model.TargetPlaylistItem:
		return r.ids.playlistItems.Translate(id)
	default:
		return 0
	}
}
