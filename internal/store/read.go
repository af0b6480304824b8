package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/franz/jwl-merge/internal/model"
)

// ReadDatabase loads every row of the store into memory. Tables missing from
// the store read as empty.
func (s *Store) ReadDatabase(ctx context.Context) (*model.Database, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}

	db := &model.Database{}

	if tables[model.EntityLastModified] {
		err := s.db.QueryRowContext(ctx, "SELECT LastModified FROM LastModified LIMIT 1").
			Scan(&db.LastModified.TimeLastModified)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to read LastModified: %w", err)
		}
	}

	readers := []struct {
		table string
		query string
		scan  func(*sql.Rows) error
	}{
		{model.EntityLocation, `
			SELECT LocationId, BookNumber, ChapterNumber, DocumentId, Track,
			       COALESCE(IssueTagNumber, 0), KeySymbol, MepsLanguage, Type, Title
			FROM Location ORDER BY LocationId`,
			func(rows *sql.Rows) error {
				var l model.Location
				err := rows.Scan(&l.LocationID, &l.BookNumber, &l.ChapterNumber, &l.DocumentID, &l.Track,
					&l.IssueTagNumber, &l.KeySymbol, &l.MepsLanguage, &l.Type, &l.Title)
				db.Locations = append(db.Locations, l)
				return err
			}},
		{model.EntityTag, `SELECT TagId, Type, Name FROM Tag ORDER BY TagId`,
			func(rows *sql.Rows) error {
				var t model.Tag
				err := rows.Scan(&t.TagID, &t.Type, &t.Name)
				db.Tags = append(db.Tags, t)
				return err
			}},
		{model.EntityTagMap, `
			SELECT TagMapId, PlaylistItemId, LocationId, NoteId, TagId, Position
			FROM TagMap ORDER BY TagMapId`,
			func(rows *sql.Rows) error {
				var m model.TagMap
				err := rows.Scan(&m.TagMapID, &m.PlaylistItemID, &m.LocationID, &m.NoteID, &m.TagID, &m.Position)
				db.TagMaps = append(db.TagMaps, m)
				return err
			}},
		{model.EntityUserMark, `
			SELECT UserMarkId, ColorIndex, LocationId, StyleIndex, UserMarkGuid, Version
			FROM UserMark ORDER BY UserMarkId`,
			func(rows *sql.Rows) error {
				var m model.UserMark
				err := rows.Scan(&m.UserMarkID, &m.ColorIndex, &m.LocationID, &m.StyleIndex, &m.UserMarkGUID, &m.Version)
				db.UserMarks = append(db.UserMarks, m)
				return err
			}},
		{model.EntityBlockRange, `
			SELECT BlockRangeId, BlockType, Identifier, StartToken, EndToken, UserMarkId
			FROM BlockRange ORDER BY BlockRangeId`,
			func(rows *sql.Rows) error {
				var r model.BlockRange
				err := rows.Scan(&r.BlockRangeID, &r.BlockType, &r.Identifier, &r.StartToken, &r.EndToken, &r.UserMarkID)
				db.BlockRanges = append(db.BlockRanges, r)
				return err
			}},
		{model.EntityNote, `
			SELECT NoteId, Guid, UserMarkId, LocationId, Title, Content,
			       COALESCE(LastModified, ''), BlockType, BlockIdentifier
			FROM Note ORDER BY NoteId`,
			func(rows *sql.Rows) error {
				var n model.Note
				err := rows.Scan(&n.NoteID, &n.GUID, &n.UserMarkID, &n.LocationID, &n.Title, &n.Content,
					&n.LastModified, &n.BlockType, &n.BlockIdentifier)
				db.Notes = append(db.Notes, n)
				return err
			}},
		// Shelf order, the way the app lists them
		{model.EntityBookmark, `
			SELECT BookmarkId, LocationId, PublicationLocationId, Slot, Title, Snippet, BlockType, BlockIdentifier
			FROM Bookmark ORDER BY Slot, BookmarkId`,
			func(rows *sql.Rows) error {
				var b model.Bookmark
				err := rows.Scan(&b.BookmarkID, &b.LocationID, &b.PublicationLocationID, &b.Slot, &b.Title,
					&b.Snippet, &b.BlockType, &b.BlockIdentifier)
				db.Bookmarks = append(db.Bookmarks, b)
				return err
			}},
		{model.EntityInputField, `
			SELECT LocationId, TextTag, COALESCE(Value, '')
			FROM InputField ORDER BY LocationId, TextTag`,
			func(rows *sql.Rows) error {
				var f model.InputField
				err := rows.Scan(&f.LocationID, &f.TextTag, &f.Value)
				db.InputFields = append(db.InputFields, f)
				return err
			}},
		{model.EntityPlaylistMedia, `
			SELECT PlaylistMediaId, MediaType, Label, Filename, LocationId
			FROM PlaylistMedia ORDER BY PlaylistMediaId`,
			func(rows *sql.Rows) error {
				var p model.PlaylistMedia
				err := rows.Scan(&p.PlaylistMediaID, &p.MediaType, &p.Label, &p.Filename, &p.LocationID)
				db.PlaylistMedia = append(db.PlaylistMedia, p)
				return err
			}},
		{model.EntityPlaylistItem, `
			SELECT PlaylistItemId, Label, AccuracyStatement, StartTimeOffsetTicks, EndTimeOffsetTicks,
			       EndAction, ThumbnailFilename, PlaylistMediaId
			FROM PlaylistItem ORDER BY PlaylistItemId`,
			func(rows *sql.Rows) error {
				var p model.PlaylistItem
				err := rows.Scan(&p.PlaylistItemID, &p.Label, &p.AccuracyStatement, &p.StartTimeOffsetTicks,
					&p.EndTimeOffsetTicks, &p.EndAction, &p.ThumbnailFilename, &p.PlaylistMediaID)
				db.PlaylistItems = append(db.PlaylistItems, p)
				return err
			}},
		{model.EntityPlaylistItemChild, `
			SELECT PlaylistItemChildId, BaseDurationTicks, MarkerId, MarkerLabel, MarkerStartTimeTicks,
			       MarkerEndTransitionDurationTicks, PlaylistItemId
			FROM PlaylistItemChild ORDER BY PlaylistItemChildId`,
			func(rows *sql.Rows) error {
				var c model.PlaylistItemChild
				err := rows.Scan(&c.PlaylistItemChildID, &c.BaseDurationTicks, &c.MarkerID, &c.MarkerLabel,
					&c.MarkerStartTimeTicks, &c.MarkerEndTransitionDurationTicks, &c.PlaylistItemID)
				db.PlaylistItemChildren = append(db.PlaylistItemChildren, c)
				return err
			}},
	}

	for _, r := range readers {
		if !tables[r.table] {
			continue
		}
		if err := s.readTable(ctx, r.table, r.query, r.scan); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func (s *Store) readTable(ctx context.Context, table, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", table, err)
	}
	return nil
}
