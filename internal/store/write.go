package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/franz/jwl-merge/internal/model"
	"github.com/franz/jwl-merge/internal/util"
)

// CreateEmptyClone copies the store at donorPath to clonePath and deletes
// every row, keeping the donor's schema. An existing file at clonePath is
// replaced.
func CreateEmptyClone(ctx context.Context, donorPath, clonePath string) (*Store, error) {
	if err := os.Remove(clonePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove old clone: %w", err)
	}
	if err := util.CopyFile(donorPath, clonePath); err != nil {
		return nil, fmt.Errorf("failed to copy schema donor: %w", err)
	}

	s, err := Open(clonePath)
	if err != nil {
		return nil, err
	}
	if err := s.clear(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// clear deletes all rows and compacts the file
func (s *Store) clear(ctx context.Context) error {
	tables, err := s.Tables(ctx)
	if err != nil {
		return err
	}

	err = s.Transaction(ctx, func(tx *sql.Tx) error {
		for table := range tables {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %q", table)); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum: %w", err)
	}
	return nil
}

// Populate inserts every row of db in one transaction, parents before
// children. The store is expected to be empty.
func (s *Store) Populate(ctx context.Context, db *model.Database) error {
	tables, err := s.Tables(ctx)
	if err != nil {
		return err
	}

	return s.Transaction(ctx, func(tx *sql.Tx) error {
		w := &writer{ctx: ctx, tx: tx, tables: tables}

		insertRows(w, model.EntityLocation, []string{
			"LocationId", "BookNumber", "ChapterNumber", "DocumentId", "Track",
			"IssueTagNumber", "KeySymbol", "MepsLanguage", "Type", "Title",
		}, db.Locations, func(l model.Location) []any {
			return []any{l.LocationID, l.BookNumber, l.ChapterNumber, l.DocumentID, l.Track,
				l.IssueTagNumber, l.KeySymbol, l.MepsLanguage, l.Type, l.Title}
		})
		insertRows(w, model.EntityTag, []string{"TagId", "Type", "Name"}, db.Tags,
			func(t model.Tag) []any {
				return []any{t.TagID, t.Type, t.Name}
			})
		insertRows(w, model.EntityUserMark, []string{
			"UserMarkId", "ColorIndex", "LocationId", "StyleIndex", "UserMarkGuid", "Version",
		}, db.UserMarks, func(m model.UserMark) []any {
			return []any{m.UserMarkID, m.ColorIndex, m.LocationID, m.StyleIndex, m.UserMarkGUID, m.Version}
		})
		insertRows(w, model.EntityBlockRange, []string{
			"BlockRangeId", "BlockType", "Identifier", "StartToken", "EndToken", "UserMarkId",
		}, db.BlockRanges, func(r model.BlockRange) []any {
			return []any{r.BlockRangeID, r.BlockType, r.Identifier, r.StartToken, r.EndToken, r.UserMarkID}
		})
		insertRows(w, model.EntityNote, []string{
			"NoteId", "Guid", "UserMarkId", "LocationId", "Title", "Content",
			"LastModified", "BlockType", "BlockIdentifier",
		}, db.Notes, func(n model.Note) []any {
			return []any{n.NoteID, n.GUID, n.UserMarkID, n.LocationID, n.Title, n.Content,
				n.LastModified, n.BlockType, n.BlockIdentifier}
		})
		insertRows(w, model.EntityBookmark, []string{
			"BookmarkId", "LocationId", "PublicationLocationId", "Slot", "Title",
			"Snippet", "BlockType", "BlockIdentifier",
		}, db.Bookmarks, func(b model.Bookmark) []any {
			return []any{b.BookmarkID, b.LocationID, b.PublicationLocationID, b.Slot, b.Title,
				b.Snippet, b.BlockType, b.BlockIdentifier}
		})
		insertRows(w, model.EntityInputField, []string{"LocationId", "TextTag", "Value"}, db.InputFields,
			func(f model.InputField) []any {
				return []any{f.LocationID, f.TextTag, f.Value}
			})
		insertRows(w, model.EntityPlaylistMedia, []string{
			"PlaylistMediaId", "MediaType", "Label", "Filename", "LocationId",
		}, db.PlaylistMedia, func(p model.PlaylistMedia) []any {
			return []any{p.PlaylistMediaID, p.MediaType, p.Label, p.Filename, p.LocationID}
		})
		insertRows(w, model.EntityPlaylistItem, []string{
			"PlaylistItemId", "Label", "AccuracyStatement", "StartTimeOffsetTicks",
			"EndTimeOffsetTicks", "EndAction", "ThumbnailFilename", "PlaylistMediaId",
		}, db.PlaylistItems, func(p model.PlaylistItem) []any {
			return []any{p.PlaylistItemID, p.Label, p.AccuracyStatement, p.StartTimeOffsetTicks,
				p.EndTimeOffsetTicks, p.EndAction, p.ThumbnailFilename, p.PlaylistMediaID}
		})
		insertRows(w, model.EntityPlaylistItemChild, []string{
			"PlaylistItemChildId", "BaseDurationTicks", "MarkerId", "MarkerLabel",
			"MarkerStartTimeTicks", "MarkerEndTransitionDurationTicks", "PlaylistItemId",
		}, db.PlaylistItemChildren, func(c model.PlaylistItemChild) []any {
			return []any{c.PlaylistItemChildID, c.BaseDurationTicks, c.MarkerID, c.MarkerLabel,
				c.MarkerStartTimeTicks, c.MarkerEndTransitionDurationTicks, c.PlaylistItemID}
		})
		insertRows(w, model.EntityTagMap, []string{
			"TagMapId", "PlaylistItemId", "LocationId", "NoteId", "TagId", "Position",
		}, db.TagMaps, func(m model.TagMap) []any {
			return []any{m.TagMapID, m.PlaylistItemID, m.LocationID, m.NoteID, m.TagID, m.Position}
		})

		if w.err != nil {
			return w.err
		}
		return w.writeLastModified(db.LastModified)
	})
}

// writer carries the first error across a sequence of inserts
type writer struct {
	ctx    context.Context
	tx     *sql.Tx
	tables map[string]bool
	err    error
}

func insertRows[T any](w *writer, table string, columns []string, rows []T, values func(T) []any) {
	if w.err != nil || len(rows) == 0 {
		return
	}
	if !w.tables[table] {
		w.err = fmt.Errorf("%w: store has no %s table for %d rows", util.ErrUnsupported, table, len(rows))
		return
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)

	stmt, err := w.tx.PrepareContext(w.ctx, query)
	if err != nil {
		w.err = fmt.Errorf("failed to prepare %s insert: %w", table, err)
		return
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(w.ctx, values(row)...); err != nil {
			w.err = fmt.Errorf("failed to insert %s: %w", table, err)
			return
		}
	}
}

func (w *writer) writeLastModified(lm model.LastModified) error {
	if !w.tables[model.EntityLastModified] || !lm.TimeLastModified.Valid {
		return nil
	}
	if _, err := w.tx.ExecContext(w.ctx, "DELETE FROM LastModified"); err != nil {
		return fmt.Errorf("failed to reset LastModified: %w", err)
	}
	if _, err := w.tx.ExecContext(w.ctx, "INSERT INTO LastModified (LastModified) VALUES (?)", lm.TimeLastModified.String); err != nil {
		return fmt.Errorf("failed to write LastModified: %w", err)
	}
	return nil
}
