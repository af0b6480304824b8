package store

// schemaV8 creates the tables of a version 8 user data store. Backups
// written by the merger normally take their schema from an input file; this
// copy is used for blank backups and tests.
const schemaV8 = `
CREATE TABLE Location (
  LocationId INTEGER NOT NULL PRIMARY KEY,
  BookNumber INTEGER,
  ChapterNumber INTEGER,
  DocumentId INTEGER,
  Track INTEGER,
  IssueTagNumber INTEGER NOT NULL DEFAULT 0,
  KeySymbol TEXT,
  MepsLanguage INTEGER,
  Type INTEGER NOT NULL,
  Title TEXT,
  UNIQUE (BookNumber, ChapterNumber, DocumentId, Track, IssueTagNumber, KeySymbol, MepsLanguage, Type)
);

CREATE TABLE Tag (
  TagId INTEGER NOT NULL PRIMARY KEY,
  Type INTEGER NOT NULL,
  Name TEXT NOT NULL,
  UNIQUE (Type, Name)
);

CREATE TABLE UserMark (
  UserMarkId INTEGER NOT NULL PRIMARY KEY,
  ColorIndex INTEGER NOT NULL,
  LocationId INTEGER NOT NULL REFERENCES Location(LocationId),
  StyleIndex INTEGER NOT NULL,
  UserMarkGuid TEXT NOT NULL UNIQUE,
  Version INTEGER NOT NULL
);

CREATE TABLE BlockRange (
  BlockRangeId INTEGER NOT NULL PRIMARY KEY,
  BlockType INTEGER NOT NULL,
  Identifier INTEGER NOT NULL,
  StartToken INTEGER,
  EndToken INTEGER,
  UserMarkId INTEGER NOT NULL REFERENCES UserMark(UserMarkId)
);

CREATE INDEX IX_BlockRange_UserMarkId ON BlockRange(UserMarkId);

CREATE TABLE Note (
  NoteId INTEGER NOT NULL PRIMARY KEY,
  Guid TEXT NOT NULL UNIQUE,
  UserMarkId INTEGER REFERENCES UserMark(UserMarkId),
  LocationId INTEGER REFERENCES Location(LocationId),
  Title TEXT,
  Content TEXT,
  LastModified TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
  BlockType INTEGER NOT NULL DEFAULT 0,
  BlockIdentifier INTEGER
);

CREATE TABLE Bookmark (
  BookmarkId INTEGER NOT NULL PRIMARY KEY,
  LocationId INTEGER NOT NULL REFERENCES Location(LocationId),
  PublicationLocationId INTEGER NOT NULL REFERENCES Location(LocationId),
  Slot INTEGER NOT NULL,
  Title TEXT NOT NULL,
  Snippet TEXT,
  BlockType INTEGER NOT NULL DEFAULT 0,
  BlockIdentifier INTEGER,
  UNIQUE (PublicationLocationId, Slot)
);

CREATE TABLE InputField (
  LocationId INTEGER NOT NULL REFERENCES Location(LocationId),
  TextTag TEXT NOT NULL,
  Value TEXT NOT NULL,
  PRIMARY KEY (LocationId, TextTag)
);

CREATE TABLE PlaylistMedia (
  PlaylistMediaId INTEGER NOT NULL PRIMARY KEY,
  MediaType INTEGER NOT NULL,
  Label TEXT,
  Filename TEXT,
  LocationId INTEGER REFERENCES Location(LocationId)
);

CREATE TABLE PlaylistItem (
  PlaylistItemId INTEGER NOT NULL PRIMARY KEY,
  Label TEXT,
  AccuracyStatement INTEGER NOT NULL,
  StartTimeOffsetTicks INTEGER NOT NULL,
  EndTimeOffsetTicks INTEGER NOT NULL,
  EndAction INTEGER NOT NULL,
  ThumbnailFilename TEXT,
  PlaylistMediaId INTEGER NOT NULL REFERENCES PlaylistMedia(PlaylistMediaId)
);

CREATE TABLE PlaylistItemChild (
  PlaylistItemChildId INTEGER NOT NULL PRIMARY KEY,
  BaseDurationTicks INTEGER NOT NULL,
  MarkerId INTEGER NOT NULL,
  MarkerLabel TEXT,
  MarkerStartTimeTicks INTEGER NOT NULL,
  MarkerEndTransitionDurationTicks INTEGER NOT NULL,
  PlaylistItemId INTEGER NOT NULL REFERENCES PlaylistItem(PlaylistItemId)
);

CREATE TABLE TagMap (
  TagMapId INTEGER NOT NULL PRIMARY KEY,
  PlaylistItemId INTEGER REFERENCES PlaylistItem(PlaylistItemId),
  LocationId INTEGER REFERENCES Location(LocationId),
  NoteId INTEGER REFERENCES Note(NoteId),
  TagId INTEGER NOT NULL REFERENCES Tag(TagId),
  Position INTEGER NOT NULL,
  CHECK ((PlaylistItemId IS NOT NULL) + (LocationId IS NOT NULL) + (NoteId IS NOT NULL) = 1),
  UNIQUE (TagId, Position)
);

CREATE TABLE LastModified (
  LastModified TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

INSERT INTO LastModified DEFAULT VALUES;
`
