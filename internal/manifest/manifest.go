// Package manifest reads and writes the manifest.json entry of a backup
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/franz/jwl-merge/internal/util"
)

const (
	// EntryName is the archive entry holding the manifest
	EntryName = "manifest.json"
	// DatabaseName is the name given to the store of a written backup
	DatabaseName = "userData.db"
	// DeviceName identifies backups written by this tool
	DeviceName = "jwlmerge"

	SupportedVersion       = 1
	SupportedSchemaVersion = 8

	dateLayout = "2006-01-02"
)

var (
	// ErrManifestVersion matches a VersionError for the manifest format version
	ErrManifestVersion = errors.New("unsupported manifest version")
	// ErrSchemaVersion matches a VersionError for the store schema version
	ErrSchemaVersion = errors.New("unsupported schema version")
)

// Manifest describes a backup and its embedded store
type Manifest struct {
	Name           string         `json:"name"`
	CreationDate   string         `json:"creationDate"`
	Version        int            `json:"version"`
	Type           int            `json:"type"`
	UserDataBackup UserDataBackup `json:"userDataBackup"`
}

// UserDataBackup describes the embedded store
type UserDataBackup struct {
	LastModifiedDate string `json:"lastModifiedDate"`
	DeviceName       string `json:"deviceName"`
	DatabaseName     string `json:"databaseName"`
	Hash             string `json:"hash"`
	SchemaVersion    int    `json:"schemaVersion"`
}

// VersionKind tells which version a VersionError is about
type VersionKind string

const (
	KindManifest VersionKind = "manifest"
	KindSchema   VersionKind = "schema"
)

// VersionError reports a backup whose manifest or schema version is not supported
type VersionError struct {
	Kind     VersionKind
	Filename string
	Expected int
	Found    int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("wrong %s version found (%d) in %s, expecting %d", e.Kind, e.Found, e.Filename, e.Expected)
}

// Is matches the sentinel for the error's kind
func (e *VersionError) Is(target error) bool {
	switch target {
	case ErrManifestVersion:
		return e.Kind == KindManifest
	case ErrSchemaVersion:
		return e.Kind == KindSchema
	case util.ErrUnsupported:
		return true
	}
	return false
}

// versions holds just the fields needed to decide whether a manifest is readable.
// Missing versions decode as zero.
type versions struct {
	Version        int `json:"version"`
	UserDataBackup struct {
		SchemaVersion int `json:"schemaVersion"`
	} `json:"userDataBackup"`
}

// Parse validates the versions declared in data and then decodes the full
// manifest. filename is only used in errors.
func Parse(filename string, data []byte) (*Manifest, error) {
	var p versions
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: invalid manifest: %v", util.ErrCorrupt, filename, err)
	}

	if p.Version != SupportedVersion {
		return nil, &VersionError{Kind: KindManifest, Filename: filename, Expected: SupportedVersion, Found: p.Version}
	}
	if p.UserDataBackup.SchemaVersion != SupportedSchemaVersion {
		return nil, &VersionError{Kind: KindSchema, Filename: filename, Expected: SupportedSchemaVersion, Found: p.UserDataBackup.SchemaVersion}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: invalid manifest: %v", util.ErrCorrupt, filename, err)
	}
	if m.UserDataBackup.DatabaseName == "" {
		return nil, fmt.Errorf("%w: %s: manifest names no database", util.ErrCorrupt, filename)
	}
	return &m, nil
}

// Marshal encodes the manifest as written into archives
func (m *Manifest) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// ForMerge returns the manifest for a merged backup based on base
func ForMerge(base *Manifest, now time.Time) *Manifest {
	m := *base
	date := now.Format(dateLayout)
	m.Name = "merged_" + date
	m.CreationDate = date
	m.UserDataBackup.DeviceName = DeviceName
	m.UserDataBackup.DatabaseName = DatabaseName
	m.UserDataBackup.LastModifiedDate = now.Format(time.RFC3339)
	m.UserDataBackup.Hash = ""
	return &m
}

// NewBlank returns a manifest for an empty backup
func NewBlank(now time.Time) *Manifest {
	date := now.Format(dateLayout)
	return &Manifest{
		Name:         "blank_" + date,
		CreationDate: date,
		Version:      SupportedVersion,
		Type:         0,
		UserDataBackup: UserDataBackup{
			LastModifiedDate: now.Format(time.RFC3339),
			DeviceName:       DeviceName,
			DatabaseName:     DatabaseName,
			SchemaVersion:    SupportedSchemaVersion,
		},
	}
}
