package manifest

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/jwl-merge/internal/util"
)

const validManifest = `{
  "name": "UserDataBackup_2024-03-01_Phone",
  "creationDate": "2024-03-01",
  "version": 1,
  "type": 0,
  "userDataBackup": {
    "lastModifiedDate": "2024-03-01T10:00:00+01:00",
    "deviceName": "Phone",
    "databaseName": "userData.db",
    "hash": "abc123",
    "schemaVersion": 8
  }
}`

func TestParse(t *testing.T) {
	m, err := Parse("phone.jwlibrary", []byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, "UserDataBackup_2024-03-01_Phone", m.Name)
	assert.Equal(t, 1, m.Version)
	assert.Equal(t, "userData.db", m.UserDataBackup.DatabaseName)
	assert.Equal(t, 8, m.UserDataBackup.SchemaVersion)
	assert.Equal(t, "Phone", m.UserDataBackup.DeviceName)
}

func TestParseRejectsVersions(t *testing.T) {
	testCases := []struct {
		name     string
		json     string
		sentinel error
		kind     VersionKind
		expected int
		found    int
	}{
		{
			name:     "schema version 7",
			json:     `{"version": 1, "userDataBackup": {"databaseName": "userData.db", "schemaVersion": 7}}`,
			sentinel: ErrSchemaVersion,
			kind:     KindSchema,
			expected: 8,
			found:    7,
		},
		{
			name:     "manifest version 2",
			json:     `{"version": 2, "userDataBackup": {"databaseName": "userData.db", "schemaVersion": 8}}`,
			sentinel: ErrManifestVersion,
			kind:     KindManifest,
			expected: 1,
			found:    2,
		},
		{
			name:     "missing versions read as zero",
			json:     `{"name": "x"}`,
			sentinel: ErrManifestVersion,
			kind:     KindManifest,
			expected: 1,
			found:    0,
		},
		{
			name:     "missing schema version",
			json:     `{"version": 1, "userDataBackup": {"databaseName": "userData.db"}}`,
			sentinel: ErrSchemaVersion,
			kind:     KindSchema,
			expected: 8,
			found:    0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("old.jwlibrary", []byte(tc.json))
			require.Error(t, err)

			assert.ErrorIs(t, err, tc.sentinel)
			assert.ErrorIs(t, err, util.ErrUnsupported)
			assert.NotErrorIs(t, err, util.ErrCorrupt)

			var versionErr *VersionError
			require.True(t, errors.As(err, &versionErr))
			assert.Equal(t, tc.kind, versionErr.Kind)
			assert.Equal(t, "old.jwlibrary", versionErr.Filename)
			assert.Equal(t, tc.expected, versionErr.Expected)
			assert.Equal(t, tc.found, versionErr.Found)
			assert.Contains(t, err.Error(), "old.jwlibrary")
		})
	}
}

func TestParseSchemaVersionMismatchMessage(t *testing.T) {
	_, err := Parse("old.jwlibrary", []byte(`{"version": 1, "userDataBackup": {"schemaVersion": 7}}`))

	assert.EqualError(t, err, "wrong schema version found (7) in old.jwlibrary, expecting 8")
	assert.NotErrorIs(t, err, ErrManifestVersion)
}

func TestParseFormatErrors(t *testing.T) {
	testCases := []struct {
		name string
		json string
	}{
		{name: "not json", json: `not json`},
		{name: "wrong type", json: `{"version": "one"}`},
		{name: "no database", json: `{"version": 1, "userDataBackup": {"schemaVersion": 8}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("bad.jwlibrary", []byte(tc.json))
			assert.ErrorIs(t, err, util.ErrCorrupt)
			assert.ErrorContains(t, err, "bad.jwlibrary")

			var versionErr *VersionError
			assert.False(t, errors.As(err, &versionErr))
		})
	}
}

func TestForMerge(t *testing.T) {
	base, err := Parse("phone.jwlibrary", []byte(validManifest))
	require.NoError(t, err)

	now := time.Date(2024, 7, 9, 15, 4, 5, 0, time.UTC)
	merged := ForMerge(base, now)

	assert.Equal(t, "merged_2024-07-09", merged.Name)
	assert.Equal(t, "2024-07-09", merged.CreationDate)
	assert.Equal(t, DeviceName, merged.UserDataBackup.DeviceName)
	assert.Equal(t, DatabaseName, merged.UserDataBackup.DatabaseName)
	assert.Equal(t, "2024-07-09T15:04:05Z", merged.UserDataBackup.LastModifiedDate)
	assert.Empty(t, merged.UserDataBackup.Hash)
	assert.Equal(t, 8, merged.UserDataBackup.SchemaVersion)
	assert.Equal(t, 1, merged.Version)

	assert.Equal(t, "UserDataBackup_2024-03-01_Phone", base.Name, "base is not modified")
	assert.Equal(t, "abc123", base.UserDataBackup.Hash)
}

func TestMarshalRoundTrip(t *testing.T) {
	m := NewBlank(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	m.UserDataBackup.Hash = "deadbeef"

	data, err := m.Marshal()
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "creationDate")
	assert.Contains(t, fields, "userDataBackup")

	parsed, err := Parse("blank.jwlibrary", data)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
}
