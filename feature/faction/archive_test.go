package faction_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validIndexJSON = `[
  {
    "identifier": "boss",
    "display_name": "Boss",
    "unit_types": ["Commander"],
    "unit": {
      "identifier": "boss",
      "display_name": "Boss",
      "unit_types": ["Commander"],
      "accessible": true,
      "specs": {
        "combat": {"health": 10000},
        "economy": {"build_cost": 20000}
      }
    }
  }
]`

func buildZip(t *testing.T, files map[string][]byte) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestZipBundleParserHappyPath(t *testing.T) {
	// Version as a number and "name" instead of "display_name": the loose
	// shapes community tools actually produce.
	r := buildZip(t, map[string][]byte{
		"faction.json":   []byte(`{"id": "MyFaction", "name": "My Faction", "version": 2, "author": "someone"}`),
		"index.json":     []byte(validIndexJSON),
		"icons/icon.png": {0x89, 0x50, 0x4e, 0x47},
	})

	bundle, err := faction.NewZipBundleParser().Parse(r, r.Size())
	require.NoError(t, err)

	// Identity is normalized: lower case, local suffix enforced.
	assert.Equal(t, "myfaction-local", bundle.FactionID)
	assert.Equal(t, "myfaction-local", bundle.Metadata.ID)
	assert.True(t, bundle.Metadata.IsLocal)
	assert.Equal(t, "My Faction", bundle.Metadata.DisplayName)
	assert.Equal(t, "2", bundle.Metadata.Version)

	require.Len(t, bundle.Index, 1)
	assert.Equal(t, "boss", bundle.Index[0].Identifier)

	require.Len(t, bundle.Assets, 1)
	assert.Equal(t, "icons/icon.png", bundle.Assets[0].Path)
}

func TestZipBundleParserKeepsExistingLocalSuffix(t *testing.T) {
	r := buildZip(t, map[string][]byte{
		"faction.json": []byte(`{"id": "custom-local"}`),
		"index.json":   []byte(validIndexJSON),
	})

	bundle, err := faction.NewZipBundleParser().Parse(r, r.Size())
	require.NoError(t, err)
	assert.Equal(t, "custom-local", bundle.FactionID)
}

func TestZipBundleParserMissingDocuments(t *testing.T) {
	r := buildZip(t, map[string][]byte{
		"faction.json": []byte(`{"id": "x"}`),
	})
	_, err := faction.NewZipBundleParser().Parse(r, r.Size())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.json")

	r = buildZip(t, map[string][]byte{
		"index.json": []byte(validIndexJSON),
	})
	_, err = faction.NewZipBundleParser().Parse(r, r.Size())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "faction.json")
}

func TestZipBundleParserMissingFactionID(t *testing.T) {
	r := buildZip(t, map[string][]byte{
		"faction.json": []byte(`{"name": "No Identity"}`),
		"index.json":   []byte(validIndexJSON),
	})
	_, err := faction.NewZipBundleParser().Parse(r, r.Size())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "faction id")
}

func TestZipBundleParserRejectsPathTraversal(t *testing.T) {
	r := buildZip(t, map[string][]byte{
		"faction.json":     []byte(`{"id": "x"}`),
		"index.json":       []byte(validIndexJSON),
		"../../etc/passwd": []byte("nope"),
	})
	_, err := faction.NewZipBundleParser().Parse(r, r.Size())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes archive root")
}

func TestZipBundleParserRejectsInvalidUnits(t *testing.T) {
	r := buildZip(t, map[string][]byte{
		"faction.json": []byte(`{"id": "x"}`),
		"index.json": []byte(`[
		  {"identifier": "bad", "display_name": "Bad", "unit": {"identifier": "bad", "display_name": "Bad", "specs": {"combat": {"health": 0}, "economy": {}}}}
		]`),
	})
	_, err := faction.NewZipBundleParser().Parse(r, r.Size())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "combat.health")
}
