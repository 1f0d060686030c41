package faction

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/utils"
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction/models"
)

// Bundle is a decoded faction upload.
type Bundle struct {
	FactionID string
	Metadata  models.Metadata
	Index     models.FactionIndex
	Assets    []Asset
}

// Asset is one non-document file carried by a bundle (icons, unit art).
type Asset struct {
	Path string
	Data []byte
}

// ArchiveParser validates and decodes an uploaded faction bundle.
type ArchiveParser interface {
	Parse(archive io.ReaderAt, size int64) (*Bundle, error)
}

// metadataFile and indexFile are the two required documents at the root of
// a faction bundle.
const (
	metadataFile = "faction.json"
	indexFile    = "index.json"
)

// maxAssetBytes caps a single asset file. Keeps a hostile bundle from
// ballooning memory during decode.
const maxAssetBytes = 32 << 20

// ZipBundleParser decodes zip faction bundles.
//
// A bundle carries faction.json (metadata) and index.json (unit index) at
// its root; every other file is treated as an asset and kept with its
// archive-relative path. The faction id is normalized to lower case and
// forced to carry the local naming suffix, so deep links resolve the
// faction as local even before metadata finishes loading.
type ZipBundleParser struct{}

// NewZipBundleParser creates a zip bundle parser.
func NewZipBundleParser() *ZipBundleParser {
	return &ZipBundleParser{}
}

// Parse decodes and validates the bundle.
func (p *ZipBundleParser) Parse(archive io.ReaderAt, size int64) (*Bundle, error) {
	zr, err := zip.NewReader(archive, size)
	if err != nil {
		return nil, fmt.Errorf("open bundle archive: %w", err)
	}

	bundle := &Bundle{}
	var haveMetadata, haveIndex bool

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(f.Name, "./")
		if strings.Contains(name, "..") {
			return nil, fmt.Errorf("bundle entry escapes archive root: %s", f.Name)
		}

		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("read bundle entry %s: %w", name, err)
		}

		switch name {
		case metadataFile:
			meta, err := parseLooseMetadata(data)
			if err != nil {
				return nil, err
			}
			bundle.Metadata = *meta
			haveMetadata = true
		case indexFile:
			if err := json.Unmarshal(data, &bundle.Index); err != nil {
				return nil, fmt.Errorf("parse %s: %w", indexFile, err)
			}
			haveIndex = true
		default:
			bundle.Assets = append(bundle.Assets, Asset{Path: name, Data: data})
		}
	}

	if !haveMetadata {
		return nil, fmt.Errorf("bundle missing %s", metadataFile)
	}
	if !haveIndex {
		return nil, fmt.Errorf("bundle missing %s", indexFile)
	}
	if bundle.Metadata.ID == "" {
		return nil, fmt.Errorf("%s missing faction id", metadataFile)
	}

	// Normalize identity: lower case, local suffix enforced.
	id := strings.ToLower(bundle.Metadata.ID)
	if !strings.HasSuffix(id, LocalSuffix) {
		id += LocalSuffix
	}
	bundle.FactionID = id
	bundle.Metadata.ID = id
	bundle.Metadata.IsLocal = true

	for i, e := range bundle.Index {
		if problem := e.Unit.Validate(); problem != "" {
			return nil, fmt.Errorf("unit %d (%s): %s", i, e.Identifier, problem)
		}
	}

	return bundle, nil
}

// parseLooseMetadata decodes faction.json leniently. Community authoring
// tools emit versions as numbers and flags as 0/1, so fields are normalized
// through the conversion helpers instead of strict unmarshalling.
func parseLooseMetadata(data []byte) (*models.Metadata, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metadataFile, err)
	}

	meta := &models.Metadata{
		ID:          utils.ToString(pick(raw, "id", "identifier")),
		DisplayName: utils.ToString(pick(raw, "display_name", "name")),
		Description: utils.ToString(raw["description"]),
		Author:      utils.ToString(raw["author"]),
		IconPath:    utils.ToString(raw["icon_path"]),
	}
	if v, ok := raw["version"]; ok {
		meta.Version = utils.ToString(v)
	}
	if meta.DisplayName == "" {
		meta.DisplayName = meta.ID
	}
	return meta, nil
}

// pick returns the first present key from raw.
func pick(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return ""
}

func readZipFile(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxAssetBytes {
		return nil, fmt.Errorf("entry exceeds %d bytes", int64(maxAssetBytes))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxAssetBytes+1))
}
