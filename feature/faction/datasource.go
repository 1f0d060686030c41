package faction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/storage"
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction/models"

	"github.com/minio/minio-go/v7"
)

// DataSource fetches bundled faction documents. The cache is the only
// consumer; implementations decide where the documents actually live.
type DataSource interface {
	// ListFactions returns the faction ids in the bundled catalog.
	ListFactions(ctx context.Context) ([]string, error)
	// FetchFactionMetadata fetches one faction's metadata record.
	FetchFactionMetadata(ctx context.Context, factionID string) (*models.Metadata, error)
	// FetchFactionIndex fetches a faction index, optionally pinned to a
	// version. Returns an error wrapping ErrFactionNotFound when the
	// faction does not exist.
	FetchFactionIndex(ctx context.Context, factionID, version string) (models.FactionIndex, error)
}

// catalog is the shape of the bundled catalog object.
type catalog struct {
	Factions []string `json:"factions"`
}

// StorageDataSource reads faction documents from the object storage bucket:
//
//	<catalogObject>                      catalog of faction ids
//	<staticPrefix>/<id>/faction.json     metadata record
//	<staticPrefix>/<id>/index.json       unversioned faction index
//	<staticPrefix>/<id>/index@<v>.json   versioned faction index
type StorageDataSource struct {
	client        storage.Client
	bucket        string
	catalogObject string
	staticPrefix  string
}

// NewStorageDataSource creates a data source over the given bucket layout.
func NewStorageDataSource(client storage.Client, bucket, catalogObject, staticPrefix string) *StorageDataSource {
	return &StorageDataSource{
		client:        client,
		bucket:        bucket,
		catalogObject: catalogObject,
		staticPrefix:  staticPrefix,
	}
}

// ListFactions returns the faction ids listed in the catalog object.
func (s *StorageDataSource) ListFactions(ctx context.Context) ([]string, error) {
	var cat catalog
	if err := s.getJSON(ctx, s.catalogObject, &cat); err != nil {
		return nil, fmt.Errorf("fetch faction catalog: %w", err)
	}
	return cat.Factions, nil
}

// FetchFactionMetadata fetches one faction's metadata record.
func (s *StorageDataSource) FetchFactionMetadata(ctx context.Context, factionID string) (*models.Metadata, error) {
	var meta models.Metadata
	object := path.Join(s.staticPrefix, factionID, "faction.json")
	if err := s.getJSON(ctx, object, &meta); err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrFactionNotFound, factionID)
		}
		return nil, fmt.Errorf("fetch faction metadata %s: %w", factionID, err)
	}
	if meta.ID == "" {
		meta.ID = factionID
	}
	return &meta, nil
}

// FetchFactionIndex fetches a faction index document.
func (s *StorageDataSource) FetchFactionIndex(ctx context.Context, factionID, version string) (models.FactionIndex, error) {
	name := "index.json"
	if version != "" {
		name = "index@" + version + ".json"
	}
	object := path.Join(s.staticPrefix, factionID, name)

	var index models.FactionIndex
	if err := s.getJSON(ctx, object, &index); err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrFactionNotFound, factionID)
		}
		return nil, fmt.Errorf("fetch faction index %s: %w", factionID, err)
	}
	return index, nil
}

// getJSON downloads an object and decodes it into dst.
func (s *StorageDataSource) getJSON(ctx context.Context, objectName string, dst any) error {
	reader, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", objectName, err)
	}
	return nil
}

// isNoSuchKey reports whether err is the storage backend's missing-object
// response. minio surfaces missing objects lazily on read, so both the
// GetObject error and the ReadAll error path land here.
func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
