package faction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/storage"
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction/models"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalStore persists user-uploaded factions. The cache treats it as
// opaque: save/delete/has/list plus the index fetch, errors propagated
// verbatim.
type LocalStore interface {
	// List returns metadata for every stored local faction.
	List(ctx context.Context) ([]models.Metadata, error)
	// Has reports whether a local faction exists.
	Has(ctx context.Context, factionID string) (bool, error)
	// Save stores a parsed bundle, replacing any previous upload of the
	// same faction wholesale.
	Save(ctx context.Context, bundle *Bundle) error
	// Delete removes a local faction and its assets.
	Delete(ctx context.Context, factionID string) error
	// FetchFactionIndex loads the stored index for a local faction.
	FetchFactionIndex(ctx context.Context, factionID string) (models.FactionIndex, error)
}

// LocalFactionRecord is the database row holding one uploaded faction.
// The index is stored as its serialized JSON document: the cache decomposes
// it on load, so the store never needs to query inside it.
type LocalFactionRecord struct {
	ID          uint   `gorm:"primaryKey"`
	FactionID   string `gorm:"uniqueIndex;size:128"`
	DisplayName string `gorm:"size:255"`
	Version     string `gorm:"size:64"`
	Author      string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	IconPath    string `gorm:"size:512"`
	IndexJSON   []byte `gorm:"type:longblob"`
}

// TableName keeps the table name stable regardless of gorm pluralization.
func (LocalFactionRecord) TableName() string {
	return "local_factions"
}

// GormLocalStore persists local faction records in MySQL and mirrors their
// asset files into the storage bucket under the local prefix.
type GormLocalStore struct {
	db          *gorm.DB
	client      storage.Client
	bucket      string
	localPrefix string
	logger      *zap.Logger
}

// NewGormLocalStore creates the store and migrates its table.
func NewGormLocalStore(db *gorm.DB, client storage.Client, bucket, localPrefix string, logger *zap.Logger) (*GormLocalStore, error) {
	if err := db.AutoMigrate(&LocalFactionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate local faction table: %w", err)
	}
	return &GormLocalStore{
		db:          db,
		client:      client,
		bucket:      bucket,
		localPrefix: localPrefix,
		logger:      logger,
	}, nil
}

// List returns metadata for every stored local faction.
func (s *GormLocalStore) List(ctx context.Context) ([]models.Metadata, error) {
	var records []LocalFactionRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list local factions: %w", err)
	}

	out := make([]models.Metadata, 0, len(records))
	for _, r := range records {
		out = append(out, models.Metadata{
			ID:          r.FactionID,
			DisplayName: r.DisplayName,
			Version:     r.Version,
			Author:      r.Author,
			Description: r.Description,
			IconPath:    r.IconPath,
			IsLocal:     true,
		})
	}
	return out, nil
}

// Has reports whether a local faction exists.
func (s *GormLocalStore) Has(ctx context.Context, factionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&LocalFactionRecord{}).
		Where("faction_id = ?", factionID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check local faction %s: %w", factionID, err)
	}
	return count > 0, nil
}

// Save upserts the faction record and replaces its assets in the bucket.
func (s *GormLocalStore) Save(ctx context.Context, bundle *Bundle) error {
	indexJSON, err := json.Marshal(bundle.Index)
	if err != nil {
		return fmt.Errorf("serialize faction index: %w", err)
	}

	record := LocalFactionRecord{
		FactionID:   bundle.FactionID,
		DisplayName: bundle.Metadata.DisplayName,
		Version:     bundle.Metadata.Version,
		Author:      bundle.Metadata.Author,
		Description: bundle.Metadata.Description,
		IconPath:    bundle.Metadata.IconPath,
		IndexJSON:   indexJSON,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "faction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "version", "author", "description", "icon_path", "index_json",
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("store local faction %s: %w", bundle.FactionID, err)
	}

	// Replace assets wholesale so a re-upload never leaves orphans behind.
	if err := s.removeAssets(ctx, bundle.FactionID); err != nil {
		return err
	}
	for _, asset := range bundle.Assets {
		object := path.Join(s.localPrefix, bundle.FactionID, asset.Path)
		_, err := s.client.PutObject(ctx, s.bucket, object,
			bytes.NewReader(asset.Data), int64(len(asset.Data)), minio.PutObjectOptions{})
		if err != nil {
			return fmt.Errorf("upload asset %s: %w", object, err)
		}
	}

	s.logger.Info("Local faction saved",
		zap.String("faction_id", bundle.FactionID),
		zap.Int("units", len(bundle.Index)),
		zap.Int("assets", len(bundle.Assets)))

	return nil
}

// Delete removes the faction record and its bucket assets.
func (s *GormLocalStore) Delete(ctx context.Context, factionID string) error {
	result := s.db.WithContext(ctx).
		Where("faction_id = ?", factionID).Delete(&LocalFactionRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete local faction %s: %w", factionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrFactionNotFound, factionID)
	}

	return s.removeAssets(ctx, factionID)
}

// FetchFactionIndex loads and decodes the stored index document.
func (s *GormLocalStore) FetchFactionIndex(ctx context.Context, factionID string) (models.FactionIndex, error) {
	var record LocalFactionRecord
	err := s.db.WithContext(ctx).
		Where("faction_id = ?", factionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFactionNotFound, factionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load local faction %s: %w", factionID, err)
	}

	var index models.FactionIndex
	if err := json.Unmarshal(record.IndexJSON, &index); err != nil {
		return nil, fmt.Errorf("parse local faction index %s: %w", factionID, err)
	}
	return index, nil
}

// removeAssets deletes every bucket object under the faction's local
// prefix.
func (s *GormLocalStore) removeAssets(ctx context.Context, factionID string) error {
	prefix := path.Join(s.localPrefix, factionID) + "/"

	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				s.logger.Warn("Asset listing failed during removal",
					zap.String("prefix", prefix), zap.Error(obj.Err))
				return
			}
			objectsCh <- obj
		}
	}()

	for removeErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if removeErr.Err != nil {
			return fmt.Errorf("remove asset %s: %w", removeErr.ObjectName, removeErr.Err)
		}
	}
	return nil
}
