package faction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LocalSuffix is the naming convention marking a faction id as local. It is
// the fallback used to route a load when metadata has not resolved yet
// (deep links straight to a faction page).
const LocalSuffix = "-local"

// metadataKey is the singleflight key for the catalog-wide metadata load.
const metadataKey = "metadata:all"

// CacheKey returns the cache key for a faction reference: the lower-cased
// faction id, suffixed @version when a version is pinned.
func CacheKey(factionID, version string) string {
	key := strings.ToLower(factionID)
	if version != "" {
		key += "@" + version
	}
	return key
}

// UnitKey returns the unit-cache key for a unit inside a faction cache key.
func UnitKey(cacheKey, unitID string) string {
	return cacheKey + ":" + unitID
}

// Cache is the single source of truth for faction metadata, faction
// indexes, and unit lookups. It is constructed once per process and passed
// by reference to everything that reads faction data.
//
// Metadata loads eagerly at startup; indexes and the units embedded in them
// load lazily per faction visited. For a given cache key at most one fetch
// is ever in flight: concurrent callers share the single request and all
// observe the same result.
type Cache struct {
	source DataSource
	local  LocalStore
	parser ArchiveParser
	logger *zap.Logger

	// sf collapses concurrent loads of the same key into one fetch.
	sf singleflight.Group

	// mu guards every map below. The index map and the unit map are
	// written together under one lock acquisition, so no reader can see a
	// faction index whose units are still missing.
	mu        sync.RWMutex
	metadata  map[string]models.Metadata     // faction id (lower) -> metadata
	indexes   map[string]models.FactionIndex // cache key -> index
	units     map[string]models.Unit         // cache key ":" unit id -> unit
	indexErrs map[string]error               // cache key -> last load failure
	inflight  map[string]struct{}            // cache keys currently fetching

	// metadataGen increments on every upload/delete. A metadata flight
	// snapshots it at entry and skips its commit when a mutation happened
	// underneath it, so a pre-mutation flight can never clobber the map.
	metadataGen uint64
}

// NewCache creates a faction cache over the given collaborators. local and
// parser may be nil, which disables uploads and deletions but leaves
// browsing fully functional.
func NewCache(source DataSource, local LocalStore, parser ArchiveParser, logger *zap.Logger) *Cache {
	return &Cache{
		source:    source,
		local:     local,
		parser:    parser,
		logger:    logger,
		metadata:  make(map[string]models.Metadata),
		indexes:   make(map[string]models.FactionIndex),
		units:     make(map[string]models.Unit),
		indexErrs: make(map[string]error),
		inflight:  make(map[string]struct{}),
	}
}

// LoadFactionMetadataAll fetches the full metadata set: the bundled catalog
// plus any local factions. A faction whose fetch fails is omitted from the
// result rather than failing the whole operation; only when every fetch
// fails does the caller see an aggregate error and an empty map. Safe to
// call again for an explicit refresh.
func (c *Cache) LoadFactionMetadataAll(ctx context.Context) (map[string]models.Metadata, error) {
	v, err, _ := c.sf.Do(metadataKey, func() (any, error) {
		c.mu.RLock()
		gen := c.metadataGen
		c.mu.RUnlock()

		var errs []error

		ids, err := c.source.ListFactions(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("list factions: %w", err))
			ids = nil
		}

		// Fetch per-faction metadata concurrently; failures only drop the
		// affected faction.
		results := make([]*models.Metadata, len(ids))
		fetchErrs := make([]error, len(ids))
		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				results[i], fetchErrs[i] = c.source.FetchFactionMetadata(ctx, id)
			}(i, id)
		}
		wg.Wait()

		metadata := make(map[string]models.Metadata)
		for i, id := range ids {
			if fetchErrs[i] != nil {
				errs = append(errs, fmt.Errorf("faction %s: %w", id, fetchErrs[i]))
				c.logger.Warn("Faction metadata fetch failed, omitting",
					zap.String("faction_id", id), zap.Error(fetchErrs[i]))
				continue
			}
			m := *results[i]
			metadata[strings.ToLower(m.ID)] = m
		}

		if c.local != nil {
			locals, lerr := c.local.List(ctx)
			if lerr != nil {
				errs = append(errs, fmt.Errorf("local factions: %w", lerr))
				c.logger.Warn("Local faction listing failed", zap.Error(lerr))
			}
			for _, m := range locals {
				m.IsLocal = true
				metadata[strings.ToLower(m.ID)] = m
			}
		}

		if len(metadata) == 0 && len(errs) > 0 {
			return nil, fmt.Errorf("faction metadata load failed: %w", errors.Join(errs...))
		}

		c.mu.Lock()
		if c.metadataGen == gen {
			c.metadata = metadata
		}
		c.mu.Unlock()

		return cloneMetadata(metadata), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]models.Metadata), nil
}

// LoadFaction loads the index for a faction reference, along with every
// unit embedded in it. It is a no-op when the key is already cached, and
// concurrent calls for the same key share a single data-source fetch.
// Failures are recorded under the cache key and returned; the in-flight
// marker is always cleared before returning.
func (c *Cache) LoadFaction(ctx context.Context, factionID, version string) (models.FactionIndex, error) {
	key := CacheKey(factionID, version)

	c.mu.RLock()
	index, ok := c.indexes[key]
	c.mu.RUnlock()
	if ok {
		return index, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		// Re-check after winning the flight: a previous holder may have
		// populated the key already.
		c.mu.RLock()
		index, ok := c.indexes[key]
		c.mu.RUnlock()
		if ok {
			return index, nil
		}

		c.mu.Lock()
		c.inflight[key] = struct{}{}
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
		}()

		index, err := c.fetchIndex(ctx, factionID, version)
		if err != nil {
			err = fmt.Errorf("load faction %s: %w", key, err)
			c.mu.Lock()
			c.indexErrs[key] = err
			c.mu.Unlock()
			return nil, err
		}

		// Index and decomposed units are committed under one lock
		// acquisition, so they appear together.
		c.mu.Lock()
		c.indexes[key] = index
		for _, e := range index {
			c.units[UnitKey(key, e.Identifier)] = e.Unit
		}
		delete(c.indexErrs, key)
		c.mu.Unlock()

		c.logger.Info("Faction index loaded",
			zap.String("cache_key", key), zap.Int("units", len(index)))

		return index, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(models.FactionIndex), nil
}

// fetchIndex routes the index fetch to the local store or the data source,
// depending on whether the faction is local.
func (c *Cache) fetchIndex(ctx context.Context, factionID, version string) (models.FactionIndex, error) {
	if c.IsLocalFaction(factionID) {
		if c.local == nil {
			return nil, ErrNoLocalStore
		}
		return c.local.FetchFactionIndex(ctx, strings.ToLower(factionID))
	}
	return c.source.FetchFactionIndex(ctx, strings.ToLower(factionID), version)
}

// IsLocalFaction resolves locality from loaded metadata first, then falls
// back to the id naming convention for loads racing ahead of the metadata
// fetch.
func (c *Cache) IsLocalFaction(factionID string) bool {
	id := strings.ToLower(factionID)

	c.mu.RLock()
	meta, ok := c.metadata[id]
	c.mu.RUnlock()
	if ok {
		return meta.IsLocal
	}

	return strings.HasSuffix(id, LocalSuffix)
}

// LoadUnit returns a unit, loading its owning faction index on a miss.
// Units are embedded in the index payload, so the cache lookup is retried
// exactly once after the index load; a unit still absent then does not
// exist in that faction.
func (c *Cache) LoadUnit(ctx context.Context, factionID, unitID, version string) (*models.Unit, error) {
	key := CacheKey(factionID, version)
	ukey := UnitKey(key, unitID)

	c.mu.RLock()
	unit, ok := c.units[ukey]
	c.mu.RUnlock()
	if ok {
		return &unit, nil
	}

	if _, err := c.LoadFaction(ctx, factionID, version); err != nil {
		return nil, err
	}

	c.mu.RLock()
	unit, ok = c.units[ukey]
	c.mu.RUnlock()
	if ok {
		return &unit, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, ukey)
}

// UploadFaction parses and persists an uploaded faction bundle, then
// invalidates any cached entries for that faction id and refreshes
// metadata, so the cache never serves stale data for a faction that was
// just replaced.
func (c *Cache) UploadFaction(ctx context.Context, archive io.ReaderAt, size int64) (*models.Metadata, error) {
	if c.parser == nil || c.local == nil {
		return nil, ErrNoLocalStore
	}

	bundle, err := c.parser.Parse(archive, size)
	if err != nil {
		return nil, fmt.Errorf("parse faction bundle: %w", err)
	}

	if err := c.local.Save(ctx, bundle); err != nil {
		return nil, fmt.Errorf("save local faction %s: %w", bundle.FactionID, err)
	}

	c.invalidate(bundle.FactionID)
	c.refreshMetadata(ctx)

	meta := bundle.Metadata
	return &meta, nil
}

// DeleteFaction removes a local faction. Deleting a bundled faction is an
// invalid operation, rejected synchronously before any I/O.
func (c *Cache) DeleteFaction(ctx context.Context, factionID string) error {
	id := strings.ToLower(factionID)

	c.mu.RLock()
	meta, known := c.metadata[id]
	c.mu.RUnlock()
	if known && !meta.IsLocal {
		return fmt.Errorf("%w: %s", ErrNotLocalFaction, id)
	}
	if c.local == nil {
		return ErrNoLocalStore
	}
	if !known {
		has, err := c.local.Has(ctx, id)
		if err != nil {
			return fmt.Errorf("check local faction %s: %w", id, err)
		}
		if !has {
			return fmt.Errorf("%w: %s", ErrFactionNotFound, id)
		}
	}

	if err := c.local.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete local faction %s: %w", id, err)
	}

	c.invalidate(id)
	c.refreshMetadata(ctx)

	return nil
}

// invalidate drops every cached index, unit, and error entry belonging to
// the faction id, across all versions, plus its metadata entry.
func (c *Cache) invalidate(factionID string) {
	id := strings.ToLower(factionID)

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.metadata, id)
	for key := range c.indexes {
		if keyBelongsTo(key, id) {
			delete(c.indexes, key)
			delete(c.indexErrs, key)
		}
	}
	for key := range c.indexErrs {
		if keyBelongsTo(key, id) {
			delete(c.indexErrs, key)
		}
	}
	for ukey := range c.units {
		if strings.HasPrefix(ukey, id+":") || strings.HasPrefix(ukey, id+"@") {
			delete(c.units, ukey)
		}
	}
}

// refreshMetadata re-runs the metadata load after a mutation. Bumping the
// generation and forgetting the singleflight key guarantees the refresh
// starts a fresh flight instead of joining one that began before the
// mutation, and that such a stale flight cannot commit. A failed refresh is
// logged, not propagated: the mutation itself already succeeded.
func (c *Cache) refreshMetadata(ctx context.Context) {
	c.mu.Lock()
	c.metadataGen++
	c.mu.Unlock()
	c.sf.Forget(metadataKey)

	if _, err := c.LoadFactionMetadataAll(ctx); err != nil {
		c.logger.Warn("Metadata refresh after mutation failed", zap.Error(err))
	}
}

// keyBelongsTo reports whether a faction cache key references the id,
// versioned or not.
func keyBelongsTo(key, id string) bool {
	return key == id || strings.HasPrefix(key, id+"@")
}

// GetFactionMetadata is a pure lookup, case-insensitive to tolerate URL
// casing differences.
func (c *Cache) GetFactionMetadata(factionID string) (models.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.metadata[strings.ToLower(factionID)]
	return m, ok
}

// Metadata returns a copy of the loaded metadata map.
func (c *Cache) Metadata() map[string]models.Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneMetadata(c.metadata)
}

// GetFactionIndex is a pure lookup with no side effects.
func (c *Cache) GetFactionIndex(factionID, version string) (models.FactionIndex, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.indexes[CacheKey(factionID, version)]
	return idx, ok
}

// GetUnit is a pure lookup; nil when the unit is not cached.
func (c *Cache) GetUnit(factionID, unitID, version string) *models.Unit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if u, ok := c.units[UnitKey(CacheKey(factionID, version), unitID)]; ok {
		return &u
	}
	return nil
}

// FactionError returns the recorded load failure for a faction reference,
// or nil.
func (c *Cache) FactionError(factionID, version string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexErrs[CacheKey(factionID, version)]
}

// IsLoading reports whether a fetch for the faction reference is currently
// in flight.
func (c *Cache) IsLoading(factionID, version string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.inflight[CacheKey(factionID, version)]
	return ok
}

func cloneMetadata(src map[string]models.Metadata) map[string]models.Metadata {
	out := make(map[string]models.Metadata, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
