package faction

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	cache   *Cache
	handler *Handler
}

// NewFeature creates the faction browsing feature over a shared cache.
func NewFeature(cache *Cache, resolver AssetResolver, logger *zap.Logger) *Feature {
	h := NewHandler(cache, resolver, logger)
	return &Feature{cache: cache, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "faction"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
