package faction

import (
	"bytes"
	"errors"
	"io"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for faction browsing.
type Handler struct {
	cache    *Cache
	resolver AssetResolver
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(cache *Cache, resolver AssetResolver, logger *zap.Logger) *Handler {
	return &Handler{cache: cache, resolver: resolver, logger: logger}
}

// RegisterRoutes registers the faction routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/factions")
	group.Get("/", h.HandleListFactions)
	group.Post("/", h.HandleUploadFaction)
	group.Get("/:id", h.HandleGetFaction)
	group.Delete("/:id", h.HandleDeleteFaction)
	group.Get("/:id/units/:unitId", h.HandleGetUnit)
}

// HandleListFactions returns the faction metadata map.
// @Summary List Factions
// @Description List metadata for every known faction, bundled and local.
// @Tags factions
// @Produce json
// @Success 200 {object} map[string]any "Faction metadata"
// @Router /factions [get]
func (h *Handler) HandleListFactions(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	metadata := h.cache.Metadata()
	if len(metadata) == 0 {
		refreshed, err := h.cache.LoadFactionMetadataAll(c.Context())
		if err != nil {
			l.Error("Faction metadata load failed", zap.Error(err))
			return respondError(c, err)
		}
		metadata = refreshed
	}

	return c.JSON(fiber.Map{"factions": metadata})
}

// HandleGetFaction returns a faction's index, loading it lazily.
// @Summary Get Faction Index
// @Description Get the unit index of a faction. Pass ?version= to pin a version.
// @Tags factions
// @Produce json
// @Param id path string true "Faction ID"
// @Param version query string false "Faction version"
// @Success 200 {object} map[string]any "Faction index"
// @Failure 404 {object} map[string]string "Faction not found"
// @Router /factions/{id} [get]
func (h *Handler) HandleGetFaction(c *fiber.Ctx) error {
	factionID := c.Params("id")
	version := c.Query("version")
	l := logger.WithRayID(h.logger, c)

	index, err := h.cache.LoadFaction(c.Context(), factionID, version)
	if err != nil {
		l.Warn("Faction load failed",
			zap.String("faction_id", factionID), zap.String("version", version), zap.Error(err))
		return respondError(c, err)
	}

	response := fiber.Map{"units": index}
	if meta, ok := h.cache.GetFactionMetadata(factionID); ok {
		response["metadata"] = meta
	}
	return c.JSON(response)
}

// HandleGetUnit returns a single unit with its resolved image URL.
// @Summary Get Unit
// @Description Get one unit from a faction index.
// @Tags factions
// @Produce json
// @Param id path string true "Faction ID"
// @Param unitId path string true "Unit ID"
// @Param version query string false "Faction version"
// @Success 200 {object} map[string]any "Unit"
// @Failure 404 {object} map[string]string "Unit not found"
// @Router /factions/{id}/units/{unitId} [get]
func (h *Handler) HandleGetUnit(c *fiber.Ctx) error {
	factionID := c.Params("id")
	unitID := c.Params("unitId")
	version := c.Query("version")
	l := logger.WithRayID(h.logger, c)

	unit, err := h.cache.LoadUnit(c.Context(), factionID, unitID, version)
	if err != nil {
		l.Warn("Unit load failed",
			zap.String("faction_id", factionID), zap.String("unit_id", unitID), zap.Error(err))
		return respondError(c, err)
	}

	response := fiber.Map{"unit": unit}
	if h.resolver != nil && unit.ImagePath != "" {
		url, rerr := h.resolver.Resolve(c.Context(), factionID, unit.ImagePath, h.cache.IsLocalFaction(factionID))
		if rerr != nil {
			l.Warn("Asset URL resolution failed",
				zap.String("faction_id", factionID), zap.String("path", unit.ImagePath), zap.Error(rerr))
		} else if url != "" {
			response["image_url"] = url
		}
	}
	return c.JSON(response)
}

// HandleUploadFaction accepts a local faction bundle.
// @Summary Upload Faction
// @Description Upload a zip faction bundle as a local faction.
// @Tags factions
// @Accept multipart/form-data
// @Produce json
// @Param bundle formData file true "Faction bundle (zip)"
// @Success 201 {object} map[string]any "Stored faction metadata"
// @Failure 400 {object} map[string]string "Malformed bundle"
// @Router /factions [post]
func (h *Handler) HandleUploadFaction(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	fileHeader, err := c.FormFile("bundle")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing bundle file",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		l.Error("Bundle open failed", zap.Error(err))
		return respondError(c, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		l.Error("Bundle read failed", zap.Error(err))
		return respondError(c, err)
	}

	meta, err := h.cache.UploadFaction(c.Context(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		l.Warn("Faction upload rejected", zap.String("file", fileHeader.Filename), zap.Error(err))
		if errors.Is(err, ErrNoLocalStore) {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Faction uploaded", zap.String("faction_id", meta.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"metadata": meta})
}

// HandleDeleteFaction removes a local faction.
// @Summary Delete Faction
// @Description Delete a user-uploaded faction. Bundled factions cannot be deleted.
// @Tags factions
// @Produce json
// @Param id path string true "Faction ID"
// @Success 204 "Deleted"
// @Failure 400 {object} map[string]string "Not a local faction"
// @Failure 404 {object} map[string]string "Faction not found"
// @Router /factions/{id} [delete]
func (h *Handler) HandleDeleteFaction(c *fiber.Ctx) error {
	factionID := c.Params("id")
	l := logger.WithRayID(h.logger, c)

	if err := h.cache.DeleteFaction(c.Context(), factionID); err != nil {
		l.Warn("Faction delete failed", zap.String("faction_id", factionID), zap.Error(err))
		return respondError(c, err)
	}

	l.Info("Faction deleted", zap.String("faction_id", factionID))
	return c.SendStatus(fiber.StatusNoContent)
}

// respondError maps cache errors onto HTTP statuses. Error strings carry
// the faction/unit id so the client can render a recoverable state.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrFactionNotFound), errors.Is(err, ErrUnitNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrNotLocalFaction):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrNoLocalStore):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
