package compare

import (
	"github.com/jamiemulcahy/pa-pedia-sub001/core/logger"
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for unit and group comparison.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the comparison routes. The commander listing
// lives under /factions because it is a per-faction view.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/compare")
	group.Get("/units", h.HandleCompareUnits)
	group.Post("/groups", h.HandleCompareGroups)

	app.Get("/factions/:id/commanders", h.HandleCommanders)
}

// HandleCompareUnits compares two units side by side.
// @Summary Compare Units
// @Description Compare two units, with weapons aligned by target layers.
// @Tags compare
// @Produce json
// @Param a query string true "First unit as faction/unit"
// @Param b query string true "Second unit as faction/unit"
// @Success 200 {object} UnitComparison "Comparison"
// @Failure 400 {object} map[string]string "Malformed unit reference"
// @Failure 404 {object} map[string]string "Unit not found"
// @Router /compare/units [get]
func (h *Handler) HandleCompareUnits(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	refA, err := ParseUnitRef(c.Query("a"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	refB, err := ParseUnitRef(c.Query("b"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	comparison, err := h.service.CompareUnits(c.Context(), refA, refB)
	if err != nil {
		l.Warn("Unit comparison failed",
			zap.String("a", c.Query("a")), zap.String("b", c.Query("b")), zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(comparison)
}

type compareGroupsRequest struct {
	A []GroupMember `json:"a"`
	B []GroupMember `json:"b"`
}

// HandleCompareGroups compares two unit compositions.
// @Summary Compare Groups
// @Description Aggregate two unit compositions and compare their stats.
// @Tags compare
// @Accept json
// @Produce json
// @Param request body compareGroupsRequest true "Two member lists"
// @Success 200 {object} GroupComparison "Comparison"
// @Failure 400 {object} map[string]string "Malformed request body"
// @Router /compare/groups [post]
func (h *Handler) HandleCompareGroups(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req compareGroupsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed request body",
		})
	}

	comparison, err := h.service.CompareGroups(c.Context(), req.A, req.B)
	if err != nil {
		l.Error("Group comparison failed", zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(comparison)
}

// HandleCommanders returns a faction's commanders with stat-identical
// variants collapsed behind a representative.
// @Summary List Commanders
// @Description List a faction's commanders grouped by identical stats.
// @Tags compare
// @Produce json
// @Param id path string true "Faction ID"
// @Param version query string false "Faction version"
// @Success 200 {object} CommanderReport "Commander groups"
// @Failure 404 {object} map[string]string "Faction not found"
// @Router /factions/{id}/commanders [get]
func (h *Handler) HandleCommanders(c *fiber.Ctx) error {
	factionID := c.Params("id")
	version := c.Query("version")
	l := logger.WithRayID(h.logger, c)

	report, err := h.service.CommanderGroups(c.Context(), factionID, version)
	if err != nil {
		l.Warn("Commander listing failed",
			zap.String("faction_id", factionID), zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(report)
}

// respondError maps faction cache errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if faction.IsNotFound(err) {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
