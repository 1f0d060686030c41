package faction_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, cache *faction.Cache) *fiber.App {
	t.Helper()
	app := fiber.New()
	faction.NewHandler(cache, nil, zap.NewNop()).RegisterRoutes(app)
	return app
}

func TestHandleListFactions(t *testing.T) {
	source := newFakeSource()
	source.addFaction("mla", testIndex("ant"))
	cache := faction.NewCache(source, nil, nil, zap.NewNop())
	app := setupTestApp(t, cache)

	// Metadata is empty on a cold cache; the handler triggers the load.
	req := httptest.NewRequest("GET", "/factions/", nil)
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload struct {
		Factions map[string]struct {
			DisplayName string `json:"display_name"`
		} `json:"factions"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Contains(t, payload.Factions, "mla")
}

func TestHandleGetFaction(t *testing.T) {
	source := newFakeSource()
	source.addFaction("mla", testIndex("ant", "dox"))
	cache := faction.NewCache(source, nil, nil, zap.NewNop())
	app := setupTestApp(t, cache)

	req := httptest.NewRequest("GET", "/factions/mla", nil)
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload struct {
		Units []struct {
			Identifier string `json:"identifier"`
		} `json:"units"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Len(t, payload.Units, 2)
}

func TestHandleGetFactionNotFound(t *testing.T) {
	cache := faction.NewCache(newFakeSource(), nil, nil, zap.NewNop())
	app := setupTestApp(t, cache)

	req := httptest.NewRequest("GET", "/factions/nope", nil)
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleGetUnit(t *testing.T) {
	source := newFakeSource()
	source.addFaction("mla", testIndex("ant"))
	cache := faction.NewCache(source, nil, nil, zap.NewNop())
	app := setupTestApp(t, cache)

	req := httptest.NewRequest("GET", "/factions/mla/units/ant", nil)
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/factions/mla/units/ghost", nil)
	resp, err = app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleDeleteFactionRejectsBundled(t *testing.T) {
	source := newFakeSource()
	source.addFaction("mla", testIndex("ant"))
	cache := faction.NewCache(source, newFakeLocalStore(), nil, zap.NewNop())

	_, err := cache.LoadFactionMetadataAll(context.Background())
	require.NoError(t, err)

	app := setupTestApp(t, cache)
	req := httptest.NewRequest("DELETE", "/factions/mla", nil)
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleUploadFactionWithoutStore(t *testing.T) {
	cache := faction.NewCache(newFakeSource(), nil, nil, zap.NewNop())
	app := setupTestApp(t, cache)

	// No multipart body at all: a plain bad request.
	req := httptest.NewRequest("POST", "/factions/", nil)
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
