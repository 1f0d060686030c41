package faction_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/storage/mocks"
	"github.com/jamiemulcahy/pa-pedia-sub001/feature/faction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStorageAssetResolver(t *testing.T) {
	client := new(mocks.Client)
	signed := &url.URL{Scheme: "https", Host: "minio.local", Path: "/factions/static/mla/img/ant.png"}
	client.On("PresignedGetObject", mock.Anything, "factions", "static/mla/img/ant.png",
		30*time.Minute, mock.Anything).Return(signed, nil)
	client.On("PresignedGetObject", mock.Anything, "factions", "local/custom-local/img/boss.png",
		30*time.Minute, mock.Anything).Return(signed, nil)

	resolver := faction.NewStorageAssetResolver(client, "factions", "static", "local", 30*time.Minute)

	// Bundled factions resolve under the static prefix, case-normalized.
	got, err := resolver.Resolve(context.Background(), "MLA", "img/ant.png", false)
	require.NoError(t, err)
	assert.Equal(t, signed.String(), got)

	// Local factions resolve under the local prefix.
	_, err = resolver.Resolve(context.Background(), "custom-local", "img/boss.png", true)
	require.NoError(t, err)
}

func TestStorageAssetResolverUnresolvableInputs(t *testing.T) {
	client := new(mocks.Client)
	resolver := faction.NewStorageAssetResolver(client, "factions", "static", "local", time.Hour)

	for _, tc := range []struct{ factionID, path string }{
		{"mla", ""},
		{"", "img/ant.png"},
		{"mla", "../../../secrets"},
	} {
		got, err := resolver.Resolve(context.Background(), tc.factionID, tc.path, false)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	client.AssertNotCalled(t, "PresignedGetObject",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
