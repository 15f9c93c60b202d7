package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
)

func writeStationFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads a valid registry", func(t *testing.T) {
		path := writeStationFile(t, `
stations:
  - id: Station_001_AgriLoam
    lat: 23.0
    lon: 77.0
    elevation: 300
    soil_type: Loam
    lulc: Agri
  - id: Station_002_ForestSand
    lat: 25.5
    lon: 78.5
    elevation: 450
    soil_type: Sand
    lulc: Forest
`)
		reg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, reg.Len())

		p, err := reg.Lookup("Station_001_AgriLoam")
		require.NoError(t, err)
		assert.Equal(t, 23.0, p.Lat)
		assert.Equal(t, "Loam", p.SoilType)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeStationFile(t, "stations: [}")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("empty station list", func(t *testing.T) {
		path := writeStationFile(t, "stations: []")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no stations")
	})
}

func TestFromProfiles(t *testing.T) {
	t.Run("rejects empty id", func(t *testing.T) {
		_, err := FromProfiles(domain.StationProfile{ID: ""})
		assert.Error(t, err)
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		_, err := FromProfiles(
			domain.StationProfile{ID: "s1"},
			domain.StationProfile{ID: "s1"},
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})
}

func TestLookup(t *testing.T) {
	reg, err := FromProfiles(domain.StationProfile{ID: "s1", SoilType: "Clay"})
	require.NoError(t, err)

	t.Run("unknown id is ErrStationNotFound", func(t *testing.T) {
		_, err := reg.Lookup("s2")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStationNotFound))
		assert.Contains(t, err.Error(), "s2")
	})
}

func TestAll(t *testing.T) {
	reg, err := FromProfiles(
		domain.StationProfile{ID: "charlie"},
		domain.StationProfile{ID: "alpha"},
		domain.StationProfile{ID: "bravo"},
	)
	require.NoError(t, err)

	var ids []string
	for _, p := range reg.All() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, ids)
}
