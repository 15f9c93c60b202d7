// Package registry holds the static station registry: the immutable set of
// monitoring stations the service can predict for. Loaded once from a YAML
// file at startup; restart-to-refresh is the update model.
package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
)

// ErrStationNotFound marks a lookup for an unregistered station id. A
// recoverable per-request error, surfaced to the caller as not-found.
var ErrStationNotFound = errors.New("station not found")

// Registry is the immutable station set. Safe for concurrent reads.
type Registry struct {
	stations map[string]domain.StationProfile
}

type stationFile struct {
	Stations []domain.StationProfile `yaml:"stations"`
}

// Load reads the station registry from a YAML file. Duplicate or empty ids
// are configuration errors.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station registry: %w", err)
	}

	var file stationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse station registry: %w", err)
	}
	if len(file.Stations) == 0 {
		return nil, fmt.Errorf("station registry %s: no stations defined", path)
	}

	return FromProfiles(file.Stations...)
}

// FromProfiles builds a registry directly from profiles.
func FromProfiles(profiles ...domain.StationProfile) (*Registry, error) {
	stations := make(map[string]domain.StationProfile, len(profiles))
	for _, p := range profiles {
		if p.ID == "" {
			return nil, errors.New("station registry: station with empty id")
		}
		if _, dup := stations[p.ID]; dup {
			return nil, fmt.Errorf("station registry: duplicate station id %q", p.ID)
		}
		stations[p.ID] = p
	}
	return &Registry{stations: stations}, nil
}

// Lookup returns the profile for a station id, or ErrStationNotFound.
func (r *Registry) Lookup(id string) (domain.StationProfile, error) {
	p, ok := r.stations[id]
	if !ok {
		return domain.StationProfile{}, fmt.Errorf("station %q: %w", id, ErrStationNotFound)
	}
	return p, nil
}

// All returns every registered profile, sorted by id for deterministic
// iteration in the feed loop.
func (r *Registry) All() []domain.StationProfile {
	out := make([]domain.StationProfile, 0, len(r.stations))
	for _, p := range r.stations {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered stations.
func (r *Registry) Len() int { return len(r.stations) }
