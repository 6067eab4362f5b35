package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/sandevgo/clairebot/internal/core"
)

var ErrNotFound = errors.New("profile not found")

// Directory is a read-only view of the externally managed profile file: a
// JSON array of {uuid, name} objects. Profile CRUD belongs to the web layer;
// this core only resolves namespace seeds from it.
type Directory struct {
	path string
	mu   sync.RWMutex
}

func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

func (d *Directory) All(ctx context.Context) ([]core.Profile, error) {
	d.mu.RLock()
	data, err := os.ReadFile(d.path)
	d.mu.RUnlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	var profiles []core.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	return profiles, nil
}

func (d *Directory) Get(ctx context.Context, uuid string) (core.Profile, error) {
	profiles, err := d.All(ctx)
	if err != nil {
		return core.Profile{}, err
	}
	for _, p := range profiles {
		if p.UUID == uuid {
			return p, nil
		}
	}
	return core.Profile{}, fmt.Errorf("%w: %s", ErrNotFound, uuid)
}
