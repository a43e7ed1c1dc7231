package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrInvalidProvider  = errors.New("invalid provider")
)

type Provider struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Specialty string          `json:"specialty"`
	Schedule  schedule.Config `json:"schedule"`
}

// Validate checks the provider's own fields and its schedule.
func (p Provider) Validate() error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("%w: id is required", ErrInvalidProvider)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProvider)
	}
	if p.Schedule.ProviderID != p.ID {
		return fmt.Errorf("%w: schedule belongs to another provider", ErrInvalidProvider)
	}
	return p.Schedule.Validate()
}

// Directory maps provider ids to display data and their schedule. Schedule
// changes never touch existing appointments.
type Directory interface {
	List(ctx context.Context) ([]Provider, error)
	Get(ctx context.Context, id uuid.UUID) (*Provider, error)
	Save(ctx context.Context, p Provider) error
	UpdateSchedule(ctx context.Context, id uuid.UUID, cfg schedule.Config) (*Provider, error)
	ScheduleFor(ctx context.Context, id uuid.UUID) (schedule.Config, error)
}

type MemoryDirectory struct {
	mu        sync.RWMutex
	providers map[uuid.UUID]Provider
}

func NewMemoryDirectory(providers ...Provider) (*MemoryDirectory, error) {
	d := &MemoryDirectory{providers: make(map[uuid.UUID]Provider)}
	for _, p := range providers {
		if err := d.Save(context.Background(), p); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *MemoryDirectory) List(ctx context.Context) ([]Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Provider, 0, len(d.providers))
	for _, p := range d.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (d *MemoryDirectory) Get(ctx context.Context, id uuid.UUID) (*Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return &p, nil
}

func (d *MemoryDirectory) Save(ctx context.Context, p Provider) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Schedule.ActiveWeekdays = slices.Clone(p.Schedule.ActiveWeekdays)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.providers[p.ID] = p
	return nil
}

func (d *MemoryDirectory) UpdateSchedule(ctx context.Context, id uuid.UUID, cfg schedule.Config) (*Provider, error) {
	cfg.ProviderID = id
	cfg.ActiveWeekdays = slices.Clone(cfg.ActiveWeekdays)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	p.Schedule = cfg
	d.providers[id] = p
	return &p, nil
}

func (d *MemoryDirectory) ScheduleFor(ctx context.Context, id uuid.UUID) (schedule.Config, error) {
	p, err := d.Get(ctx, id)
	if err != nil {
		return schedule.Config{}, err
	}
	return p.Schedule, nil
}
