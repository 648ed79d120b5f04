package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/startupstarter/admin/shared/models"
)

const maintenanceKey = "system:maintenance"

// MaintenanceStore keeps the platform maintenance flag.
type MaintenanceStore struct {
	client *goredis.Client
}

func NewMaintenanceStore(client *goredis.Client) *MaintenanceStore {
	return &MaintenanceStore{client: client}
}

func (s *MaintenanceStore) Get(ctx context.Context) (models.MaintenanceState, error) {
	var state models.MaintenanceState
	data, err := s.client.Get(ctx, maintenanceKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("failed to read maintenance flag: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to decode maintenance flag: %w", err)
	}
	return state, nil
}

func (s *MaintenanceStore) Set(ctx context.Context, state models.MaintenanceState) error {
	if !state.Enabled {
		if err := s.client.Del(ctx, maintenanceKey).Err(); err != nil {
			return fmt.Errorf("failed to clear maintenance flag: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, maintenanceKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set maintenance flag: %w", err)
	}
	return nil
}

// ProcessedSet remembers handled event ids per consumer for a bounded time.
type ProcessedSet struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewProcessedSet(client *goredis.Client, name string, ttl time.Duration) *ProcessedSet {
	return &ProcessedSet{client: client, prefix: "processed:" + name + ":", ttl: ttl}
}

// Seen reports whether id was already marked.
func (p *ProcessedSet) Seen(ctx context.Context, id string) (bool, error) {
	n, err := p.client.Exists(ctx, p.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *ProcessedSet) Mark(ctx context.Context, id string) error {
	return p.client.Set(ctx, p.prefix+id, 1, p.ttl).Err()
}
