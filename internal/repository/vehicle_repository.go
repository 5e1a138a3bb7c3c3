package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

// VehicleRepository looks up vehicle labels.
type VehicleRepository interface {
	ListByIDs(ctx context.Context, companyID string, ids []string) ([]domain.Vehicle, error)
}

type vehicleRepository struct {
	db DBTX
}

// NewVehicleRepository instantiates repository.
func NewVehicleRepository(db DBTX) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) ListByIDs(ctx context.Context, companyID string, ids []string) ([]domain.Vehicle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, company_id, name, registration_no
        FROM vehicles WHERE company_id=$1 AND id = ANY($2)
        ORDER BY name ASC, id ASC`
	rows, err := r.db.Query(ctx, query, companyID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.Name, &v.RegistrationNo); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// MemoryVehicleRepository serves vehicles seeded in process.
type MemoryVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]domain.Vehicle
}

// NewMemoryVehicleRepository builds a store seeded with vehicles.
func NewMemoryVehicleRepository(vehicles ...domain.Vehicle) *MemoryVehicleRepository {
	m := &MemoryVehicleRepository{vehicles: make(map[string]domain.Vehicle, len(vehicles))}
	for _, v := range vehicles {
		m.vehicles[v.ID] = v
	}
	return m
}

func (m *MemoryVehicleRepository) ListByIDs(_ context.Context, companyID string, ids []string) ([]domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Vehicle
	for _, id := range ids {
		if v, ok := m.vehicles[id]; ok && v.CompanyID == companyID {
			out = append(out, v)
		}
	}
	return out, nil
}
