package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UnitRepository reads the already-persisted registry units. This service
// never writes them; the commit collaborator does.
type UnitRepository interface {
	ExistingUnitNumbers(ctx context.Context, tenantID string, numbers []string) (map[string]bool, error)
}

type unitRepo struct {
	db *sqlx.DB
}

func NewUnitRepository(db *sqlx.DB) UnitRepository {
	return &unitRepo{db: db}
}

func (r *unitRepo) ExistingUnitNumbers(ctx context.Context, tenantID string, numbers []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(numbers))
	if len(numbers) == 0 {
		return existing, nil
	}

	var found []string
	err := r.db.SelectContext(ctx, &found, `
		SELECT unit_number FROM units
		WHERE tenant_id = $1 AND unit_number = ANY($2)
	`, tenantID, pq.Array(numbers))
	if err != nil {
		return nil, err
	}

	for _, n := range found {
		existing[n] = true
	}
	return existing, nil
}
