package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ComputePriceRow is one on-demand EC2 price point used by TCO estimates.
type ComputePriceRow struct {
	SKUID        string                 `json:"sku_id"`
	Region       string                 `json:"region"`
	InstanceType string                 `json:"instance_type"`
	VCPU         *int                   `json:"vcpu,omitempty"`
	MemoryGB     *float64               `json:"memory_gb,omitempty"`
	PricePerHour *float64               `json:"price_per_hour,omitempty"`
	Currency     string                 `json:"currency,omitempty"`
	Unit         string                 `json:"unit,omitempty"`
	FetchedAt    time.Time              `json:"fetched_at"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

type PriceStore struct {
	pool *pgxpool.Pool
}

func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

const upsertSQL = `
INSERT INTO compute_prices
  (sku_id, provider, region, instance_type, vcpu, memory_gb, price_per_hour, currency, unit, fetched_at, metadata, created_at, updated_at)
VALUES ($1, 'aws', $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
ON CONFLICT (sku_id, region) DO UPDATE
  SET instance_type = EXCLUDED.instance_type,
      vcpu = EXCLUDED.vcpu,
      memory_gb = EXCLUDED.memory_gb,
      price_per_hour = EXCLUDED.price_per_hour,
      currency = EXCLUDED.currency,
      unit = EXCLUDED.unit,
      fetched_at = EXCLUDED.fetched_at,
      metadata = EXCLUDED.metadata,
      updated_at = now()
;`

func (s *PriceStore) Upsert(ctx context.Context, r ComputePriceRow) error {
	metaJSON, _ := json.Marshal(r.Metadata)
	_, err := s.pool.Exec(ctx, upsertSQL,
		r.SKUID, r.Region, r.InstanceType, r.VCPU, r.MemoryGB, r.PricePerHour,
		r.Currency, r.Unit, r.FetchedAt.UTC(), metaJSON,
	)
	return err
}

func (s *PriceStore) UpsertBatch(ctx context.Context, rows []ComputePriceRow) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		metaJSON, _ := json.Marshal(r.Metadata)
		if _, err := tx.Exec(ctx, upsertSQL,
			r.SKUID, r.Region, r.InstanceType, r.VCPU, r.MemoryGB, r.PricePerHour,
			r.Currency, r.Unit, r.FetchedAt.UTC(), metaJSON,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// QueryFilter narrows a price lookup to what the TCO calculator needs.
type QueryFilter struct {
	Region       string
	InstanceType string
	Limit        int
}

func (s *PriceStore) Query(ctx context.Context, f QueryFilter) ([]ComputePriceRow, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}

	const q = `
SELECT sku_id, region, instance_type, vcpu, memory_gb, price_per_hour, currency, unit, fetched_at
FROM compute_prices
WHERE ($1 = '' OR region = $1)
  AND ($2 = '' OR instance_type = $2)
ORDER BY region, instance_type
LIMIT $3;
`
	rows, err := s.pool.Query(ctx, q, f.Region, f.InstanceType, f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ComputePriceRow, 0, f.Limit)
	for rows.Next() {
		var r ComputePriceRow
		if err := rows.Scan(&r.SKUID, &r.Region, &r.InstanceType, &r.VCPU, &r.MemoryGB,
			&r.PricePerHour, &r.Currency, &r.Unit, &r.FetchedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastFetchedAt returns the newest fetch timestamp, or the zero time when
// the table is empty.
func (s *PriceStore) LastFetchedAt(ctx context.Context) (time.Time, error) {
	var ts *time.Time
	if err := s.pool.QueryRow(ctx, `SELECT max(fetched_at) FROM compute_prices;`).Scan(&ts); err != nil {
		return time.Time{}, err
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return *ts, nil
}
