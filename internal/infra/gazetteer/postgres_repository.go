package gazetteer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/uv-australia/internal/domain/gazetteer"
)

const cityColumns = `c.id, c.name, c.short_name, c.state, c.latitude, c.longitude`

// PostgresRepository reads the city directory from Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the directory tables when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cities (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			short_name  TEXT NOT NULL DEFAULT '',
			state       TEXT NOT NULL DEFAULT '',
			latitude    DOUBLE PRECISION NOT NULL,
			longitude   DOUBLE PRECISION NOT NULL
		);
		CREATE TABLE IF NOT EXISTS city_postcodes (
			city_id        TEXT NOT NULL REFERENCES cities(id) ON DELETE CASCADE,
			postcode_from  INTEGER NOT NULL,
			postcode_to    INTEGER NOT NULL,
			PRIMARY KEY (city_id, postcode_from)
		);
	`)
	if err != nil {
		return fmt.Errorf("create gazetteer schema: %w", err)
	}
	return nil
}

// Seed upserts cities and postcode ranges in one transaction.
func (r *PostgresRepository) Seed(ctx context.Context, cities []gazetteer.City, postcodes []gazetteer.PostcodeRange) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range cities {
			batch.Queue(`
				INSERT INTO cities (id, name, short_name, state, latitude, longitude)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					short_name = EXCLUDED.short_name,
					state = EXCLUDED.state,
					latitude = EXCLUDED.latitude,
					longitude = EXCLUDED.longitude
			`, c.ID, c.Name, c.ShortName, c.State, c.Latitude, c.Longitude)
		}
		for _, p := range postcodes {
			batch.Queue(`
				INSERT INTO city_postcodes (city_id, postcode_from, postcode_to)
				VALUES ($1, $2, $3)
				ON CONFLICT (city_id, postcode_from) DO UPDATE SET postcode_to = EXCLUDED.postcode_to
			`, p.CityID, p.From, p.To)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seed gazetteer: %w", err)
		}
		return nil
	})
}

// Cities implements gazetteer.Repository.
func (r *PostgresRepository) Cities(ctx context.Context) ([]gazetteer.City, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cityColumns+` FROM cities c ORDER BY c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []gazetteer.City
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ByID implements gazetteer.Repository.
func (r *PostgresRepository) ByID(ctx context.Context, id string) (gazetteer.City, bool, error) {
	return r.queryOne(ctx, `SELECT `+cityColumns+` FROM cities c WHERE lower(c.id) = lower($1) LIMIT 1`, id)
}

// ByShortName implements gazetteer.Repository.
func (r *PostgresRepository) ByShortName(ctx context.Context, short string) (gazetteer.City, bool, error) {
	return r.queryOne(ctx, `SELECT `+cityColumns+` FROM cities c WHERE lower(c.short_name) = lower($1) LIMIT 1`, short)
}

// ByName implements gazetteer.Repository.
func (r *PostgresRepository) ByName(ctx context.Context, name string) (gazetteer.City, bool, error) {
	return r.queryOne(ctx, `
		SELECT `+cityColumns+`
		FROM cities c
		WHERE lower(c.name) = lower($1) OR lower(c.id) = lower($1) OR lower(c.short_name) = lower($1)
		ORDER BY (lower(c.name) = lower($1)) DESC
		LIMIT 1
	`, name)
}

// ByPostcode implements gazetteer.Repository.
func (r *PostgresRepository) ByPostcode(ctx context.Context, postcode int) (gazetteer.City, bool, error) {
	return r.queryOne(ctx, `
		SELECT `+cityColumns+`
		FROM city_postcodes p
		JOIN cities c ON c.id = p.city_id
		WHERE $1 BETWEEN p.postcode_from AND p.postcode_to
		ORDER BY p.postcode_to - p.postcode_from
		LIMIT 1
	`, postcode)
}

func (r *PostgresRepository) queryOne(ctx context.Context, sql string, args ...any) (gazetteer.City, bool, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return gazetteer.City{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return gazetteer.City{}, false, rows.Err()
	}
	c, err := scanCity(rows)
	if err != nil {
		return gazetteer.City{}, false, err
	}
	return c, true, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCity(row rowScanner) (gazetteer.City, error) {
	var c gazetteer.City
	if err := row.Scan(&c.ID, &c.Name, &c.ShortName, &c.State, &c.Latitude, &c.Longitude); err != nil {
		return gazetteer.City{}, err
	}
	return c, nil
}

var _ gazetteer.Repository = (*PostgresRepository)(nil)
