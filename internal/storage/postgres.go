package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/numguess/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS guess_profiles (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		avatar       TEXT NOT NULL,
		stats        JSONB NOT NULL,
		achievements JSONB NOT NULL,
		history      JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`

type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// OpenPostgres opens and pings a lib/pq connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the profile table when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate guess_profiles: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Load(ctx context.Context, id string) (*domain.Profile, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT
			id,
			name,
			avatar,
			stats,
			achievements,
			history,
			created_at,
			updated_at
		FROM guess_profiles
		WHERE id = $1`

	var (
		p                domain.Profile
		statsJSON        []byte
		achievementsJSON []byte
		historyJSON      []byte
	)
	err = r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Avatar,
		&statsJSON,
		&achievementsJSON,
		&historyJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewProfile(id, r.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select profile %s: %w", id, err)
	}
	if err := json.Unmarshal(statsJSON, &p.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	if err := json.Unmarshal(achievementsJSON, &p.Achievements); err != nil {
		return nil, fmt.Errorf("decode achievements: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &p.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return Normalize(&p, id, r.now()), nil
}

func (r *PostgresRepository) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil {
		return ErrNilProfile
	}
	id, err := validateID(profile.ID)
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(profile.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	achievementsJSON, err := json.Marshal(profile.Achievements)
	if err != nil {
		return fmt.Errorf("marshal achievements: %w", err)
	}
	historyJSON, err := json.Marshal(profile.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	const query = `
		INSERT INTO guess_profiles (
			id,
			name,
			avatar,
			stats,
			achievements,
			history,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			avatar = EXCLUDED.avatar,
			stats = EXCLUDED.stats,
			achievements = EXCLUDED.achievements,
			history = EXCLUDED.history,
			updated_at = EXCLUDED.updated_at`

	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	updatedAt := profile.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	if _, err := r.db.ExecContext(
		ctx,
		query,
		id,
		profile.Name,
		profile.Avatar,
		string(statsJSON),
		string(achievementsJSON),
		string(historyJSON),
		createdAt,
		updatedAt,
	); err != nil {
		return fmt.Errorf("upsert profile %s: %w", id, err)
	}
	return nil
}
