package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantumedge/backend/internal/models"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("already exists")

const pgUniqueViolation = "23505"

const userColumns = `id::text AS id, email, display_name, photo_url, provider,
	COALESCE(password, '') AS password, created_at, updated_at`

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore handles user CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies the embedded migrations. dsn must be a postgres:// URL.
func Migrate(dsn string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// migrateURL swaps the scheme so golang-migrate picks its pgx/v5 driver.
func migrateURL(dsn string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}

func (s *PostgresStore) CreateUser(ctx context.Context, email, displayName, photoURL, hashedPassword string) (*models.User, error) {
	var u models.User
	err := pgxscan.Get(ctx, s.pool, &u,
		`INSERT INTO users (email, display_name, photo_url, provider, password)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		email, displayName, photoURL, models.ProviderPassword, hashedPassword,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// UpsertProviderUser returns the account for email, creating it on first
// provider sign-in. Existing profile fields win over the provider's.
func (s *PostgresStore) UpsertProviderUser(ctx context.Context, email, displayName, photoURL, provider string) (*models.User, error) {
	var u models.User
	err := pgxscan.Get(ctx, s.pool, &u,
		`INSERT INTO users (email, display_name, photo_url, provider)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET
			display_name = COALESCE(NULLIF(users.display_name, ''), EXCLUDED.display_name),
			photo_url    = COALESCE(NULLIF(users.photo_url, ''), EXCLUDED.photo_url),
			updated_at   = NOW()
		 RETURNING `+userColumns,
		email, displayName, photoURL, provider,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, id)
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id, displayName, photoURL string) (*models.User, error) {
	return s.getUser(ctx,
		`UPDATE users SET display_name = $2, photo_url = $3, updated_at = NOW()
		 WHERE id::text = $1
		 RETURNING `+userColumns,
		id, displayName, photoURL,
	)
}

func (s *PostgresStore) SetPhotoURL(ctx context.Context, id, photoURL string) (*models.User, error) {
	return s.getUser(ctx,
		`UPDATE users SET photo_url = $2, updated_at = NOW()
		 WHERE id::text = $1
		 RETURNING `+userColumns,
		id, photoURL,
	)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var u models.User
	if err := pgxscan.Get(ctx, s.pool, &u, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
