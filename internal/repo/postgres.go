package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/nutrilabel/auth-service/internal/domain"
	"github.com/nutrilabel/auth-service/internal/repo/migrations"
)

const uniqueViolation = "23505"

// Postgres implements UserRepository over a pooled *sql.DB using the
// pgx stdlib driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Embed)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error { return p.db.Close() }

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (p *Postgres) CreateUser(ctx context.Context, u *domain.User) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "pg.users.insert")
	defer sp.Finish()

	query := `
		INSERT INTO users (username, password_hash, google_id, full_name, profile_picture)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := p.db.QueryRowContext(ctx, query,
		u.Username, u.PasswordHash, u.GoogleID, nullable(u.FullName), nullable(u.ProfilePicture),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		sp.SetTag("error", err)
		if isUnique(err) {
			return domain.ErrDuplicateUser
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const userColumns = `id, username, password_hash, google_id, full_name, profile_picture, reset_token, reset_token_expiry, created_at`

func (p *Postgres) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "pg.users.find_by_username")
	defer sp.Finish()

	row := p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(sp, row)
}

func (p *Postgres) FindByGoogle(ctx context.Context, email, googleID string) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "pg.users.find_by_google")
	defer sp.Finish()

	row := p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR google_id = $2`, email, googleID)
	return scanUser(sp, row)
}

func (p *Postgres) SetResetToken(ctx context.Context, username, token string, expiry time.Time) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "pg.users.set_reset_token")
	defer sp.Finish()

	var id int64
	err := p.db.QueryRowContext(ctx, `
		UPDATE users SET reset_token = $1, reset_token_expiry = $2
		WHERE username = $3
		RETURNING id`,
		token, expiry, username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrEmailNotFound
	}
	if err != nil {
		sp.SetTag("error", err)
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) RedeemResetToken(ctx context.Context, token, newHash string) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "pg.users.redeem_reset_token")
	defer sp.Finish()

	// one conditional UPDATE: the row-level guard makes the token
	// single-use even when two redemptions race
	u := &domain.User{}
	err := p.db.QueryRowContext(ctx, `
		UPDATE users
		SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL
		WHERE reset_token = $2 AND reset_token_expiry > now()
		RETURNING id, username`,
		newHash, token).Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvalidOrExpiredToken
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.PasswordHash = newHash
	return u, nil
}

func scanUser(sp ddtrace.Span, row *sql.Row) (*domain.User, error) {
	var (
		u        domain.User
		fullName sql.NullString
		picture  sql.NullString
		token    sql.NullString
		expiry   sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.GoogleID,
		&fullName, &picture, &token, &expiry, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.FullName = fullName.String
	u.ProfilePicture = picture.String
	if token.Valid {
		u.ResetToken = &token.String
	}
	if expiry.Valid {
		t := expiry.Time
		u.ResetExpiry = &t
	}
	return &u, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
