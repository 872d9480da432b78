package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool the provider needs. pgxmock satisfies
// it, so tests can run without a live database.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresProvider implements Provider against PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE);
//	CREATE TABLE blog_posts (
//	    id TEXT PRIMARY KEY,
//	    title TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    author_id TEXT NOT NULL REFERENCES users(id),
//	    content TEXT NOT NULL,
//	    image_ref TEXT NOT NULL
//	);
//	CREATE TABLE track_times (
//	    proof TEXT PRIMARY KEY,
//	    track TEXT NOT NULL,
//	    configuration TEXT NOT NULL DEFAULT '',
//	    date DATE NOT NULL,
//	    car TEXT NOT NULL,
//	    tag TEXT NOT NULL DEFAULT '',
//	    time_seconds DOUBLE PRECISION NOT NULL,
//	    user_id TEXT NOT NULL REFERENCES users(id)
//	);
type PostgresProvider struct {
	db Querier
}

// NewPostgresProvider connects a pool and pings it to verify the connection.
func NewPostgresProvider(ctx context.Context, dsn string) (*PostgresProvider, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresProvider{db: pool}, nil
}

// NewPostgresProviderWithDB wraps an existing connection, typically a mock.
func NewPostgresProviderWithDB(db Querier) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// UpsertTrackTime writes tt keyed by its proof URL; an existing record with
// the same proof has all other fields overwritten.
func (p *PostgresProvider) UpsertTrackTime(ctx context.Context, tt TrackTime) error {
	const query = `
		INSERT INTO track_times (proof, track, configuration, date, car, tag, time_seconds, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (proof) DO UPDATE SET
			track = EXCLUDED.track,
			configuration = EXCLUDED.configuration,
			date = EXCLUDED.date,
			car = EXCLUDED.car,
			tag = EXCLUDED.tag,
			time_seconds = EXCLUDED.time_seconds,
			user_id = EXCLUDED.user_id
	`
	if _, err := p.db.Exec(ctx, query,
		tt.Proof, tt.Track, tt.Configuration, tt.Date, tt.Car, tt.Tag, tt.Seconds, tt.UserID,
	); err != nil {
		return fmt.Errorf("upsert track time %s: %w", tt.Proof, err)
	}
	return nil
}

// UserByEmail finds a user by case-insensitive email.
func (p *PostgresProvider) UserByEmail(ctx context.Context, email string) (User, error) {
	const query = `SELECT id, email FROM users WHERE lower(email) = lower($1)`

	var u User
	err := p.db.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user by email: %w", err)
	}
	return u, nil
}

// UserByID finds a user by primary key.
func (p *PostgresProvider) UserByID(ctx context.Context, id string) (User, error) {
	const query = `SELECT id, email FROM users WHERE id = $1`

	var u User
	err := p.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user %s: %w", id, err)
	}
	return u, nil
}

// BlogPost fetches one post by slug.
func (p *PostgresProvider) BlogPost(ctx context.Context, id string) (BlogPost, error) {
	const query = `
		SELECT id, title, created_at, author_id, content, image_ref
		FROM blog_posts WHERE id = $1
	`

	var post BlogPost
	err := p.db.QueryRow(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.CreatedAt, &post.AuthorID, &post.Content, &post.ImageRef,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return BlogPost{}, ErrNotFound
	}
	if err != nil {
		return BlogPost{}, fmt.Errorf("query blog post %s: %w", id, err)
	}
	return post, nil
}

// ListBlogPosts returns every post, oldest first.
func (p *PostgresProvider) ListBlogPosts(ctx context.Context) ([]BlogPost, error) {
	const query = `
		SELECT id, title, created_at, author_id, content, image_ref
		FROM blog_posts ORDER BY created_at
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query blog posts: %w", err)
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		var post BlogPost
		if err := rows.Scan(
			&post.ID, &post.Title, &post.CreatedAt, &post.AuthorID, &post.Content, &post.ImageRef,
		); err != nil {
			return nil, fmt.Errorf("scan blog post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blog posts: %w", err)
	}
	return posts, nil
}

// Close shuts down the connection pool.
func (p *PostgresProvider) Close() error {
	p.db.Close()
	return nil
}
