package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
)

type DBStorage struct {
	db *sql.DB
}

func NewDBStorage(dsn string) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBStorage{db: dbConnect}, nil
}

// DB exposes the connection pool for schema migrations.
func (storage *DBStorage) DB() *sql.DB {
	return storage.db
}

func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

// classify maps driver errors onto the store's sentinel errors.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, internalerrors.ErrEmailTaken)
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return fmt.Errorf("%s: %w: %v", op, internalerrors.ErrStorageUnavailable, err)
		}
		return fmt.Errorf("%s: %w: %v", op, internalerrors.ErrQueryExecution, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w: %v", op, internalerrors.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (storage *DBStorage) QueryMetrics(ctx context.Context, owner string) iter.Seq2[models.MetricRecord, error] {
	return func(yield func(models.MetricRecord, error) bool) {
		query := "SELECT id, steps, sleep, mood, notes, date, owner FROM wellness_metrics WHERE owner = $1 ORDER BY date ASC, seq ASC"
		rows, err := storage.db.QueryContext(ctx, query, owner)
		if err != nil {
			yield(models.MetricRecord{}, classify("error retrieving metrics", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var rec models.MetricRecord
			var mood string
			err = rows.Scan(&rec.ID, &rec.Steps, &rec.Sleep, &mood, &rec.Notes, &rec.Date, &rec.Owner)
			if err != nil {
				yield(models.MetricRecord{}, classify("error scanning metric", err))
				return
			}
			rec.Mood = models.Mood(mood)
			rec.Date = rec.Date.UTC()
			if !yield(rec, nil) {
				return
			}
		}

		if err = rows.Err(); err != nil {
			yield(models.MetricRecord{}, classify("error iterating over metrics", err))
		}
	}
}

func (storage *DBStorage) InsertMetric(ctx context.Context, record models.MetricRecord) (string, error) {
	if err := record.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	query := "INSERT INTO wellness_metrics (id, steps, sleep, mood, notes, date, owner) VALUES ($1, $2, $3, $4, $5, $6, $7)"
	_, err := storage.db.ExecContext(ctx, query, id, record.Steps, record.Sleep, string(record.Mood), record.Notes, record.Date, record.Owner)
	if err != nil {
		return "", classify("error saving metric", err)
	}
	return id, nil
}

func (storage *DBStorage) UpdateMetric(ctx context.Context, record models.MetricRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	query := "UPDATE wellness_metrics SET steps = $1, sleep = $2, mood = $3, notes = $4, date = $5 WHERE id = $6 AND owner = $7"
	result, err := storage.db.ExecContext(ctx, query, record.Steps, record.Sleep, string(record.Mood), record.Notes, record.Date, record.ID, record.Owner)
	if err != nil {
		return classify("error updating metric", err)
	}
	return expectOneRow(result, "update "+record.ID)
}

func (storage *DBStorage) DeleteMetric(ctx context.Context, owner, id string) error {
	query := "DELETE FROM wellness_metrics WHERE id = $1 AND owner = $2"
	result, err := storage.db.ExecContext(ctx, query, id, owner)
	if err != nil {
		return classify("error deleting metric", err)
	}
	return expectOneRow(result, "delete "+id)
}

func expectOneRow(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, internalerrors.ErrRecordNotFound)
	}
	return nil
}

func (storage *DBStorage) GetMetric(ctx context.Context, id string) (models.MetricRecord, error) {
	var rec models.MetricRecord
	var mood string

	query := "SELECT id, steps, sleep, mood, notes, date, owner FROM wellness_metrics WHERE id = $1"
	err := storage.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Steps, &rec.Sleep, &mood, &rec.Notes, &rec.Date, &rec.Owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.MetricRecord{}, internalerrors.ErrRecordNotFound
		}
		return models.MetricRecord{}, classify("error retrieving metric", err)
	}
	rec.Mood = models.Mood(mood)
	rec.Date = rec.Date.UTC()
	return rec, nil
}

func (storage *DBStorage) PutProfile(ctx context.Context, profile models.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO users (uid, name, email, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (uid) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, created_at = EXCLUDED.created_at`
	_, err := storage.db.ExecContext(ctx, query, profile.UID, profile.Name, profile.Email, profile.CreatedAt)
	if err != nil {
		return classify("error saving profile", err)
	}
	return nil
}

func (storage *DBStorage) GetProfile(ctx context.Context, uid string) (models.UserProfile, error) {
	profile := models.UserProfile{UID: uid}
	var createdAt time.Time

	query := "SELECT name, email, created_at FROM users WHERE uid = $1"
	err := storage.db.QueryRowContext(ctx, query, uid).Scan(&profile.Name, &profile.Email, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.UserProfile{}, internalerrors.ErrProfileNotFound
		}
		return models.UserProfile{}, classify("error retrieving profile", err)
	}
	profile.CreatedAt = createdAt.UTC()
	return profile, nil
}

func (storage *DBStorage) PutCredential(ctx context.Context, cred models.Credential) error {
	query := "INSERT INTO credentials (email, uid, hash) VALUES ($1, $2, $3)"
	_, err := storage.db.ExecContext(ctx, query, strings.ToLower(cred.Email), cred.UID, cred.Hash)
	if err != nil {
		return classify("error saving credential", err)
	}
	return nil
}

func (storage *DBStorage) GetCredential(ctx context.Context, email string) (models.Credential, error) {
	var cred models.Credential

	query := "SELECT email, uid, hash FROM credentials WHERE email = $1"
	err := storage.db.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(&cred.Email, &cred.UID, &cred.Hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Credential{}, internalerrors.ErrCredentialNotFound
		}
		return models.Credential{}, classify("error retrieving credential", err)
	}
	return cred, nil
}

func (storage *DBStorage) Ping(ctx context.Context) error {
	err := storage.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", classify("ping", err))
	}
	return nil
}
