package secrets

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/socialflow/pkg/utils"
)

// DBStore keeps AES-GCM encrypted secrets in Postgres. Meant for local
// development where no cloud vault is available.
// Each value is sealed with its name as additional data, so a row copied
// under another name fails to open.
type DBStore struct {
	db     *sql.DB
	sealer *utils.Sealer
}

func NewDBStore(db *sql.DB, secretKey string) (*DBStore, error) {
	sealer, err := utils.NewSealer(secretKey)
	if err != nil {
		return nil, fmt.Errorf("error configuring secret encryption: %w", err)
	}
	return &DBStore{db: db, sealer: sealer}, nil
}

func (s *DBStore) Get(ctx context.Context, name string) (string, error) {
	var sealed string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM secrets WHERE name = $1", name).Scan(&sealed)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		slog.Info(err.Error())
		return "", err
	}

	value, err := s.sealer.Open(sealed, []byte(name))
	if err != nil {
		return "", fmt.Errorf("error decrypting secret %s: %w", name, err)
	}
	return string(value), nil
}

func (s *DBStore) Put(ctx context.Context, name, value string) (string, error) {
	sealed, err := s.sealer.Seal([]byte(value), []byte(name))
	if err != nil {
		return "", fmt.Errorf("error encrypting secret %s: %w", name, err)
	}

	query := `
		INSERT INTO secrets (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, name, sealed); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return name, nil
}

func (s *DBStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM secrets WHERE name = $1", name); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
