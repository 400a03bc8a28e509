package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaAssetCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO media_assets")).
		WithArgs(int64(1), "cat.png", "image/png", int64(512), "https://cdn.example.com/ai-generated/x.png", "a cat", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	ma := &models.MediaAsset{
		UserID:      1,
		FileName:    "cat.png",
		FileType:    "image/png",
		FileSize:    512,
		FileURL:     "https://cdn.example.com/ai-generated/x.png",
		Prompt:      "a cat",
		AIGenerated: true,
	}
	id, err := NewMediaAssetRepository(db).Create(context.Background(), nil, ma)
	require.NoError(t, err)
	assert.Equal(t, int64(8), id)
	assert.Equal(t, int64(8), ma.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaAssetRemoveScopedToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM media_assets WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(8), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := NewMediaAssetRepository(db).Remove(context.Background(), 8, 2)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
