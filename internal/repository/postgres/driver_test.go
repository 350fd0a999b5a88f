package postgres

import (
	"context"
	"testing"
	"time"

	"arriendo-cajas-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverRepository_LeastLoaded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDriverRepository(db)

	mock.ExpectQuery("ORDER BY count\\(r.id\\) ASC, d.id ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "is_active", "push_token", "created_at"}).
			AddRow(2, "Pedro Soto", "pedro@example.com", "+56911111111", true, nil, time.Now()))

	d, err := repo.LeastLoaded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.ID)
	assert.Empty(t, d.PushToken)

	mock.ExpectQuery("ORDER BY count").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "is_active", "push_token", "created_at"}))
	_, err = repo.LeastLoaded(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
