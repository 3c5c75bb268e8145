package syncsales

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestPersistInsertsSales(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	msgs := []redis.XMessage{{
		ID: "1-0",
		Values: map[string]any{
			"aid":    "0xabc",
			"buyer":  "0x3333333333333333333333333333333333333333",
			"seller": "0x1111111111111111111111111111111111111111",
			"price":  "5500000000000000000",
			"at":     "1700000500",
		},
	}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sales").
		WithArgs("0xabc",
			"0x3333333333333333333333333333333333333333",
			"0x1111111111111111111111111111111111111111",
			"5500000000000000000", int64(1700000500)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, persist(context.Background(), db, msgs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistRollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	msgs := []redis.XMessage{{ID: "1-0", Values: map[string]any{
		"aid": "0xabc", "buyer": "b", "seller": "s", "price": "1", "at": "1",
	}}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sales").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	require.Error(t, persist(context.Background(), db, msgs))
	require.NoError(t, mock.ExpectationsWereMet())
}
