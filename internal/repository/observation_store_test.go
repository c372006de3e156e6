package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"MacroPulse/internal/domain/models"
	pkgch "MacroPulse/pkg/clickhouse"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*CHObservationStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCHObservationStore(pkgch.NewFromDB(db), "macropulse.observations"), mock
}

func TestObservationStoreInit(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS macropulse.observations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationStoreStoreBatch(t *testing.T) {
	s, mock := newMockStore(t)
	d1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO macropulse.observations (series_id, source, date, value, ingested_at) VALUES (?, ?, ?, ?, ?), (?, ?, ?, ?, ?)")).
		WithArgs("breadth:ADLINE", "manual", d1, 100.0, sqlmock.AnyArg(), "breadth:ADLINE", "manual", d2, 105.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := s.StoreBatch(context.Background(), "breadth:ADLINE", "manual", []models.Observation{
		models.ObservationAt(d1, 100),
		models.ObservationAt(d2, 105),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationStoreStoreBatchEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	require.NoError(t, s.StoreBatch(context.Background(), "breadth:ADLINE", "manual", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationStoreStoreBatchError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("table is read only"))

	err := s.StoreBatch(context.Background(), "breadth:NH_NL", "kafka", []models.Observation{
		models.ObservationAt(time.Now(), 1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "breadth:NH_NL")
}

func TestObservationStoreFetch(t *testing.T) {
	s, mock := newMockStore(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"date", "value"}).
		AddRow(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 61.5).
		AddRow(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 58.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT date, argMax(value, ingested_at) AS value")).
		WithArgs("breadth:PCT_ABOVE_200D", start).
		WillReturnRows(rows)

	series, err := s.Fetch(context.Background(), "breadth:PCT_ABOVE_200D", start)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2024-01-02", series[0].DateString)
	assert.Equal(t, 58.0, series[1].Value)
	require.NoError(t, mock.ExpectationsWereMet())
}
