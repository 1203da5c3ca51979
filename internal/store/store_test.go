package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"medremind-backend/internal/db"
	"medremind-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB opens a private in-memory database with the schema applied.
func newSQLiteDB(t *testing.T) *gorm.DB {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return gormDB
}

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.Local)

func TestGormStore_AppendEvent_SQL(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      bool
	}{
		{
			name: "Inserts a row stamped with the local date",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "medication_events"`)).
					WithArgs("+15550001", "ASPIRIN", "09:00", "SCHEDULED", "2026-10-17").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Database failure surfaces as a storage error",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "medication_events"`)).
					WithArgs(Any{}, Any{}, Any{}, Any{}, Any{}).
					WillReturnError(errors.New("connection refused"))
				mock.ExpectRollback()
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB, clockwork.NewFakeClockAt(fixedNow))

			tc.mockExpectations(mock)

			err := s.AppendEvent(context.Background(), "+15550001", "ASPIRIN", "09:00", model.StatusScheduled)
			if tc.expectedErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrStorage))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_CountEvents_SQL(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, clockwork.NewFakeClockAt(fixedNow))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "medication_events" WHERE identity = $1 AND status <> $2`)).
		WithArgs("+15550001", "SCHEDULED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := s.CountEvents(context.Background(), "+15550001", EventFilter{NotStatus: model.StatusScheduled})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CountEvents_StorageError(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, clockwork.NewFakeClockAt(fixedNow))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "medication_events"`)).
		WillReturnError(errors.New("database is closed"))

	_, err := s.CountEvents(context.Background(), "+15550001", EventFilter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
}

func TestGormStore_CountEvents_Filters(t *testing.T) {
	// Eight days ago, the day before the weekly window opens.
	clock := clockwork.NewFakeClockAt(fixedNow.AddDate(0, 0, -8))
	s := NewGormStore(newSQLiteDB(t), clock)
	ctx := context.Background()
	const patient = "+15550001"

	require.NoError(t, s.AppendEvent(ctx, patient, model.UnknownMedicine, "", model.StatusTaken))
	// Exactly seven days ago: first day inside the weekly window.
	clock.Advance(24 * time.Hour)
	require.NoError(t, s.AppendEvent(ctx, patient, model.UnknownMedicine, "", model.StatusMissed))
	// Today.
	clock.Advance(7 * 24 * time.Hour)
	require.NoError(t, s.AppendEvent(ctx, patient, "ASPIRIN", "09:00", model.StatusScheduled))
	require.NoError(t, s.AppendEvent(ctx, patient, model.UnknownMedicine, "", model.StatusTaken))
	// Another identity never leaks into the counts.
	require.NoError(t, s.AppendEvent(ctx, "+15559999", model.UnknownMedicine, "", model.StatusTaken))

	today := fixedNow.Format(model.DateLayout)
	weekStart := fixedNow.AddDate(0, 0, -7).Format(model.DateLayout)

	testCases := []struct {
		name     string
		filter   EventFilter
		expected int64
	}{
		{"everything", EventFilter{}, 4},
		{"status equality", EventFilter{Status: model.StatusTaken}, 2},
		{"status inequality", EventFilter{NotStatus: model.StatusScheduled}, 3},
		{"on date", EventFilter{On: today}, 2},
		{"taken on date", EventFilter{Status: model.StatusTaken, On: today}, 1},
		{"on or after week start", EventFilter{OnOrAfter: weekStart}, 3},
		{"taken on or after week start", EventFilter{Status: model.StatusTaken, OnOrAfter: weekStart}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := s.CountEvents(ctx, patient, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, n)
		})
	}
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
