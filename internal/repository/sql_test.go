package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"learnboard_backend/internal/model"
	"learnboard_backend/internal/util"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMySQLMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestLeaderboardQueryDefaultsNullAggregates(t *testing.T) {
	db, mock := newMySQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles AS p")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "badge_count", "points"}).
			AddRow("u1", "alice", int64(3), int64(250)).
			AddRow("u2", nil, nil, nil))

	entries, err := NewProfileRepository(db).Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []model.LeaderboardEntry{
		{Rank: 1, UserID: "u1", Username: "alice", BadgeCount: 3, Points: 250},
		{Rank: 2, UserID: "u2", Username: "Anonymous", BadgeCount: 0, Points: 0},
	}, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboardQueryFailureIsStoreUnavailable(t *testing.T) {
	db, mock := newMySQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles AS p")).
		WillReturnError(errors.New("connection refused"))

	_, err := NewProfileRepository(db).Leaderboard(context.Background(), 10)
	assert.ErrorIs(t, err, util.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressUpsertReturnsStoredRow(t *testing.T) {
	db, mock := newMySQLMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE `completed`=GREATEST(progress_percentage, VALUES(progress_percentage)) >= ?,`progress_percentage`=GREATEST(progress_percentage, VALUES(progress_percentage))")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `course_progress`")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created_at", "user_id", "course_id", "progress_percentage",
			"completed", "last_accessed", "current_lesson_index", "updated_at",
		}).AddRow("p1", now, "u1", "c1", 100, true, now, 3, now))
	mock.ExpectCommit()

	// a stale 50% write against a completed row
	stored, err := NewProgressRepository(db).Upsert(context.Background(), &model.ProgressRecord{
		UserID:             "u1",
		CourseID:           "c1",
		ProgressPercentage: 50,
		CurrentLessonIndex: 3,
		LastAccessedAt:     now,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, stored.ProgressPercentage)
	assert.True(t, stored.Completed)
	assert.Equal(t, 3, stored.CurrentLessonIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressUpsertFailureRollsBack(t *testing.T) {
	db, mock := newMySQLMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `course_progress`").WillReturnError(errors.New("deadlock found"))
	mock.ExpectRollback()

	_, err := NewProgressRepository(db).Upsert(context.Background(), &model.ProgressRecord{
		UserID: "u1", CourseID: "c1", ProgressPercentage: 10, LastAccessedAt: time.Now(),
	})
	assert.ErrorIs(t, err, util.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressUpsertPostgresKeepsGreatest(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	row := EncodeProgress(&model.ProgressRecord{UserID: "u1", CourseID: "c1", ProgressPercentage: 50, LastAccessedAt: time.Now()})
	stmt := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Clauses(progressUpsert(tx.Dialector.Name())).Create(row)
	})

	greatest := "GREATEST(course_progress.progress_percentage, EXCLUDED.progress_percentage)"
	assert.Contains(t, stmt, `ON CONFLICT ("user_id","course_id") DO UPDATE SET`)
	assert.Contains(t, stmt, `"completed"=`+greatest+" >= 100")
	assert.Contains(t, stmt, `"progress_percentage"=`+greatest)
	assert.Less(t, strings.Index(stmt, `"completed"=`), strings.Index(stmt, `"progress_percentage"=`+greatest))
}
