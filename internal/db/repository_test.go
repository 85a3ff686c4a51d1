package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm/logger"

	"github.com/steemit/postrank/internal/models"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	d, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), "error", nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return NewRepository(d.DB), mock
}

func TestPostRepository_GetPosts(t *testing.T) {
	repo, mock := newMockRepository(t)
	posts := NewPostRepository(repo)

	rows := sqlmock.NewRows([]string{"pid", "tid", "uid", "upvotes", "downvotes", "timestamp", "edited", "deleted", "content"}).
		AddRow(3, 1, 7, 4, 1, 1000, 0, false, "c").
		AddRow(1, 1, 8, 0, 0, 900, 0, true, "a")
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE pid IN`).WillReturnRows(rows)

	got, err := posts.GetPosts(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] == nil || got[0].PID != 1 || !got[0].Deleted {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1] != nil {
		t.Errorf("got[1] = %+v, want nil", got[1])
	}
	if got[2] == nil || got[2].Upvotes != 4 || got[2].Votes() != 3 {
		t.Errorf("got[2] = %+v", got[2])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostRepository_SetPostFields(t *testing.T) {
	repo, mock := newMockRepository(t)
	posts := NewPostRepository(repo)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET "downvotes"=\$1,"upvotes"=\$2 WHERE pid = \$3`).
		WithArgs(int64(1), int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := posts.SetPostFields(context.Background(), 9, models.VoteFields(5, 1)); err != nil {
		t.Fatalf("SetPostFields() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}

	if err := posts.SetPostFields(context.Background(), 9, map[string]interface{}{"bogus": 1}); err == nil {
		t.Error("SetPostFields() with an unknown field should fail")
	}
}

func TestTopicRepository_GetTopicFields(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		want    *models.Topic
		wantErr bool
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "topics" WHERE tid = \$1`).
					WillReturnRows(sqlmock.NewRows([]string{"tid", "cid", "main_pid", "upvotes", "downvotes"}).
						AddRow(4, 2, 40, 3, 0))
			},
			want: &models.Topic{TID: 4, CID: 2, MainPID: 40, Upvotes: 3},
		},
		{
			name: "missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "topics" WHERE tid = \$1`).
					WillReturnRows(sqlmock.NewRows([]string{"tid", "cid", "main_pid", "upvotes", "downvotes"}))
			},
		},
		{
			name: "backend failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "topics"`).WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			tt.setup(mock)

			got, err := NewTopicRepository(repo).GetTopicFields(context.Background(), 4, []string{models.TopicFieldMainPID})
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetTopicFields() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want == nil {
				if got != nil {
					t.Errorf("GetTopicFields() = %+v, want nil", got)
				}
				return
			}
			if *got != *tt.want {
				t.Errorf("GetTopicFields() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTopicRepository_SetTopicFields(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "topics" SET "main_pid"=\$1 WHERE tid = \$2`).
		WithArgs(int64(12), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewTopicRepository(repo).SetTopicFields(context.Background(), 4, map[string]interface{}{
		models.TopicFieldMainPID: int64(12),
	})
	if err != nil {
		t.Fatalf("SetTopicFields() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGormLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  logger.LogLevel
	}{
		{"debug", logger.Info},
		{"INFO", logger.Warn},
		{"warning", logger.Error},
		{"ERROR", logger.Silent},
		{"verbose", logger.Warn},
	}
	for _, tt := range tests {
		if got := gormLogLevel(tt.level); got != tt.want {
			t.Errorf("gormLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
