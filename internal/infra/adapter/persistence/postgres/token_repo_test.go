package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"newsportal/internal/domain/entity"
	"newsportal/internal/infra/adapter/persistence/postgres"
)

func TestTokenRepo_GetByToken(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery(`FROM activation_tokens`).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "token", "created_at", "activated",
		}).AddRow(int64(3), int64(9), "abc123", now, false))

	repo := postgres.NewTokenRepo(db)
	got, err := repo.GetByToken(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetByToken err=%v", err)
	}
	if got == nil || got.UserID != 9 || got.Activated {
		t.Fatalf("got %+v, want pending token for user 9", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTokenRepo_MarkActivated(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE activation_tokens SET activated = TRUE`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewTokenRepo(db)
	if err := repo.MarkActivated(context.Background(), 3); err != nil {
		t.Fatalf("MarkActivated err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTokenRepo_DeleteExpiredBefore(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	cutoff := time.Now().Add(-entity.TokenTTL)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM activation_tokens`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	repo := postgres.NewTokenRepo(db)
	got, err := repo.DeleteExpiredBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteExpiredBefore err=%v", err)
	}
	if got != 4 {
		t.Errorf("deleted = %d, want 4", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTokenRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO activation_tokens`)).
		WithArgs(int64(9), "abc123", now, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	repo := postgres.NewTokenRepo(db)
	token := &entity.ActivationToken{UserID: 9, Token: "abc123", CreatedAt: now}
	if err := repo.Create(context.Background(), token); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if token.ID != 3 {
		t.Errorf("token.ID = %d, want 3", token.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
