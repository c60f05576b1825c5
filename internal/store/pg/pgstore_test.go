package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"accountd.org/internal/account"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func TestCreateAccount(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("insert into accounts").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"Ada", "Lovelace", sqlmock.AnyArg(), true, false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	a := &account.Account{
		Email:        "ada@example.com",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PasswordHash: "hash",
		Active:       true,
	}
	if err := store.Accounts(context.Background()).Create(context.Background(), a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected generated id")
	}
	if !a.CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at: %v", a.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAccountUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into accounts").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	a := &account.Account{Email: "dup@example.com", PasswordHash: "hash", Active: true}
	err := store.Accounts(context.Background()).Create(context.Background(), a)
	if !errors.Is(err, account.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestFindByFieldNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select .* from accounts where national_id").
		WithArgs("9001011234567").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Accounts(context.Background()).
		FindByField(context.Background(), account.LoginTypeNationalID, "9001011234567")
	if !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAccountNoRows(t *testing.T) {
	store, mock := newMockStore(t)

	active := false
	mock.ExpectExec("update accounts set active").
		WithArgs(false, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.Accounts(context.Background()).
		Update(context.Background(), "missing", account.AccountUpdate{Active: &active})
	if !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoginMethodUpsert(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "account_id", "login_type", "identifier", "created_at", "updated_at"}).
		AddRow("lm-1", "acct-1", "email", "ada@example.com", now, now)
	mock.ExpectQuery("insert into login_methods").
		WithArgs(sqlmock.AnyArg(), "acct-1", account.LoginTypeEmail, "ada@example.com").
		WillReturnRows(rows)

	lm, err := store.LoginMethods(context.Background()).
		Upsert(context.Background(), "acct-1", account.LoginTypeEmail, "ada@example.com")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if lm.AccountID != "acct-1" || lm.Type != account.LoginTypeEmail {
		t.Fatalf("unexpected method: %+v", lm)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoginMethodUpsertForeignOwner(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into login_methods").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	_, err := store.LoginMethods(context.Background()).
		Upsert(context.Background(), "acct-2", account.LoginTypeEmail, "ada@example.com")
	if !errors.Is(err, account.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLoginMethodUpsertMissingAccount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into login_methods").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	_, err := store.LoginMethods(context.Background()).
		Upsert(context.Background(), "ghost", account.LoginTypeEmail, "ada@example.com")
	if !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileCreateConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into profiles").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	p := &account.Profile{AccountID: "acct-1"}
	err := store.Profiles(context.Background()).Create(context.Background(), p)
	if !errors.Is(err, account.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	exp := now.Add(5 * 24 * time.Hour)

	mock.ExpectExec("insert into refresh_tokens").
		WithArgs("tok-1", "acct-1", "digest", exp, now, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("select id, account_id, token_hash, expires_at, created_at, revoked").
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "token_hash", "expires_at", "created_at", "revoked"}).
			AddRow("tok-1", "acct-1", "digest", exp, now, false))
	mock.ExpectExec("update refresh_tokens set revoked = true where id").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	tokens := store.RefreshTokens(ctx)
	rec := &account.RefreshToken{ID: "tok-1", AccountID: "acct-1", TokenHash: "digest", ExpiresAt: exp, CreatedAt: now}
	if err := tokens.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := tokens.Find(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.TokenHash != "digest" || got.Revoked {
		t.Fatalf("unexpected token: %+v", got)
	}
	if err := tokens.MarkRevoked(ctx, "tok-1"); err != nil {
		t.Fatalf("MarkRevoked: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteAccountNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from accounts").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Accounts(context.Background()).Delete(context.Background(), "missing")
	if !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
