package pg

import (
	"context"
	"database/sql"
	"errors"

	"accountd.org/internal/account"
	"accountd.org/internal/ids"
)

type loginMethods Store

const loginMethodColumns = `id, account_id, login_type, identifier, created_at, updated_at`

func scanLoginMethod(row interface{ Scan(...any) error }) (*account.LoginMethod, error) {
	var lm account.LoginMethod
	err := row.Scan(&lm.ID, &lm.AccountID, &lm.Type, &lm.Identifier, &lm.CreatedAt, &lm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &lm, nil
}

func (s *loginMethods) FindByIdentifier(ctx context.Context, identifier string) (*account.LoginMethod, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+loginMethodColumns+` from login_methods where identifier = $1`, identifier)
	lm, err := scanLoginMethod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return lm, nil
}

// Upsert binds the identifier to the account's slot for the login type in one
// statement. The global identifier uniqueness constraint turns a value owned
// by a different account into ErrConflict.
func (s *loginMethods) Upsert(ctx context.Context, accountID string, loginType account.LoginType, identifier string) (*account.LoginMethod, error) {
	row := s.db.QueryRowContext(ctx, `
		insert into login_methods (id, account_id, login_type, identifier)
		values ($1, $2, $3, $4)
		on conflict (account_id, login_type) do update
		set identifier = excluded.identifier, updated_at = now()
		returning `+loginMethodColumns+`
	`, ids.New(), accountID, loginType, identifier)
	lm, err := scanLoginMethod(row)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return nil, account.ErrConflict
			case pgErrForeignKeyViolation:
				return nil, account.ErrNotFound
			}
		}
		return nil, err
	}
	return lm, nil
}

func (s *loginMethods) Get(ctx context.Context, id string) (*account.LoginMethod, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+loginMethodColumns+` from login_methods where id = $1`, id)
	lm, err := scanLoginMethod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return lm, nil
}

func (s *loginMethods) ListByAccount(ctx context.Context, accountID string) ([]*account.LoginMethod, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+loginMethodColumns+` from login_methods where account_id = $1 order by created_at asc, id asc`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*account.LoginMethod
	for rows.Next() {
		lm, err := scanLoginMethod(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, lm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *loginMethods) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from login_methods where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return account.ErrNotFound
	}
	return nil
}
