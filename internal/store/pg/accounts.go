package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"accountd.org/internal/account"
	"accountd.org/internal/ids"
)

type accounts Store

const accountColumns = `id, email, national_id, phone_number, first_name, last_name, password_hash, active, is_admin, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*account.Account, error) {
	var (
		a                   account.Account
		email, natID, phone sql.NullString
	)
	err := row.Scan(&a.ID, &email, &natID, &phone, &a.FirstName, &a.LastName,
		&a.PasswordHash, &a.Active, &a.Admin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Email = email.String
	a.NationalID = natID.String
	a.PhoneNumber = phone.String
	return &a, nil
}

func (s *accounts) Create(ctx context.Context, a *account.Account) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into accounts (id, email, national_id, phone_number, first_name, last_name, password_hash, active, is_admin)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		returning created_at, updated_at
	`, a.ID, nullIfEmpty(a.Email), nullIfEmpty(a.NationalID), nullIfEmpty(a.PhoneNumber),
		a.FirstName, a.LastName, a.PasswordHash, a.Active, a.Admin)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return account.ErrConflict
		}
		return err
	}
	return nil
}

func (s *accounts) Find(ctx context.Context, id string) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accounts) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.FindByField(ctx, account.LoginTypeEmail, email)
}

func (s *accounts) FindByField(ctx context.Context, field account.LoginType, value string) (*account.Account, error) {
	var column string
	switch field {
	case account.LoginTypeEmail:
		column = "email"
	case account.LoginTypeNationalID:
		column = "national_id"
	case account.LoginTypePhone:
		column = "phone_number"
	default:
		return nil, account.ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where `+column+` = $1`, value)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accounts) List(ctx context.Context) ([]*account.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from accounts order by created_at asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*account.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *accounts) Update(ctx context.Context, id string, upd account.AccountUpdate) (*account.Account, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", idx))
		args = append(args, nullIfEmpty(*upd.Email))
		idx++
	}
	if upd.NationalID != nil {
		sets = append(sets, fmt.Sprintf("national_id = $%d", idx))
		args = append(args, nullIfEmpty(*upd.NationalID))
		idx++
	}
	if upd.PhoneNumber != nil {
		sets = append(sets, fmt.Sprintf("phone_number = $%d", idx))
		args = append(args, nullIfEmpty(*upd.PhoneNumber))
		idx++
	}
	if upd.FirstName != nil {
		sets = append(sets, fmt.Sprintf("first_name = $%d", idx))
		args = append(args, *upd.FirstName)
		idx++
	}
	if upd.LastName != nil {
		sets = append(sets, fmt.Sprintf("last_name = $%d", idx))
		args = append(args, *upd.LastName)
		idx++
	}
	if upd.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *upd.PasswordHash)
		idx++
	}
	if upd.Active != nil {
		sets = append(sets, fmt.Sprintf("active = $%d", idx))
		args = append(args, *upd.Active)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update accounts set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
				return nil, account.ErrConflict
			}
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, account.ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s *accounts) Delete(ctx context.Context, id string) error {
	// Login methods, profile and refresh tokens go with the account via
	// on delete cascade.
	res, err := s.db.ExecContext(ctx, `delete from accounts where id = $1`, id)
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
