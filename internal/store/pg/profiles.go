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

type profiles Store

const profileColumns = `id, account_id, bio, avatar_url, birth_date, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*account.Profile, error) {
	var (
		p     account.Profile
		birth sql.NullTime
	)
	err := row.Scan(&p.ID, &p.AccountID, &p.Bio, &p.AvatarURL, &birth, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if birth.Valid {
		bd := birth.Time
		p.BirthDate = &bd
	}
	return &p, nil
}

func (s *profiles) Create(ctx context.Context, p *account.Profile) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	var birth sql.NullTime
	if p.BirthDate != nil {
		birth = sql.NullTime{Time: *p.BirthDate, Valid: true}
	}
	row := s.db.QueryRowContext(ctx, `
		insert into profiles (id, account_id, bio, avatar_url, birth_date)
		values ($1, $2, $3, $4, $5)
		returning created_at, updated_at
	`, p.ID, p.AccountID, p.Bio, p.AvatarURL, birth)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return account.ErrConflict
			case pgErrForeignKeyViolation:
				return account.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *profiles) FindByAccount(ctx context.Context, accountID string) (*account.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+profileColumns+` from profiles where account_id = $1`, accountID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *profiles) Update(ctx context.Context, accountID string, upd account.ProfileUpdate) (*account.Profile, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Bio != nil {
		sets = append(sets, fmt.Sprintf("bio = $%d", idx))
		args = append(args, *upd.Bio)
		idx++
	}
	if upd.AvatarURL != nil {
		sets = append(sets, fmt.Sprintf("avatar_url = $%d", idx))
		args = append(args, *upd.AvatarURL)
		idx++
	}
	if upd.BirthDate != nil {
		sets = append(sets, fmt.Sprintf("birth_date = $%d", idx))
		args = append(args, sql.NullTime{Time: *upd.BirthDate, Valid: true})
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update profiles set %s where account_id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, accountID)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
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
	return s.FindByAccount(ctx, accountID)
}
