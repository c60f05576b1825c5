package pg

import (
	"context"
	"database/sql"
	"errors"

	"accountd.org/internal/account"
)

type refreshTokens Store

func (s *refreshTokens) Create(ctx context.Context, tok *account.RefreshToken) error {
	_, err := s.db.ExecContext(ctx, `
		insert into refresh_tokens (id, account_id, token_hash, expires_at, created_at, revoked)
		values ($1, $2, $3, $4, $5, $6)
	`, tok.ID, tok.AccountID, tok.TokenHash, tok.ExpiresAt, tok.CreatedAt, tok.Revoked)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return account.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *refreshTokens) Find(ctx context.Context, id string) (*account.RefreshToken, error) {
	var tok account.RefreshToken
	err := s.db.QueryRowContext(ctx, `
		select id, account_id, token_hash, expires_at, created_at, revoked
		from refresh_tokens where id = $1
	`, id).Scan(&tok.ID, &tok.AccountID, &tok.TokenHash, &tok.ExpiresAt, &tok.CreatedAt, &tok.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *refreshTokens) MarkRevoked(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `update refresh_tokens set revoked = true where id = $1`, id)
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

func (s *refreshTokens) MarkRevokedByAccount(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx, `update refresh_tokens set revoked = true where account_id = $1`, accountID)
	return err
}
