package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/habitra/import-server-go/internal/model"
)

type AccountRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Account, error)
}

type accountRepo struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE token_hash = $1
	`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
