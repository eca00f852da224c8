package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sealedbid/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, name, email, wallet_address, created_at, updated_at`

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByWalletAddress はウォレットアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByWalletAddress(ctx context.Context, address string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE wallet_address = $1`,
		address,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by wallet address: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, wallet_address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, nullIfEmpty(user.Email), nullIfEmpty(user.WalletAddress),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateName はユーザーの表示名を更新する。
func (r *PostgresUserRepo) UpdateName(ctx context.Context, id, name string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, updated_at = now() WHERE id = $1`,
		id, name,
	)
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// scanUser は1行をmodel.Userに読み込む。行がない場合はnil, nilを返す。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var email, wallet sql.NullString
	err := row.Scan(&user.ID, &user.Name, &email, &wallet, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.Email = email.String
	user.WalletAddress = wallet.String
	return user, nil
}

// nullIfEmpty は空文字列をSQLのNULLとして扱う。
// email と wallet_address のUNIQUE制約を空文字で衝突させないために使う。
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
