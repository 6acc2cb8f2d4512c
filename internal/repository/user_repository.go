package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// UserFilter captures user listing parameters.
type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, id string, patch domain.UserPatch) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetInvitedByToken(ctx context.Context, token string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// ConsumeResetToken sets a new password hash and clears the token in one
	// statement, provided the token exists and expires strictly after now.
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (string, error)
	// ConsumeInvitation activates an invited user and clears the token in one
	// statement, provided the token still belongs to that invited user.
	ConsumeInvitation(ctx context.Context, id, token, passwordHash string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, password_hash, fname, lname, role, status, reset_token,
        reset_token_expiry, invited_by, invited_at, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, fname, lname, role, status, reset_token,
            reset_token_expiry, invited_by, invited_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.Status,
		user.ResetToken,
		user.ResetTokenExpiry,
		user.InvitedBy,
		user.InvitedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translate(err)
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) error {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.FirstName.Set {
		add("fname", patch.FirstName.Value)
	}
	if patch.LastName.Set {
		add("lname", patch.LastName.Value)
	}
	if patch.Role.Set {
		add("role", patch.Role.Value)
	}
	if patch.Status.Set {
		add("status", patch.Status.Value)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at=NOW() WHERE id=$%d`, strings.Join(sets, ", "), len(args))
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) GetInvitedByToken(ctx context.Context, token string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token=$1 AND status='invited'`, token)
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, likePattern(search))
		where += fmt.Sprintf(" AND email ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		userColumns, where, filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *userRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	const query = `
        UPDATE users SET reset_token=$1, reset_token_expiry=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, token, expiresAt, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (string, error) {
	const query = `
        UPDATE users SET password_hash=$1, reset_token=NULL, reset_token_expiry=NULL, updated_at=NOW()
        WHERE reset_token=$2 AND reset_token_expiry > $3 AND status <> 'invited'
        RETURNING id`
	var id string
	if err := r.pool.QueryRow(ctx, query, passwordHash, token, now).Scan(&id); err != nil {
		return "", translate(err)
	}
	return id, nil
}

func (r *userRepository) ConsumeInvitation(ctx context.Context, id, token, passwordHash string) error {
	const query = `
        UPDATE users SET password_hash=$1, status='active', reset_token=NULL, reset_token_expiry=NULL,
            updated_at=NOW()
        WHERE id=$2 AND reset_token=$3 AND status='invited'`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id, token)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, translate(err)
		}
		return nil, ErrNotFound
	}
	return scanUser(rows)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.Status,
		&user.ResetToken,
		&user.ResetTokenExpiry,
		&user.InvitedBy,
		&user.InvitedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// likePattern wraps a search term for a substring LIKE match, escaping the
// LIKE metacharacters it contains.
func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}
