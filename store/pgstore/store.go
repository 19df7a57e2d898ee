package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goAuthz/identity"
	"github.com/MrEthical07/goAuthz/permission"
)

// Config controls the connection pool.
type Config struct {
	DSN             string        `env:"DSN"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"4"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Store is the PostgreSQL collaborator.
type Store struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	log zerolog.Logger
}

// Open connects with the pgx driver and pings the database.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		log.Err(err).Str("func", "pgstore.Open").Msg("database ping failed")
		return nil, classify(err)
	}
	log.Info().Str("func", "pgstore.Open").Msg("connected to database")

	return New(db, log), nil
}

// New wraps an existing handle.
func New(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		log: log.With().Str("component", "pgstore").Logger(),
	}
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var userColumns = []string{
	"id", "type", "name", "account", "mobile", "email", "union_id",
	"password", "pay_password", "built_in", "invalid",
}

func scanUser(row sq.RowScanner) (*identity.User, error) {
	var (
		u                               identity.User
		account, mobile, email, unionID sql.NullString
		password, payPassword           sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Type, &u.Name, &account, &mobile, &email, &unionID,
		&password, &payPassword, &u.BuiltIn, &u.Invalid,
	)
	if err != nil {
		return nil, err
	}
	u.Account = account.String
	u.Mobile = mobile.String
	u.Email = email.String
	u.UnionID = unionID.String
	u.Password = password.String
	u.PayPassword = payPassword.String
	return &u, nil
}

func (s *Store) queryUser(ctx context.Context, q sq.SelectBuilder) (*identity.User, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

// FindByIdentifier matches account, mobile, email or union id.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	if identifier == "" {
		return nil, identity.ErrNotFound
	}
	return s.queryUser(ctx, s.sb.Select(userColumns...).
		From("users").
		Where(sq.Or{
			sq.Eq{"account": identifier},
			sq.Eq{"mobile": identifier},
			sq.Eq{"email": identifier},
			sq.Eq{"union_id": identifier},
		}).
		Limit(1))
}

func (s *Store) FindByID(ctx context.Context, id string) (*identity.User, error) {
	return s.queryUser(ctx, s.sb.Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": id}))
}

func (s *Store) updateUser(ctx context.Context, id, column string, value any) error {
	query, args, err := s.sb.Update("users").
		Set(column, value).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Str("column", column).Msg("user update failed")
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateMobile(ctx context.Context, id, mobile string) error {
	return s.updateUser(ctx, id, "mobile", mobile)
}

func (s *Store) UpdateEmail(ctx context.Context, id, email string) error {
	return s.updateUser(ctx, id, "email", email)
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.updateUser(ctx, id, "password", passwordHash)
}

func (s *Store) UpdatePayPassword(ctx context.Context, id, payPasswordHash string) error {
	return s.updateUser(ctx, id, "pay_password", payPasswordHash)
}

func (s *Store) SetInvalid(ctx context.Context, id string, invalid bool) error {
	return s.updateUser(ctx, id, "invalid", invalid)
}

// TokenLife returns the configured session window of an application in
// seconds.
func (s *Store) TokenLife(ctx context.Context, appID string) (int64, error) {
	query, args, err := s.sb.Select("token_life").
		From("apps").
		Where(sq.Eq{"id": appID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var life sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&life); err != nil {
		return 0, classify(err)
	}
	if !life.Valid || life.Int64 <= 0 {
		return 0, identity.ErrNotFound
	}
	return life.Int64, nil
}

// DefaultContext returns the tenant and department a user lands in after
// login: the default membership first, then the oldest one.
func (s *Store) DefaultContext(ctx context.Context, userID string) (string, string, error) {
	query, args, err := s.sb.Select("tenant_id", "dept_id").
		From("tenant_users").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("is_default DESC", "created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", "", err
	}

	var tenantID string
	var deptID sql.NullString
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&tenantID, &deptID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", nil
		}
		return "", "", classify(err)
	}
	return tenantID, deptID.String, nil
}

// rolesQuery unions the three membership paths. Parts are rendered with
// question placeholders and rebound once so numbering runs across the union.
func rolesQuery(tenantID, userID, deptID string) (string, []any, error) {
	parts := []sq.SelectBuilder{
		sq.Select("ur.role_id").
			From("user_roles ur").
			Where(sq.Eq{"ur.tenant_id": tenantID}).
			Where(sq.Eq{"ur.user_id": userID}),
		sq.Select("gr.role_id").
			From("group_roles gr").
			Join("group_members gm ON gm.group_id = gr.group_id").
			Where(sq.Eq{"gr.tenant_id": tenantID}).
			Where(sq.Eq{"gm.user_id": userID}),
		sq.Select("pr.role_id").
			From("post_roles pr").
			Join("post_members pm ON pm.post_id = pr.post_id").
			Where(sq.Eq{"pr.tenant_id": tenantID}).
			Where(sq.Eq{"pm.user_id": userID}).
			Where(sq.Eq{"pm.dept_id": deptID}),
	}

	sqls := make([]string, 0, len(parts))
	var args []any
	for _, p := range parts {
		q, a, err := p.ToSql()
		if err != nil {
			return "", nil, err
		}
		sqls = append(sqls, q)
		args = append(args, a...)
	}

	query, err := sq.Dollar.ReplacePlaceholders(strings.Join(sqls, " UNION "))
	if err != nil {
		return "", nil, err
	}
	return query, args, nil
}

// Roles returns the distinct role ids reachable by the user in the given
// tenant and department.
func (s *Store) Roles(ctx context.Context, tenantID, userID, deptID string) ([]string, error) {
	query, args, err := rolesQuery(tenantID, userID, deptID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify(err)
		}
		roles = append(roles, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return roles, nil
}

// Functions returns every function reachable through the user's roles,
// aggregated with deny overriding allow.
func (s *Store) Functions(ctx context.Context, tenantID, userID, deptID string) ([]permission.Function, error) {
	roles, err := s.Roles(ctx, tenantID, userID, deptID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, nil
	}

	query, args, err := s.sb.Select("rf.role_id", "f.id", "f.alias", "fi.url", "rf.permit").
		From("role_functions rf").
		Join("functions f ON f.id = rf.function_id").
		LeftJoin("function_interfaces fi ON fi.function_id = f.id").
		Where(sq.Eq{"rf.role_id": roles}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var grants []permission.Grant
	for rows.Next() {
		var (
			g          permission.Grant
			alias, url sql.NullString
			permit     int
		)
		if err := rows.Scan(&g.RoleID, &g.FunctionID, &alias, &url, &permit); err != nil {
			return nil, classify(err)
		}
		g.Alias = alias.String
		if url.Valid && url.String != "" {
			g.Interfaces = []string{url.String}
		}
		g.Permit = permission.Permit(permit)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return permission.Aggregate(grants), nil
}
