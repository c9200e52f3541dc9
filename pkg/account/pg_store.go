package account

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liguepro/billing/pkg/plan"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PGStore persists accounts in PostgreSQL. Update runs the mutator inside a
// transaction holding a row lock (SELECT ... FOR UPDATE), which gives the
// per-account serialization the engine requires even across processes.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps an existing connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const accountColumns = `id, email, plan_tier, subscription_status, external_customer_id,
	external_subscription_id, pending_tier, plan_valid_until, lead_quota_used,
	lead_quota_period, last_event_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var tier, pendingTier, status string
	if err := row.Scan(
		&a.ID, &a.Email, &tier, &status, &a.ExternalCustomerID,
		&a.ExternalSubscriptionID, &pendingTier, &a.PlanValidUntil, &a.LeadQuotaUsed,
		&a.LeadQuotaPeriod, &a.LastEventAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	a.PlanTier = plan.Tier(tier)
	a.PendingTier = plan.Tier(pendingTier)
	a.SubscriptionStatus = Status(status)
	return &a, nil
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (s *PGStore) GetByExternalSubscriptionID(ctx context.Context, subscriptionID string) (*Account, error) {
	if subscriptionID == "" {
		return nil, ErrAccountNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE external_subscription_id = $1`, subscriptionID)
	return scanAccount(row)
}

func (s *PGStore) Create(ctx context.Context, a *Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.Email, string(a.PlanTier), string(a.SubscriptionStatus), a.ExternalCustomerID,
		a.ExternalSubscriptionID, string(a.PendingTier), a.PlanValidUntil, a.LeadQuotaUsed,
		a.LeadQuotaPeriod, a.LastEventAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAccountAlreadyExists
		}
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, id uuid.UUID, fn Mutator) (*Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, err
	}

	if err := fn(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = time.Now().UTC()

	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET email = $2, plan_tier = $3, subscription_status = $4,
			external_customer_id = $5, external_subscription_id = $6,
			pending_tier = $7, plan_valid_until = $8, lead_quota_used = $9,
			lead_quota_period = $10, last_event_at = $11, updated_at = $12
		 WHERE id = $1`,
		a.ID, a.Email, string(a.PlanTier), string(a.SubscriptionStatus),
		a.ExternalCustomerID, a.ExternalSubscriptionID,
		string(a.PendingTier), a.PlanValidUntil, a.LeadQuotaUsed,
		a.LeadQuotaPeriod, a.LastEventAt, a.UpdatedAt,
	); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return a, nil
}
