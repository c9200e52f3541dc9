package account

import (
	"context"

	"github.com/google/uuid"
)

// Mutator applies an in-place change to an account record inside Update.
// Returning an error aborts the update and nothing is persisted.
type Mutator func(a *Account) error

// Store is the persistence boundary for account records.
//
// Update must apply the mutator to the current record and persist the result
// atomically with respect to other Update calls on the same id: the engine
// relies on this per-key mutual exclusion to serialize read-modify-write
// sequences from concurrent webhook deliveries and quota checks. Operations
// on different accounts must not contend with each other.
type Store interface {
	// GetByID retrieves an account by its id.
	// Returns ErrAccountNotFound if no record exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByExternalSubscriptionID retrieves the account holding the given
	// provider subscription id. Returns ErrAccountNotFound if none matches.
	GetByExternalSubscriptionID(ctx context.Context, subscriptionID string) (*Account, error)

	// Create persists a new account record.
	// Returns ErrAccountAlreadyExists when the id is taken.
	Create(ctx context.Context, a *Account) error

	// Update atomically applies fn to the current record and persists the result.
	Update(ctx context.Context, id uuid.UUID, fn Mutator) (*Account, error)
}
