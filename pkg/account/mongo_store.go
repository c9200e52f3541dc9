package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/liguepro/billing/pkg/plan"
)

// MongoConfig holds the MongoDB connection settings for the account store.
type MongoConfig struct {
	ConnectionURL  string        `env:"MONGODB_URL,required"`
	Database       string        `env:"MONGODB_DATABASE" envDefault:"billing"`
	Collection     string        `env:"MONGODB_COLLECTION" envDefault:"accounts"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	RetryAttempts  int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`
}

// ErrTooMuchContention is returned when the optimistic update loop keeps
// losing the version race; callers may retry the whole operation.
var ErrTooMuchContention = errors.New("account update contention")

// casAttempts bounds the optimistic-concurrency retry loop.
const casAttempts = 8

// MongoStore persists accounts in MongoDB. There is no row lock to lean on,
// so Update uses a compare-and-swap on a version field: the replace only
// matches when the version read is still current, and loses are retried.
type MongoStore struct {
	col *mongo.Collection
}

// ConnectMongo establishes a MongoDB client with retry and returns the
// configured accounts collection.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	for range cfg.RetryAttempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return NewMongoStore(client.Database(cfg.Database).Collection(cfg.Collection)), nil
			}
		}
		time.Sleep(cfg.RetryInterval)
	}
	return nil, errors.Join(ErrStoreUnavailable, errors.New("mongo not reachable"))
}

// NewMongoStore wraps an existing collection.
func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

// Ping verifies the underlying client connection, for readiness probes.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, nil)
}

type accountDoc struct {
	ID                     string     `bson:"_id"`
	Version                int64      `bson:"version"`
	Email                  string     `bson:"email"`
	PlanTier               string     `bson:"plan_tier"`
	SubscriptionStatus     string     `bson:"subscription_status"`
	ExternalCustomerID     string     `bson:"external_customer_id"`
	ExternalSubscriptionID string     `bson:"external_subscription_id"`
	PendingTier            string     `bson:"pending_tier"`
	PlanValidUntil         *time.Time `bson:"plan_valid_until,omitempty"`
	LeadQuotaUsed          int64      `bson:"lead_quota_used"`
	LeadQuotaPeriod        string     `bson:"lead_quota_period"`
	LastEventAt            time.Time  `bson:"last_event_at"`
	CreatedAt              time.Time  `bson:"created_at"`
	UpdatedAt              time.Time  `bson:"updated_at"`
}

func toDoc(a *Account, version int64) accountDoc {
	return accountDoc{
		ID:                     a.ID.String(),
		Version:                version,
		Email:                  a.Email,
		PlanTier:               string(a.PlanTier),
		SubscriptionStatus:     string(a.SubscriptionStatus),
		ExternalCustomerID:     a.ExternalCustomerID,
		ExternalSubscriptionID: a.ExternalSubscriptionID,
		PendingTier:            string(a.PendingTier),
		PlanValidUntil:         a.PlanValidUntil,
		LeadQuotaUsed:          a.LeadQuotaUsed,
		LeadQuotaPeriod:        a.LeadQuotaPeriod,
		LastEventAt:            a.LastEventAt,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
}

func (d accountDoc) toAccount() (*Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &Account{
		ID:                     id,
		Email:                  d.Email,
		PlanTier:               plan.Tier(d.PlanTier),
		SubscriptionStatus:     Status(d.SubscriptionStatus),
		ExternalCustomerID:     d.ExternalCustomerID,
		ExternalSubscriptionID: d.ExternalSubscriptionID,
		PendingTier:            plan.Tier(d.PendingTier),
		PlanValidUntil:         d.PlanValidUntil,
		LeadQuotaUsed:          d.LeadQuotaUsed,
		LeadQuotaPeriod:        d.LeadQuotaPeriod,
		LastEventAt:            d.LastEventAt,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}, nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (accountDoc, error) {
	var doc accountDoc
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return accountDoc{}, ErrAccountNotFound
		}
		return accountDoc{}, errors.Join(ErrStoreUnavailable, err)
	}
	return doc, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	doc, err := s.findOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return nil, err
	}
	return doc.toAccount()
}

func (s *MongoStore) GetByExternalSubscriptionID(ctx context.Context, subscriptionID string) (*Account, error) {
	if subscriptionID == "" {
		return nil, ErrAccountNotFound
	}
	doc, err := s.findOne(ctx, bson.M{"external_subscription_id": subscriptionID})
	if err != nil {
		return nil, err
	}
	return doc.toAccount()
}

func (s *MongoStore) Create(ctx context.Context, a *Account) error {
	if _, err := s.col.InsertOne(ctx, toDoc(a, 1)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAccountAlreadyExists
		}
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, id uuid.UUID, fn Mutator) (*Account, error) {
	for range casAttempts {
		doc, err := s.findOne(ctx, bson.M{"_id": id.String()})
		if err != nil {
			return nil, err
		}

		a, err := doc.toAccount()
		if err != nil {
			return nil, err
		}
		if err := fn(a); err != nil {
			return nil, err
		}
		a.UpdatedAt = time.Now().UTC()

		res, err := s.col.ReplaceOne(ctx,
			bson.M{"_id": doc.ID, "version": doc.Version},
			toDoc(a, doc.Version+1),
		)
		if err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		if res.MatchedCount == 1 {
			return a, nil
		}
		// Version moved underneath us; reload and retry.
	}
	return nil, ErrTooMuchContention
}
