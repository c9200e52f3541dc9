package plan

import "errors"

var (
	ErrUnknownTier          = errors.New("unknown plan tier")
	ErrTierNotPurchasable   = errors.New("plan tier is not purchasable")
	ErrInvalidConfiguration = errors.New("invalid plan catalog configuration")
	ErrFailedToLoadCatalog  = errors.New("failed to load plan catalog")
)
