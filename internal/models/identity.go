package models

// Role is the caller's authorization role, supplied by the upstream auth
// layer and trusted verbatim.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Tier is the buyer's pricing classification.
type Tier string

const (
	TierRetail    Tier = "retail"
	TierWholesale Tier = "wholesale"
)

// Identity is the authenticated caller. It is passed explicitly into
// every service call; there is no ambient request state.
type Identity struct {
	BuyerID      string `json:"buyerId"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	Role         Role   `json:"role"`
	Tier         Tier   `json:"tier"`
	TierApproved bool   `json:"tierApproved"`
}

// IsAdmin reports whether the caller has the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// WholesaleEligible reports whether wholesale tier pricing applies to
// this caller.
func (id Identity) WholesaleEligible() bool {
	return id.Tier == TierWholesale && id.TierApproved
}
