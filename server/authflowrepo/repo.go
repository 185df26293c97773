package authflowrepo

import "time"

// AuthFlowState is what the redirect to a provider's consent screen leaves
// behind for the callback: the nonce and PKCE verifier bound to one state value.
type AuthFlowState struct {
	Provider     string
	CodeVerifier string
	Nonce        string
	CreatedAt    time.Time
}

// Repo stores pending authorization flows keyed by their state parameter.
type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	// Take returns the flow and removes it so a state value can be redeemed once.
	Take(state string) (*AuthFlowState, error)
	Delete(state string) error
}
