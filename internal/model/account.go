package model

import "time"

// Account is the authenticated tenant/user identity consumed from the
// surrounding application. Account and session management itself lives
// outside this service; we only resolve tokens issued there.
type Account struct {
	ID              string    `db:"id" json:"id"`
	TenantID        string    `db:"tenant_id" json:"tenantId"`
	Name            string    `db:"name" json:"name"`
	TokenHash       string    `db:"token_hash" json:"-"`
	RateLimitPerMin int       `db:"rate_limit_per_min" json:"rateLimitPerMin"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}
