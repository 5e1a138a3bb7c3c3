package domain

// Principal identifies the authenticated caller within a tenant.
type Principal struct {
	UserID    string
	CompanyID string
}
