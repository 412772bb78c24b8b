package domain

// Institution is off-ramp reference data: a short fixed-width code, a
// display name and the currency it settles in. Read-heavy, mutated only by
// the administrator.
type Institution struct {
	Code     string `gorm:"primaryKey;size:16" json:"code"`
	Name     string `json:"name"`
	Currency string `gorm:"index;size:8" json:"currency"`
}

// SupportedToken marks a value-transfer asset as accepted for new orders.
type SupportedToken struct {
	Token   string `gorm:"primaryKey" json:"token"`
	Enabled bool   `json:"enabled"`
}
