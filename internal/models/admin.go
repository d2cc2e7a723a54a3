package models

import "time"

type Admin struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	GhostClearance bool      `json:"ghost_clearance"`
	CreatedAt      time.Time `json:"created_at"`
}

type Vendor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// VendorPresence is a vendor joined with its most recent heartbeat.
type VendorPresence struct {
	Vendor
	LastSeen   *time.Time `json:"last_seen,omitempty"`
	RemoteAddr string     `json:"remote_addr,omitempty"`
	Online     bool       `json:"online"`
}

type SMSTest struct {
	ID         string    `json:"id"`
	To         string    `json:"to"`
	AdminID    string    `json:"admin_id"`
	ProviderID string    `json:"provider_id,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
