package models

// ViewerClearanceState is everything the maintenance gate needs to know
// about the current viewer.
type ViewerClearanceState struct {
	IsGhostAdmin          bool `json:"is_ghost_admin"`
	MaintenanceModeActive bool `json:"maintenance_mode"`
}
