package domain

// Preferences are per-user dashboard settings. The owning user is always
// the authenticated caller; there is no ambient current-user state.
type Preferences struct {
	UserID        string            `json:"userId"`
	LastProjectID string            `json:"lastProjectId,omitempty"`
	Settings      map[string]string `json:"settings,omitempty"`
	UpdatedAt     string            `json:"updatedAt,omitempty"`
}
