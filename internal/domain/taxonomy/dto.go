package taxonomy

// SyncStats summarizes one full taxonomy sync pass.
type SyncStats struct {
	Categories int `json:"categories"`
	Fields     int `json:"fields"`
	Options    int `json:"options"`
}

// SyncRequest is the admin trigger payload for a sync run.
type SyncRequest struct {
	Force bool `json:"force"`
}
