package types

// Statistics are the schema counts exposed to dashboards.
type Statistics struct {
	Total      int            `json:"total"`
	Critical   int            `json:"critical"`
	High       int            `json:"high"`
	Medium     int            `json:"medium"`
	Low        int            `json:"low"`
	ByCategory map[string]int `json:"by_category,omitempty"`
}

// ByTier returns the per-tier counts indexed by Priority.Index.
func (s Statistics) ByTier() [NumPriorities]int {
	return [NumPriorities]int{s.Critical, s.High, s.Medium, s.Low}
}
