package model

// ClusterInfo describes one mined template as reported by the template store.
type ClusterInfo struct {
	ID       int64  `json:"id"`
	Size     int    `json:"size"`
	Template string `json:"template"`
}

// Snapshot is the persisted output of one discover run: the template listing
// plus the raw lines it was mined from. Reconstruct always re-derives cluster
// matches from these same lines, so the two halves stay mutually consistent.
type Snapshot struct {
	Clusters []ClusterInfo `json:"clusters"`
	LogLines []string      `json:"log_lines"`
}

// FindCluster returns the cluster with the given id, or false when the
// snapshot does not contain it.
func (s *Snapshot) FindCluster(id int64) (ClusterInfo, bool) {
	for _, c := range s.Clusters {
		if c.ID == id {
			return c, true
		}
	}
	return ClusterInfo{}, false
}

// ParameterOccurrence binds one placeholder to the original substring it
// replaced. Token is the placeholder identity: a typed marker such as
// "<DIGITS>", or "<*>" for the generic wildcard.
type ParameterOccurrence struct {
	Token string `json:"token"`
	Value string `json:"value"`
}

// LineParameters holds the reconstructed parameters of a single log line,
// in left-to-right order of occurrence.
type LineParameters struct {
	Line       string                `json:"line"`
	Parameters []ParameterOccurrence `json:"parameters"`
}

// ReconstructResult is the full answer for one cluster: its template and the
// parameters of every retained line that matched it.
type ReconstructResult struct {
	ClusterID  int64            `json:"cluster_id"`
	Template   string           `json:"template"`
	Parameters []LineParameters `json:"parameters"`
}
