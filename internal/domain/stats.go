package domain

// MonitorStats tracks pipeline throughput since start.
// Monitored counts only records that produced a valid analysis;
// Monitored = Passed + Filtered at quiescence.
type MonitorStats struct {
	Monitored int64 `json:"monitored"`
	Passed    int64 `json:"passed"`
	Filtered  int64 `json:"filtered"`
}
