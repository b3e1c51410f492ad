package pipeline

// Report summarizes one loader run. Ingestion failures are soft: the run
// continues and the failed transaction ids are collected here.
type Report struct {
	Rows               int
	Ingested           int
	Failed             int
	FailedTransactions []string
}

// AllSucceeded reports whether every processed row was ingested.
func (r *Report) AllSucceeded() bool {
	return r.Failed == 0
}
