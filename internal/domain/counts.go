package domain

// Counts aggregates the per-kind success counters of a run.
type Counts struct {
	ResultDocs int `json:"result_docs"`
	Invoices   int `json:"invoices"`
	XML        int `json:"xml"`
	PDF        int `json:"pdf"`
	Mutated    int `json:"mutated"`
}

// AddRenamed increments the counter of the given kind.
func (c *Counts) AddRenamed(kind ArtifactKind) {
	switch kind {
	case KindResult:
		c.ResultDocs++
	case KindInvoice:
		c.Invoices++
	case KindXML:
		c.XML++
	case KindPDF:
		c.PDF++
	}
}

// Merge adds other into c.
func (c *Counts) Merge(other Counts) {
	c.ResultDocs += other.ResultDocs
	c.Invoices += other.Invoices
	c.XML += other.XML
	c.PDF += other.PDF
	c.Mutated += other.Mutated
}

// Renamed returns the number of artifacts renamed across all kinds.
func (c Counts) Renamed() int {
	return c.ResultDocs + c.Invoices + c.XML + c.PDF
}

// FolderSummary is the outcome of processing one folder within a run.
type FolderSummary struct {
	Path   string `json:"path"`
	Counts Counts `json:"counts"`
	Errors int    `json:"errors"`
}
