package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/cuvren/internal/domain"
)

const (
	// IndexDirname is the name of the catalog index directory
	IndexDirname = "catalog.bleve"

	// MaxBatchSize is the maximum number of records per batch
	MaxBatchSize = 100
)

// CreateIndexMapping creates the Bleve index mapping for artifact records.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Identifiers - keyword (not analyzed), stored for retrieval
	for _, field := range []string{
		domain.RecordFieldID,
		domain.RecordFieldPreviousPath,
		domain.RecordFieldRunID,
		domain.RecordFieldKind,
		domain.RecordFieldInvoiceNumber,
		domain.RecordFieldProcessID,
		domain.RecordFieldUniqueCode,
		domain.RecordFieldFolder,
		domain.RecordFieldAction,
	} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = true
		docMapping.AddFieldMappingsAt(field, f)
	}

	// Name - analyzed so that parts of a file name match
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = standard.Name
	nameField.Store = true
	docMapping.AddFieldMappingsAt(domain.RecordFieldName, nameField)

	tsField := bleve.NewDateTimeFieldMapping()
	tsField.Store = true
	docMapping.AddFieldMappingsAt(domain.RecordFieldTimestamp, tsField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Index is the artifact catalog. Writes are buffered and applied in batches.
type Index struct {
	idx     bleve.Index
	batch   *bleve.Batch
	pending int
}

// OpenIndex opens the index at path, creating it when missing.
func OpenIndex(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("failed to open index: %w", err)
		}
		idx, err = bleve.New(path, CreateIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	}
	return &Index{idx: idx, batch: idx.NewBatch()}, nil
}

// Add queues a record. A record whose path changed replaces the entry of its previous path.
func (i *Index) Add(rec domain.ArtifactRecord) error {
	if rec.PreviousPath != "" && rec.PreviousPath != rec.ID {
		i.batch.Delete(rec.PreviousPath)
	}
	if err := i.batch.Index(rec.ID, rec); err != nil {
		return fmt.Errorf("failed to index %s: %w", rec.ID, err)
	}
	i.pending++

	if i.pending >= MaxBatchSize {
		return i.Flush()
	}
	return nil
}

// Flush applies queued records.
func (i *Index) Flush() error {
	if i.batch.Size() == 0 {
		return nil
	}
	if err := i.idx.Batch(i.batch); err != nil {
		return fmt.Errorf("batch index failed: %w", err)
	}
	i.batch.Reset()
	i.pending = 0
	return nil
}

// DocCount returns the number of records in the index.
func (i *Index) DocCount() (uint64, error) {
	return i.idx.DocCount()
}

// Close flushes pending records and closes the index.
func (i *Index) Close() error {
	flushErr := i.Flush()
	closeErr := i.idx.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// SearchRequest describes a catalog query.
type SearchRequest struct {
	// Query matches invoice numbers, unique codes, process ids and file names.
	// An empty query matches every record.
	Query string
	// Kind restricts results to one artifact kind.
	Kind domain.ArtifactKind
	// Limit caps the number of hits.
	Limit int
}

// Hit is one catalog search result.
type Hit struct {
	Record domain.ArtifactRecord
	Score  float64
}

// SearchResult holds the hits and the total number of matches.
type SearchResult struct {
	Hits  []Hit
	Total uint64
}

// Search runs req against the index.
func (i *Index) Search(req SearchRequest) (*SearchResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	searchReq := bleve.NewSearchRequestOptions(buildQuery(req), limit, 0, false)
	searchReq.Fields = []string{"*"}
	searchReq.SortBy([]string{"-_score", "-" + domain.RecordFieldTimestamp})

	res, err := i.idx.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := &SearchResult{Total: res.Total}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, Hit{Record: recordFromFields(h.ID, h.Fields), Score: h.Score})
	}
	return out, nil
}

func buildQuery(req SearchRequest) query.Query {
	var q query.Query
	text := strings.TrimSpace(req.Query)
	if text == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		var should []query.Query
		for _, field := range []string{domain.RecordFieldInvoiceNumber, domain.RecordFieldUniqueCode, domain.RecordFieldProcessID} {
			tq := bleve.NewTermQuery(text)
			tq.SetField(field)
			tq.SetBoost(5.0)
			should = append(should, tq)

			pq := bleve.NewPrefixQuery(text)
			pq.SetField(field)
			should = append(should, pq)
		}
		nameQuery := bleve.NewMatchQuery(text)
		nameQuery.SetField(domain.RecordFieldName)
		should = append(should, nameQuery)

		q = bleve.NewDisjunctionQuery(should...)
	}

	if req.Kind == "" {
		return q
	}
	kindQuery := bleve.NewTermQuery(string(req.Kind))
	kindQuery.SetField(domain.RecordFieldKind)
	return bleve.NewConjunctionQuery(q, kindQuery)
}

func recordFromFields(id string, fields map[string]any) domain.ArtifactRecord {
	str := func(name string) string {
		if v, ok := fields[name].(string); ok {
			return v
		}
		return ""
	}

	rec := domain.ArtifactRecord{
		ID:            id,
		PreviousPath:  str(domain.RecordFieldPreviousPath),
		RunID:         str(domain.RecordFieldRunID),
		Kind:          domain.ArtifactKind(str(domain.RecordFieldKind)),
		InvoiceNumber: str(domain.RecordFieldInvoiceNumber),
		ProcessID:     str(domain.RecordFieldProcessID),
		UniqueCode:    str(domain.RecordFieldUniqueCode),
		Folder:        str(domain.RecordFieldFolder),
		Name:          str(domain.RecordFieldName),
		Action:        domain.Action(str(domain.RecordFieldAction)),
	}
	rec.Timestamp = storedTime(fields[domain.RecordFieldTimestamp])
	return rec
}

// storedTime decodes a stored datetime field, which bleve returns either as
// formatted text or as Unix nanoseconds.
func storedTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts.UTC()
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.Unix(0, n).UTC()
		}
	case float64:
		return time.Unix(0, int64(t)).UTC()
	}
	return time.Time{}
}

// searchFlushed applies pending records before searching.
func (i *Index) searchFlushed(req SearchRequest) (*SearchResult, error) {
	if err := i.Flush(); err != nil {
		return nil, err
	}
	return i.Search(req)
}
