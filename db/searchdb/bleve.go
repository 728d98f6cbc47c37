package searchdb

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/wpstatic/config"
	"github.com/meghashyamc/wpstatic/logger"
)

const (
	indexFieldTitle        = "title"
	indexFieldExcerpt      = "excerpt"
	indexFieldContent      = "content"
	indexFieldCategory     = "category"
	indexFieldCategorySlug = "category_slug"
	indexFieldTags         = "tags"
	indexFieldURL          = "url"
	indexFieldDate         = "date"
)

var quotedPhraseRegex = regexp.MustCompile(`"([^"]*)"`)

type BleveDB struct {
	indexPath string
	logger    logger.Logger
	index     bleve.Index
}

func New(logger logger.Logger, cfg *config.Config) (*BleveDB, error) {
	return Open(logger, filepath.Join(cfg.GetStoragePath(), cfg.GetIndexPath()))
}

func Open(logger logger.Logger, indexPath string) (*BleveDB, error) {
	index, err := bleve.New(indexPath, createIndexMapping())
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Error("could not open index", "path", indexPath, "err", err.Error())
			return nil, err
		}
	}
	return &BleveDB{indexPath: indexPath, logger: logger, index: index}, nil
}

// NewInMemory keeps the index in memory only; nothing is written to disk.
func NewInMemory(logger logger.Logger) (*BleveDB, error) {
	index, err := bleve.NewMemOnly(createIndexMapping())
	if err != nil {
		logger.Error("could not create in-memory index", "err", err.Error())
		return nil, err
	}
	return &BleveDB{logger: logger, index: index}, nil
}

func (b *BleveDB) BuildIndex(documents []Document) error {

	batch := b.index.NewBatch()

	for i, doc := range documents {

		if err := batch.Index(doc.ID, doc); err != nil {
			b.logger.Error("could not index document", "id", doc.ID, "err", err.Error())
			return err
		}

		if (i+1)%IndexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}
	}

	return nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldTitle, titleFieldMapping)

	excerptFieldMapping := bleve.NewTextFieldMapping()
	excerptFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldExcerpt, excerptFieldMapping)

	// Stored so that hits can carry highlighted fragments.
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = standard.Name
	contentFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(indexFieldContent, contentFieldMapping)

	categoryFieldMapping := bleve.NewTextFieldMapping()
	categoryFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldCategory, categoryFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldTags, tagsFieldMapping)

	for _, field := range []string{indexFieldCategorySlug, indexFieldURL, indexFieldDate} {
		exactFieldMapping := bleve.NewTextFieldMapping()
		exactFieldMapping.Analyzer = keyword.Name
		docMapping.AddFieldMappingsAt(field, exactFieldMapping)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

func (b *BleveDB) Search(queryString string, limit int, offset int) (*Response, error) {
	start := time.Now()

	searchRequest := bleve.NewSearchRequestOptions(b.buildSearchQuery(queryString), limit, offset, false)
	searchRequest.Fields = []string{indexFieldTitle, indexFieldURL, indexFieldCategory, indexFieldDate}

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField(indexFieldContent)

	searchResult, err := b.index.Search(searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		result := Result{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if title, ok := hit.Fields[indexFieldTitle].(string); ok {
			result.Title = title
		}
		if url, ok := hit.Fields[indexFieldURL].(string); ok {
			result.URL = url
		}
		if category, ok := hit.Fields[indexFieldCategory].(string); ok {
			result.Category = category
		}
		if date, ok := hit.Fields[indexFieldDate].(string); ok {
			result.Date = date
		}
		if fragments := hit.Fragments[indexFieldContent]; len(fragments) > 0 {
			result.Snippet = fragments[0]
		}

		results[i] = result
	}

	return &Response{
		Results:    results,
		Total:      searchResult.Total,
		MaxScore:   searchResult.MaxScore,
		SearchTime: time.Since(start).String(),
	}, nil
}

// buildSearchQuery requires every quoted phrase to appear in the title or body
// and ranks the remaining words across the text fields.
func (b *BleveDB) buildSearchQuery(queryString string) query.Query {

	const (
		boostForTitle       = 3.0
		boostForExcerpt     = 2.0
		boostForContent     = 1.5
		boostForTaxonomy    = 1.0
		boostForPhraseMatch = 5.0
		boostForPrefix      = 1.5
	)

	queryString = strings.ToLower(strings.TrimSpace(queryString))
	if queryString == "" {
		return bleve.NewMatchAllQuery()
	}

	quoted, remaining := parseQuotedQuery(queryString)

	var parts []query.Query
	for _, phrase := range quoted {
		titlePhrase := bleve.NewMatchPhraseQuery(phrase)
		titlePhrase.SetField(indexFieldTitle)
		titlePhrase.SetBoost(boostForPhraseMatch)

		contentPhrase := bleve.NewMatchPhraseQuery(phrase)
		contentPhrase.SetField(indexFieldContent)
		contentPhrase.SetBoost(boostForPhraseMatch)

		parts = append(parts, bleve.NewDisjunctionQuery(titlePhrase, contentPhrase))
	}

	if remaining != "" {
		disjunctQuery := bleve.NewDisjunctionQuery()
		fieldBoosts := []struct {
			field string
			boost float64
		}{
			{indexFieldTitle, boostForTitle},
			{indexFieldExcerpt, boostForExcerpt},
			{indexFieldContent, boostForContent},
			{indexFieldCategory, boostForTaxonomy},
			{indexFieldTags, boostForTaxonomy},
		}
		for _, fb := range fieldBoosts {
			matchQuery := bleve.NewMatchQuery(remaining)
			matchQuery.SetField(fb.field)
			matchQuery.SetBoost(fb.boost)
			disjunctQuery.AddQuery(matchQuery)
		}

		if len(remaining) > 2 && !strings.Contains(remaining, " ") {
			prefixQuery := bleve.NewPrefixQuery(remaining)
			prefixQuery.SetField(indexFieldTitle)
			prefixQuery.SetBoost(boostForPrefix)
			disjunctQuery.AddQuery(prefixQuery)
		}
		parts = append(parts, disjunctQuery)
	}

	switch len(parts) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return parts[0]
	default:
		return bleve.NewConjunctionQuery(parts...)
	}
}

// parseQuotedQuery splits `"exact phrase" other words` into its trimmed
// non-empty phrases and the remaining words joined by single spaces.
func parseQuotedQuery(input string) ([]string, string) {
	var quoted []string
	for _, match := range quotedPhraseRegex.FindAllStringSubmatch(input, -1) {
		if phrase := strings.TrimSpace(match[1]); phrase != "" {
			quoted = append(quoted, phrase)
		}
	}

	remaining := quotedPhraseRegex.ReplaceAllString(input, " ")
	return quoted, strings.Join(strings.Fields(remaining), " ")
}

func (b *BleveDB) DeleteDocuments(documentIDs []string) error {
	batch := b.index.NewBatch()

	for i, docID := range documentIDs {
		batch.Delete(docID)

		if (i+1)%IndexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not delete documents", "err", err.Error())
			return err
		}
	}

	return nil
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
