// Package knowledge indexes a directory of text documents line by line and
// answers keyword queries over it.
package knowledge

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Options configures an Index.
type Options struct {
	// IndexPath persists the index on disk; empty keeps it in memory.
	IndexPath   string
	Extensions  []string
	MaxFileSize int64
}

func (o Options) withDefaults() Options {
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	return o
}

// Hit is one matching line.
type Hit struct {
	File  string
	Line  int
	Text  string
	Score float64
}

func (h Hit) String() string {
	return fmt.Sprintf("[%s:%d] %s", h.File, h.Line, h.Text)
}

// Stats summarizes an indexing pass.
type Stats struct {
	Files   int
	Lines   int
	Bytes   int64
	Skipped int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d files, %d lines, %s indexed (%d skipped)", s.Files, s.Lines, units.HumanSize(float64(s.Bytes)), s.Skipped)
}

// Index is a keyword index over the non-empty lines of the docs directory.
type Index struct {
	mu     sync.RWMutex
	root   string
	opts   Options
	index  bleve.Index
	logger zerolog.Logger
}

// Open opens or creates the index for root. A persisted index that cannot be
// opened is deleted and recreated empty.
func Open(root string, opts Options, logger zerolog.Logger) (*Index, error) {
	opts = opts.withDefaults()
	idx, err := openBleve(opts.IndexPath, logger)
	if err != nil {
		return nil, err
	}
	return &Index{root: root, opts: opts, index: idx, logger: logger}, nil
}

func openBleve(path string, logger zerolog.Logger) (bleve.Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		return idx, errors.Wrap(err, "create in-memory index")
	}

	idx, err := bleve.Open(path)
	if err == nil {
		return idx, nil
	}
	if err != bleve.ErrorIndexPathDoesNotExist {
		logger.Warn().Err(err).Str("path", path).Msg("knowledge index appears corrupted, recreating")
		if idx != nil {
			idx.Close()
		}
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return nil, errors.Wrap(rmErr, "remove corrupted index")
		}
	}
	idx, err = bleve.New(path, buildIndexMapping())
	if err != nil {
		return nil, errors.Wrap(err, "create knowledge index")
	}
	logger.Debug().Str("path", path).Msg("knowledge index created")
	return idx, nil
}

// buildIndexMapping maps one document per line: the file path is an exact
// term, the line number is numeric and the text is analyzed.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	lineMapping := bleve.NewDocumentMapping()

	fileField := bleve.NewTextFieldMapping()
	fileField.Analyzer = keyword.Name
	fileField.Store = true
	lineMapping.AddFieldMappingsAt("file", fileField)

	lineField := bleve.NewNumericFieldMapping()
	lineField.Store = true
	lineMapping.AddFieldMappingsAt("line", lineField)

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = true
	lineMapping.AddFieldMappingsAt("text", textField)

	indexMapping.DefaultMapping = lineMapping
	return indexMapping
}

// Root returns the docs directory.
func (ix *Index) Root() string { return ix.root }

// RootExists reports whether the docs directory exists.
func (ix *Index) RootExists() bool {
	info, err := os.Stat(ix.root)
	return err == nil && info.IsDir()
}

// Rebuild drops every document and indexes the docs directory from scratch.
func (ix *Index) Rebuild(ctx context.Context) (Stats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.index.Close(); err != nil {
		ix.logger.Warn().Err(err).Msg("closing knowledge index before rebuild")
	}
	if ix.opts.IndexPath != "" {
		if err := os.RemoveAll(ix.opts.IndexPath); err != nil {
			return Stats{}, errors.Wrap(err, "remove knowledge index")
		}
	}
	idx, err := openBleve(ix.opts.IndexPath, ix.logger)
	if err != nil {
		return Stats{}, err
	}
	ix.index = idx

	walk, err := Walk(ix.root, ix.opts)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Skipped: walk.Skipped}
	for _, f := range walk.Files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		n, err := ix.indexFileLocked(f.Path)
		if err != nil {
			ix.logger.Warn().Err(err).Str("file", f.Path).Msg("skipping unreadable document")
			continue
		}
		stats.Files++
		stats.Lines += n
		stats.Bytes += f.SizeBytes
	}
	ix.logger.Info().Str("root", ix.root).Str("stats", stats.String()).Msg("knowledge index rebuilt")
	return stats, nil
}

// Reindex refreshes the given files (relative to root): their old lines are
// removed and, if the file still exists and is eligible, re-added.
func (ix *Index) Reindex(ctx context.Context, paths []string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	matcher := loadIgnoreMatcher(ix.root)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := filepath.ToSlash(p)
		if err := ix.deleteFileLocked(ctx, rel); err != nil {
			return err
		}
		if matcher.MatchesPath(rel) || !ix.opts.eligible(rel) {
			continue
		}
		info, err := os.Stat(filepath.Join(ix.root, filepath.FromSlash(rel)))
		if err != nil || info.IsDir() || info.Size() > ix.opts.MaxFileSize {
			continue
		}
		if _, err := ix.indexFileLocked(rel); err != nil {
			ix.logger.Warn().Err(err).Str("file", rel).Msg("reindex failed")
		}
	}
	return nil
}

func (ix *Index) indexFileLocked(rel string) (int, error) {
	f, err := os.Open(filepath.Join(ix.root, filepath.FromSlash(rel)))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	batch := ix.index.NewBatch()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), int(ix.opts.MaxFileSize)+1)
	lineNo, count := 0, 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		doc := map[string]interface{}{
			"file": rel,
			"line": float64(lineNo),
			"text": text,
		}
		if err := batch.Index(rel+":"+strconv.Itoa(lineNo), doc); err != nil {
			return 0, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	if err := ix.index.Batch(batch); err != nil {
		return 0, errors.Wrapf(err, "index %s", rel)
	}
	return count, nil
}

func (ix *Index) deleteFileLocked(ctx context.Context, rel string) error {
	q := bleve.NewTermQuery(rel)
	q.SetField("file")
	for {
		req := bleve.NewSearchRequestOptions(q, 1000, 0, false)
		res, err := ix.index.SearchInContext(ctx, req)
		if err != nil {
			return errors.Wrapf(err, "find documents of %s", rel)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := ix.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := ix.index.Batch(batch); err != nil {
			return errors.Wrapf(err, "delete documents of %s", rel)
		}
	}
}

// Search returns up to k lines matching any keyword, best first. A keyword
// matches a line when it is a word of the line or a substring of one.
func (ix *Index) Search(ctx context.Context, keywords []string, k int) ([]Hit, error) {
	if len(keywords) == 0 || k <= 0 {
		return nil, nil
	}
	var queries []query.Query
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		mq := bleve.NewMatchQuery(kw)
		mq.SetField("text")
		mq.SetBoost(2)
		queries = append(queries, mq)

		if term := wildcardTerm(kw); term != "" {
			wq := bleve.NewWildcardQuery("*" + term + "*")
			wq.SetField("text")
			queries = append(queries, wq)
		}
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), k, 0, false)
	req.Fields = []string{"file", "line", "text"}
	req.SortBy([]string{"-_score", "file", "line"})

	ix.mu.RLock()
	res, err := ix.index.SearchInContext(ctx, req)
	ix.mu.RUnlock()
	if err != nil {
		return nil, errors.Wrap(err, "knowledge search")
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if v, ok := h.Fields["file"].(string); ok {
			hit.File = v
		}
		if v, ok := h.Fields["line"].(float64); ok {
			hit.Line = int(v)
		}
		if v, ok := h.Fields["text"].(string); ok {
			hit.Text = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// wildcardTerm keeps letters and digits so the keyword is safe inside a
// wildcard pattern. Short terms return "" to avoid matching everything.
func wildcardTerm(kw string) string {
	var b strings.Builder
	for _, r := range kw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if len([]rune(b.String())) < 3 {
		return ""
	}
	return b.String()
}

// DocCount returns the number of indexed lines.
func (ix *Index) DocCount() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// Close releases the index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}
