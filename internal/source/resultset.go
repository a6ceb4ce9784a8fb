package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
)

// Query parameters understood by the state endpoint.
const (
	ParamSelected  = "selected"
	ParamPathDepth = "path-depth"
	ParamPage      = "page"
)

// ResultSet is a pull cursor over the job records of one endpoint.
// It caches one page at a time and refetches only once the cache is
// exhausted. A follow-up page that repeats an id already delivered ends the
// sequence. Calls to Next must not be issued concurrently.
type ResultSet struct {
	transport Transport
	dataURI   string
	selectors url.Values
	logger    *slog.Logger
	maxJobs   int

	jobs     []JobRecord
	index    int
	page     int // Pages fetched so far
	total    int // Announced job-count
	received int // Raw records received across pages, including skipped ones
	seen     map[string]struct{}
	done     bool
	err      error
}

// Option configures a ResultSet.
type Option func(*ResultSet)

// WithLogger sets the logger used to report skipped records.
func WithLogger(logger *slog.Logger) Option {
	return func(rs *ResultSet) {
		rs.logger = logger
	}
}

// WithMaxJobs records the advisory job cap for collaborators. The cursor does
// not enforce it.
func WithMaxJobs(n int) Option {
	return func(rs *ResultSet) {
		rs.maxJobs = n
	}
}

// New creates a ResultSet reading from dataURI.
func New(transport Transport, dataURI string, opts ...Option) *ResultSet {
	rs := &ResultSet{
		transport: transport,
		dataURI:   dataURI,
		selectors: url.Values{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Scoped returns a fresh ResultSet against the same endpoint that yields only
// the direct children of the box with the given id and path depth.
func (rs *ResultSet) Scoped(id string, pathDepth int) *ResultSet {
	scoped := &ResultSet{
		transport: rs.transport,
		dataURI:   rs.dataURI,
		selectors: url.Values{},
		logger:    rs.logger,
		maxJobs:   rs.maxJobs,
	}
	for k, v := range rs.selectors {
		scoped.selectors[k] = append([]string(nil), v...)
	}
	scoped.selectors.Set(ParamSelected, id)
	scoped.selectors.Set(ParamPathDepth, strconv.Itoa(pathDepth))
	return scoped
}

// MaxJobs returns the advisory job cap, zero when unset.
func (rs *ResultSet) MaxJobs() int {
	return rs.maxJobs
}

// Err returns the SourceError that ended the sequence, if any.
func (rs *ResultSet) Err() error {
	return rs.err
}

// URL returns the endpoint URL for the first page including scope selectors.
func (rs *ResultSet) URL() string {
	u, err := rs.pageURL(1)
	if err != nil {
		return rs.dataURI
	}
	return u
}

// Next returns the next record in server order. It returns ErrEndOfSequence
// once the sequence is over, and a *SourceError when a page could not be
// fetched; after a SourceError every call returns ErrEndOfSequence.
func (rs *ResultSet) Next(ctx context.Context) (JobRecord, error) {
	for {
		if rs.index < len(rs.jobs) {
			rec := rs.jobs[rs.index]
			rs.index++
			return rec, nil
		}
		if rs.done {
			return JobRecord{}, ErrEndOfSequence
		}
		if rs.page > 0 && rs.received >= rs.total {
			rs.done = true
			continue
		}
		if err := rs.fetch(ctx); err != nil {
			rs.done = true
			rs.err = err
			return JobRecord{}, err
		}
	}
}

// fetch loads the next page into the cache.
func (rs *ResultSet) fetch(ctx context.Context) error {
	rs.page++
	pageURL, err := rs.pageURL(rs.page)
	if err != nil {
		return &SourceError{URL: rs.dataURI, Err: err}
	}

	data, err := rs.transport.Get(ctx, pageURL)
	if err != nil {
		return &SourceError{URL: pageURL, Err: err}
	}

	rs.jobs = nil
	rs.index = 0

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		rs.done = true
		return nil
	}

	var page wirePage
	if err := json.Unmarshal(data, &page); err != nil {
		return &SourceError{URL: pageURL, Err: fmt.Errorf("decode page: %w", err)}
	}

	count, err := parseCount(page.JobCount)
	if err != nil {
		return &SourceError{URL: pageURL, Err: err}
	}
	if count <= 0 || len(page.Jobs) == 0 {
		rs.done = true
		return nil
	}
	rs.total = count
	rs.received += len(page.Jobs)

	skip := func(mr *MalformedRecord) {
		rs.logger.Warn("skipping malformed job record", "url", pageURL, "error", mr)
	}
	if rs.seen == nil {
		rs.seen = make(map[string]struct{})
	}
	repeated := 0
	for _, raw := range page.Jobs {
		rec, err := decodeRecord(raw, skip)
		if err != nil {
			var mr *MalformedRecord
			if errors.As(err, &mr) {
				skip(mr)
				continue
			}
			return &SourceError{URL: pageURL, Err: err}
		}
		if _, dup := rs.seen[rec.ID]; dup && rs.page > 1 {
			repeated++
			continue
		}
		rs.seen[rec.ID] = struct{}{}
		rs.jobs = append(rs.jobs, rec)
	}
	// An endpoint that ignores the page parameter serves the first page
	// again; what it announced beyond that will never arrive.
	if repeated > 0 {
		rs.logger.Warn("state endpoint repeated delivered jobs, ending sequence",
			"url", pageURL,
			"page", rs.page,
			"repeated", repeated,
		)
		rs.done = true
	}

	rs.logger.Debug("fetched job page",
		"url", pageURL,
		"page", rs.page,
		"job_count", count,
		"records", len(rs.jobs),
	)
	return nil
}

// pageURL builds the URL for the given 1-based page number.
func (rs *ResultSet) pageURL(page int) (string, error) {
	u, err := url.Parse(rs.dataURI)
	if err != nil {
		return "", fmt.Errorf("parse data uri: %w", err)
	}
	q := u.Query()
	for k, v := range rs.selectors {
		q[k] = v
	}
	if page > 1 {
		q.Set(ParamPage, strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseCount reads job-count, which the server sends as an integer string.
// Plain JSON numbers are accepted too.
func parseCount(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing job-count")
	}
	n, err := decodeInt(raw)
	if err != nil {
		return 0, fmt.Errorf("non-numeric job-count %s", raw)
	}
	return n, nil
}
