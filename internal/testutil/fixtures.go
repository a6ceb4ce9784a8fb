package testutil

// Sample state endpoint pages

// EmptyPageJSON is a page announcing no jobs.
var EmptyPageJSON = `{"job-count": "0", "jobs": []}`

// TwoJobChainJSON has two root jobs where the second depends on the first.
var TwoJobChainJSON = `{
  "job-count": "2",
  "jobs": [
    {"id": 1, "job-name": "extract", "job-uri": "/job/1", "depends-on": [], "path-depth": 1, "state-name": "finished", "type": "job"},
    {"id": 2, "job-name": "load", "job-uri": "/job/2", "depends-on": [1], "path-depth": 1, "state-name": "running", "type": "job"}
  ]
}`

// LazyBoxJSON has one root job and a box (id 7, path depth 2) whose children
// have not been fetched yet.
var LazyBoxJSON = `{
  "job-count": "2",
  "jobs": [
    {"id": 1, "job-name": "prepare", "job-uri": "/job/1", "depends-on": [], "path-depth": 1, "state-name": "finished", "type": "job"},
    {"id": 7, "job-name": "nightly", "job-uri": "/job/7", "depends-on": [1], "path-depth": 2, "state-name": "active", "type": "box"}
  ]
}`

// LazyBoxChildrenQuery is the scoped query for the children of box 7.
var LazyBoxChildrenQuery = "selected=7&path-depth=2"

// LazyBoxChildrenJSON is the scoped page listing the direct children of box 7.
var LazyBoxChildrenJSON = `{
  "job-count": "3",
  "jobs": [
    {"id": 8, "job-name": "nightly-fetch", "job-uri": "/job/8", "depends-on": [], "parent-id": 7, "path-depth": 3, "state-name": "running", "type": "job"},
    {"id": 9, "job-name": "nightly-merge", "job-uri": "/job/9", "depends-on": [8], "parent-id": 7, "path-depth": 3, "state-name": "inactive", "type": "job"},
    {"id": 10, "job-name": "nightly-report", "job-uri": "/job/10", "depends-on": [8, 9, 1], "parent-id": 7, "path-depth": 3, "state-name": "inactive", "type": "job"}
  ]
}`

// EagerBoxJSON has a box whose children arrive with the first page, and a
// root job that depends on a job inside the box.
var EagerBoxJSON = `{
  "job-count": "2",
  "jobs": [
    {"id": "b1", "job-name": "ingest", "job-uri": "/job/b1", "depends-on": [], "path-depth": 1, "state-name": "running", "type": "box",
     "nodes": [
       {"id": "j1", "job-name": "ingest-a", "job-uri": "/job/j1", "depends-on": [], "parent-id": "b1", "path-depth": 2, "state-name": "finished", "type": "job"},
       {"id": "j2", "job-name": "ingest-b", "job-uri": "/job/j2", "depends-on": ["j1"], "parent-id": "b1", "path-depth": 2, "state-name": "running", "type": "job"}
     ]},
    {"id": "r1", "job-name": "publish", "job-uri": "/job/r1", "depends-on": ["b1", "j2"], "path-depth": 1, "state-name": "hold", "type": "job"}
  ]
}`

// MalformedMixJSON contains records that must be skipped between valid ones.
var MalformedMixJSON = `{
  "job-count": "5",
  "jobs": [
    {"id": 1, "job-name": "ok-first", "depends-on": [], "state-name": "finished", "type": "job"},
    {"job-name": "no-id", "depends-on": [], "state-name": "finished", "type": "job"},
    {"id": 3, "depends-on": [], "state-name": "finished", "type": "job"},
    {"id": 4, "job-name": "bad-type", "depends-on": [], "state-name": "finished", "type": "folder"},
    {"id": 5, "job-name": "ok-last", "depends-on": [1], "state-name": "running", "type": "job"}
  ]
}`

// MissingCountJSON is a page without a job-count.
var MissingCountJSON = `{"jobs": [{"id": 1, "job-name": "x", "type": "job"}]}`

// NonNumericCountJSON is a page whose job-count is not a number.
var NonNumericCountJSON = `{"job-count": "lots", "jobs": [{"id": 1, "job-name": "x", "type": "job"}]}`

// PagedFirstJSON is the first of two pages announcing three jobs in total.
var PagedFirstJSON = `{
  "job-count": "3",
  "jobs": [
    {"id": 1, "job-name": "first", "depends-on": [], "state-name": "finished", "type": "job"},
    {"id": 2, "job-name": "second", "depends-on": [1], "state-name": "running", "type": "job"}
  ]
}`

// PagedSecondJSON is the second page of PagedFirstJSON.
var PagedSecondJSON = `{
  "job-count": "3",
  "jobs": [
    {"id": 3, "job-name": "third", "depends-on": [2], "state-name": "inactive", "type": "job"}
  ]
}`

// OverAnnouncedJSON announces five jobs but carries two. An endpoint that
// ignores the page parameter serves it for every page.
var OverAnnouncedJSON = `{
  "job-count": "5",
  "jobs": [
    {"id": 1, "job-name": "first", "depends-on": [], "state-name": "finished", "type": "job"},
    {"id": 2, "job-name": "second", "depends-on": [1], "state-name": "running", "type": "job"}
  ]
}`

// PrefsPositionJSON is a preferences response carrying a saved position.
var PrefsPositionJSON = `{"position-absolute": {"x": 120, "y": 64}}`
