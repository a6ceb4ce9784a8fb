// Package source reads job records from a paginated state endpoint.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// JobType discriminates leaf jobs from box jobs.
type JobType string

const (
	// TypeJob is a leaf unit of scheduled work.
	TypeJob JobType = "job"
	// TypeBox is a composite job containing nested jobs and boxes.
	TypeBox JobType = "box"
)

// JobRecord is one validated job as delivered by the state endpoint.
type JobRecord struct {
	ID        string
	Name      string
	DetailURI string
	Type      JobType
	StateName string
	DependsOn []string // Ids this job depends on, in wire order
	ParentID  string   // Enclosing box id, empty for top-level jobs
	PathDepth int
	Children  []JobRecord // Present only when the server already sent them
}

// IsBox reports whether the record is a box job.
func (r JobRecord) IsBox() bool {
	return r.Type == TypeBox
}

// wirePage is the JSON shape of one fetched page.
type wirePage struct {
	JobCount json.RawMessage   `json:"job-count"`
	Jobs     []json.RawMessage `json:"jobs"`
}

// wireJob is the JSON shape of one job. Ids arrive as either numbers or
// strings, so they are decoded lazily.
type wireJob struct {
	ID        json.RawMessage   `json:"id"`
	JobName   string            `json:"job-name"`
	JobURI    string            `json:"job-uri"`
	DependsOn []json.RawMessage `json:"depends-on"`
	ParentID  json.RawMessage   `json:"parent-id"`
	PathDepth json.RawMessage   `json:"path-depth"`
	StateName string            `json:"state-name"`
	Type      string            `json:"type"`
	Nodes     []json.RawMessage `json:"nodes"`
}

// decodeRecord validates a raw job and converts it to a JobRecord.
// Nested nodes that fail validation are dropped and reported through skip.
func decodeRecord(raw json.RawMessage, skip func(*MalformedRecord)) (JobRecord, error) {
	var w wireJob
	if err := json.Unmarshal(raw, &w); err != nil {
		return JobRecord{}, &MalformedRecord{Reason: "undecodable job", Err: err}
	}

	id, ok, err := decodeID(w.ID)
	if err != nil || !ok {
		return JobRecord{}, &MalformedRecord{Reason: "missing or invalid id", Err: err}
	}
	if w.JobName == "" {
		return JobRecord{}, &MalformedRecord{ID: id, Reason: "missing job-name"}
	}

	rec := JobRecord{
		ID:        id,
		Name:      w.JobName,
		DetailURI: w.JobURI,
		Type:      JobType(w.Type),
		StateName: w.StateName,
	}
	switch rec.Type {
	case TypeJob, TypeBox:
	default:
		return JobRecord{}, &MalformedRecord{ID: id, Reason: fmt.Sprintf("unknown type %q", w.Type)}
	}

	for _, dep := range w.DependsOn {
		depID, ok, err := decodeID(dep)
		if err != nil {
			return JobRecord{}, &MalformedRecord{ID: id, Reason: "invalid depends-on entry", Err: err}
		}
		if ok {
			rec.DependsOn = append(rec.DependsOn, depID)
		}
	}

	parentID, _, err := decodeID(w.ParentID)
	if err != nil {
		return JobRecord{}, &MalformedRecord{ID: id, Reason: "invalid parent-id", Err: err}
	}
	rec.ParentID = parentID

	depth, err := decodeInt(w.PathDepth)
	if err != nil {
		return JobRecord{}, &MalformedRecord{ID: id, Reason: "invalid path-depth", Err: err}
	}
	rec.PathDepth = depth

	for _, child := range w.Nodes {
		c, err := decodeRecord(child, skip)
		if err != nil {
			var mr *MalformedRecord
			if errors.As(err, &mr) && skip != nil {
				skip(mr)
			}
			continue
		}
		rec.Children = append(rec.Children, c)
	}

	return rec, nil
}

// decodeID normalises an id that may be a JSON string or a non-negative
// integer. It reports ok=false for an absent or null id.
func decodeID(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, s != "", nil
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return "", false, fmt.Errorf("id %s is not a non-negative integer", raw)
	}
	return strconv.FormatUint(n, 10), true, nil
}

// decodeInt reads an integer sent either as a JSON number or as a numeric
// string. Absent values decode to zero.
func decodeInt(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	}
	return strconv.Atoi(s)
}
