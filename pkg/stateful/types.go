package stateful

import (
	"time"

	"github.com/getmockd/billingmock/pkg/schema"
)

// DefaultMaxPageSize mirrors the real service's page cap.
const DefaultMaxPageSize = 100

// Record is a single stored resource of one kind.
type Record struct {
	// Kind is the resource kind (e.g. "plan").
	Kind string `json:"object"`
	// ID is unique among live records of Kind.
	ID string `json:"id"`
	// Fields holds every stored field except the id.
	Fields schema.Params `json:"-"`
	// Created is when the record was first stored.
	Created time.Time `json:"-"`
	// Updated is when the record was last modified.
	Updated time.Time `json:"-"`
}

// Get returns a stored field; "id" resolves to the record id.
func (r *Record) Get(field string) interface{} {
	if field == schema.IDField {
		return r.ID
	}
	return r.Fields[field]
}

// Clone returns a deep copy that shares no maps with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{
		Kind:    r.Kind,
		ID:      r.ID,
		Fields:  schema.Clone(r.Fields),
		Created: r.Created,
		Updated: r.Updated,
	}
}

// ToJSON flattens the record the way the real API serializes objects:
// stored fields at the root plus id, object and created.
func (r *Record) ToJSON() map[string]interface{} {
	result := make(map[string]interface{}, len(r.Fields)+3)
	for k, v := range r.Fields {
		result[k] = schema.CloneValue(v)
	}
	result[schema.IDField] = r.ID
	result["object"] = r.Kind
	result["created"] = r.Created.Unix()
	return result
}

// newRecord splits a field mapping into id and stored fields.
func newRecord(kind, id string, params schema.Params, now time.Time) *Record {
	fields := schema.Clone(params)
	if fields == nil {
		fields = make(schema.Params)
	}
	delete(fields, schema.IDField)
	return &Record{
		Kind:    kind,
		ID:      id,
		Fields:  fields,
		Created: now,
		Updated: now,
	}
}

// ListOptions bounds a list call.
type ListOptions struct {
	// Limit is the maximum records to return; zero or negative means the page cap.
	Limit int
	// StartingAfter is a record id; only records created after it are returned.
	StartingAfter string
	// Filters are exact-match filters on stored fields (values compared as strings).
	Filters map[string]string
}

// ListResult is one page of records in insertion order.
type ListResult struct {
	Kind    string    `json:"-"`
	Data    []*Record `json:"data"`
	HasMore bool      `json:"has_more"`
	// Total is the number of records matching the filters before paging.
	Total int `json:"-"`
}

// ToJSON renders the list envelope.
func (l *ListResult) ToJSON() map[string]interface{} {
	data := make([]interface{}, len(l.Data))
	for i, r := range l.Data {
		data[i] = r.ToJSON()
	}
	return map[string]interface{}{
		"object":   "list",
		"data":     data,
		"has_more": l.HasMore,
		"url":      "/v1/" + l.Kind + "s",
	}
}

// Overview summarizes the store contents.
type Overview struct {
	Kinds      int            `json:"kinds"`
	TotalItems int            `json:"totalItems"`
	Counts     map[string]int `json:"counts"`
}
