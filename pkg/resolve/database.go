// Package resolve interprets a decoded STEP file: it indexes every data
// record by instance id and walks the fixed reference chain that leads from
// the presentation representation to the faces of a single solid.
//
// The database is an arena. Records never point at each other; every
// cross-reference is resolved by id lookup, and the database is read-only
// once built, so it may be shared between goroutines.
package resolve

import (
	"fmt"

	"github.com/chazu/canorus/pkg/step"
)

// Database maps instance ids to records.
type Database struct {
	records   map[uint64]step.Record
	nameIndex map[string][]uint64 // Single record name -> ids, in file order
	header    Header
}

// New indexes doc. A duplicated instance id is a data error.
func New(doc *step.Step) (*Database, error) {
	db := &Database{
		records:   make(map[uint64]step.Record, len(doc.Data)),
		nameIndex: make(map[string][]uint64),
		header:    parseHeader(doc.Header),
	}
	for _, r := range doc.Data {
		id := r.RecordID()
		if prev, exists := db.records[id]; exists {
			return nil, &DataError{
				Entity: recordName(r),
				ID:     id,
				Msg:    fmt.Sprintf("duplicate instance id (already used by %s)", recordName(prev)),
			}
		}
		db.records[id] = r
		if s, ok := r.(step.Single); ok {
			db.nameIndex[s.Name] = append(db.nameIndex[s.Name], id)
		}
	}
	return db, nil
}

// Header returns the interpreted header section.
func (db *Database) Header() Header {
	return db.header
}

// Get returns the record with the given id, or nil.
func (db *Database) Get(id uint64) step.Record {
	return db.records[id]
}

// Len returns the number of records.
func (db *Database) Len() int {
	return len(db.records)
}

// Lookup returns the ids of all simple records named name, in file order.
func (db *Database) Lookup(name string) []uint64 {
	return db.nameIndex[name]
}

// single returns the arguments of record id, which must be a simple record
// named entity.
func (db *Database) single(id uint64, entity string) ([]step.Value, error) {
	r, ok := db.records[id]
	if !ok {
		return nil, &DataError{Entity: entity, ID: id, Msg: "no such instance"}
	}
	s, ok := r.(step.Single)
	if !ok {
		return nil, &DataError{Entity: entity, ID: id, Msg: fmt.Sprintf("found complex instance %s", recordName(r))}
	}
	if s.Name != entity {
		return nil, &DataError{Entity: entity, ID: id, Msg: fmt.Sprintf("found %s", s.Name)}
	}
	return s.Args, nil
}

func recordName(r step.Record) string {
	switch r := r.(type) {
	case step.Single:
		return r.Name
	case step.Aggregate:
		names := ""
		for i, p := range r.Parts {
			if i > 0 {
				names += " "
			}
			names += p.Name
		}
		return "(" + names + ")"
	}
	return "?"
}
