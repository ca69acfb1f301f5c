// Package step decodes ISO-10303-21 (STEP) physical files into a generic
// value tree: an ordered list of header entities and an ordered list of
// data records keyed by instance id.
//
// The decoder knows nothing about the EXPRESS schema. Interpreting records is
// left to package resolve.
package step

// Value is one parameter of a STEP entity. The set of implementations is
// closed: Float, Int, String, ID, Bool, Enum, Tuple, Xplicit, Undefined and
// Desc.
type Value interface {
	value() // marker method restricting implementations to this package
}

// Float is a real literal such as 10. or -1.1E-15.
type Float float64

// Int is an integer literal.
type Int int64

// String is a quoted string literal with the enclosing quotes removed.
type String string

// ID is an entity instance reference (#123).
type ID uint64

// Bool is the .T. / .F. enumeration.
type Bool bool

// Enum is any other enumeration literal (.MILLI.), without the dots.
type Enum string

// Tuple is a parenthesised, comma separated list of values.
type Tuple []Value

// Xplicit is the "*" marker: the attribute is derived and omitted.
type Xplicit struct{}

// Undefined is the "$" marker: the optional attribute has no value.
type Undefined struct{}

// Desc is a typed parameter, an unnamed NAME(args) nested inside a value
// list, e.g. LENGTH_MEASURE(1.E-07).
type Desc struct {
	Name string
	Args []Value
}

func (Float) value()     {}
func (Int) value()       {}
func (String) value()    {}
func (ID) value()        {}
func (Bool) value()      {}
func (Enum) value()      {}
func (Tuple) value()     {}
func (Xplicit) value()   {}
func (Undefined) value() {}
func (Desc) value()      {}

// Entity is a single NAME(args) group. Header records are entities, and so is
// every member of an aggregate data record.
type Entity struct {
	Name string
	Args []Value
}

// Record is one data section instance. The set of implementations is closed:
// Single and Aggregate.
type Record interface {
	RecordID() uint64
	record()
}

// Single is a simple instance: #id=NAME(args);
type Single struct {
	ID   uint64
	Name string
	Args []Value
}

// Aggregate is a complex instance made of several partial entities:
// #id=(NAME1(args) NAME2(args) ...);
type Aggregate struct {
	ID    uint64
	Parts []Entity
}

func (s Single) RecordID() uint64    { return s.ID }
func (a Aggregate) RecordID() uint64 { return a.ID }
func (Single) record()               {}
func (Aggregate) record()            {}

// Step is a decoded physical file.
type Step struct {
	Header []Entity
	Data   []Record
}
