package resolve

import "fmt"

// DataError reports a record that does not have the shape expected at a
// resolution step: wrong entity name, missing argument, or an argument of
// the wrong kind. Entity names the entity kind being decoded.
type DataError struct {
	Entity string
	ID     uint64 // 0 when the failure is not tied to one instance
	Msg    string
}

func (e *DataError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("resolve: %s #%d: %s", e.Entity, e.ID, e.Msg)
	}
	return fmt.Sprintf("resolve: %s: %s", e.Entity, e.Msg)
}
