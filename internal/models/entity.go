package models

// Property is one named value of an entity. Order is meaningful.
type Property struct {
	Name  string
	Value string
}

// Entity is the current version of a record in a named list.
type Entity struct {
	// List is the owning list name.
	List string

	ID    string
	Label string

	// Version only increases for a given ID.
	Version int64

	// BranchID marks the process/device that produced this version.
	BranchID string

	// TrunkVersion is the last version seen before a local branch began.
	TrunkVersion *int64

	Properties []Property

	// Index is the 1-based position in the list's materialized order. It is
	// assigned by the repository on read.
	Index int
}

// Property returns the value of the named property.
func (e Entity) Property(name string) (string, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}
