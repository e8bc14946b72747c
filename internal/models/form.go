// Package models defines the records formsync reads from and writes to its
// local repositories.
package models

// FormVersion is one locally stored version of a form.
type FormVersion struct {
	// DbID is the repository identifier; zero until the record is saved.
	DbID int64

	// FormID groups versions of the same form.
	FormID string

	// Version is opaque and only compared for equality.
	Version string

	// Date is the save timestamp. Recency is decided by Date alone, ties by DbID.
	Date int64

	// FormFilePath points at the form definition file.
	FormFilePath string

	// MediaPath is the directory holding the version's media files.
	MediaPath string
}

// NewerThan reports whether f sorts before o in most-recent-first order.
func (f FormVersion) NewerThan(o FormVersion) bool {
	if f.Date != o.Date {
		return f.Date > o.Date
	}
	return f.DbID > o.DbID
}
