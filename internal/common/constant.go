// Package common contains shared constants and sentinel errors used across
// formsync components.
package common

// LastSavedFileName is the carry-forward artifact written by the save flow
// into a form's media directory and copied into newly downloaded versions.
const LastSavedFileName = "last-saved.xml"

// EntityListExt is the file extension of entity list media files.
const EntityListExt = ".csv"
