package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/formsync/internal/common"
)

// MediaFile is one manifest entry.
type MediaFile struct {
	FileName     string `json:"filename"`
	Hash         string `json:"hash"`
	DownloadURL  string `json:"downloadUrl"`
	IsEntityList bool   `json:"isEntityList,omitempty"`
}

// Manifest is the server-declared media list of one form version. Hash is the
// optional digest of the whole list.
type Manifest struct {
	Hash  *string     `json:"hash,omitempty"`
	Files []MediaFile `json:"mediaFiles"`
}

// Validate rejects manifests that would write outside the media directory or
// list the same file twice.
func (m Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Files))
	for _, f := range m.Files {
		name := f.FileName
		if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%w: bad file name %q", common.ErrInvalidManifest, name)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate file %q", common.ErrInvalidManifest, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
