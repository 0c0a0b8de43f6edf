package rtsp

import (
	"fmt"
	"strings"

	"github.com/e7canasta/rtsp-launch/internal/factory"
)

// MountTable maps request paths to media factories. The launcher serves
// exactly one endpoint, so the table holds at most one entry; AddFactory
// rejects a second mount rather than silently shadowing the first.
//
// Ownership: once the table is handed to Runtime.Mount the runtime owns
// it and the caller must not touch it again.
type MountTable struct {
	path    string
	factory *factory.MediaFactory
}

// NewMountTable creates an empty mount table.
func NewMountTable() *MountTable {
	return &MountTable{}
}

// AddFactory mounts a media factory at path. The path must be absolute
// and the table must be empty.
func (t *MountTable) AddFactory(path string, f *factory.MediaFactory) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("rtsp: mount path %q is not absolute", path)
	}
	if f == nil {
		return fmt.Errorf("rtsp: nil media factory for mount %q", path)
	}
	if t.factory != nil {
		return fmt.Errorf("rtsp: mount table already holds %q, cannot add %q", t.path, path)
	}
	t.path = path
	t.factory = f
	return nil
}

// Path returns the mounted path, empty if nothing is mounted.
func (t *MountTable) Path() string { return t.path }

// Lookup returns the factory mounted at path.
func (t *MountTable) Lookup(path string) (*factory.MediaFactory, bool) {
	if t.factory == nil || path != t.path {
		return nil, false
	}
	return t.factory, true
}
