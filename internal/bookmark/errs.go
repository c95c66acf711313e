package bookmark

import "errors"

var (
	ErrNotInitialized   = errors.New("bookmark store not initialized")
	ErrNotFound         = errors.New("no bookmark found")
	ErrDirNotFound      = errors.New("no directory found")
	ErrDirectoryCycle   = errors.New("directory cycle detected")
	ErrRootDirectory    = errors.New("root directory cannot be changed")
	ErrDirectoryTooDeep = errors.New("directory nesting too deep")
)
