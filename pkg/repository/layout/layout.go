package layout

import "path/filepath"

// StorePath is the root directory of a reference store on disk, the
// directory that holds HEAD, pseudo-refs, the refs tree, the reflog tree,
// the packed catalog, the configuration file, and (when the key-value
// backend is selected) the ref database.
type StorePath string

const (
	// RefsDir is the name of the loose refs directory
	RefsDir = "refs"

	// LogsDir is the name of the reflog directory
	LogsDir = "logs"

	// PackedRefsFile is the name of the packed catalog file
	PackedRefsFile = "packed-refs"

	// ConfigFile is the name of the config file
	ConfigFile = "config.json"

	// HeadFile is the name of the HEAD file
	HeadFile = "HEAD"

	// RefDBDir is the directory holding the key-value ref database
	RefDBDir = "refdb"

	// RefDBFile is the database file inside RefDBDir
	RefDBFile = "refs.db"
)

// String returns the path as a string
func (sp StorePath) String() string {
	return string(sp)
}

// IsValid checks if this is a non-empty path
func (sp StorePath) IsValid() bool {
	return len(sp) > 0
}

// Join joins path elements to the store path
func (sp StorePath) Join(elem ...string) string {
	parts := append([]string{string(sp)}, elem...)
	return filepath.Join(parts...)
}

// RefsPath returns the path to the loose refs directory
func (sp StorePath) RefsPath() string {
	return sp.Join(RefsDir)
}

// RefPath returns the loose file path for a refname.
// Example: "refs/heads/main" maps to "<root>/refs/heads/main".
func (sp StorePath) RefPath(refname string) string {
	return sp.Join(filepath.FromSlash(refname))
}

// LogsPath returns the path to the reflog directory
func (sp StorePath) LogsPath() string {
	return sp.Join(LogsDir)
}

// LogPath returns the reflog file path for a refname
func (sp StorePath) LogPath(refname string) string {
	return sp.Join(LogsDir, filepath.FromSlash(refname))
}

// PackedRefsPath returns the path to the packed catalog
func (sp StorePath) PackedRefsPath() string {
	return sp.Join(PackedRefsFile)
}

// HeadPath returns the path to the HEAD file
func (sp StorePath) HeadPath() string {
	return sp.Join(HeadFile)
}

// PseudoPath returns the path of a pseudo-ref such as MERGE_HEAD.
// Pseudo-refs live directly in the store root.
func (sp StorePath) PseudoPath(name string) string {
	return sp.Join(name)
}

// ConfigPath returns the path to the config file
func (sp StorePath) ConfigPath() string {
	return sp.Join(ConfigFile)
}

// RefDBPath returns the path to the key-value ref database file
func (sp StorePath) RefDBPath() string {
	return sp.Join(RefDBDir, RefDBFile)
}
