package config

// TypedConfig provides type-safe access to the configuration keys the
// reference store recognizes. It wraps a Manager.
type TypedConfig struct {
	manager *Manager
}

// NewTypedConfig creates a new TypedConfig wrapper around a Manager
func NewTypedConfig(manager *Manager) *TypedConfig {
	return &TypedConfig{
		manager: manager,
	}
}

// RefStorage returns the selected ref backend name (extensions.refstorage)
func (tc *TypedConfig) RefStorage() string {
	entry := tc.manager.Get("extensions.refstorage")
	if entry == nil {
		return "files"
	}
	return entry.AsString()
}

// LogAllRefUpdates returns whether reflogs are auto-created for qualifying
// refs (core.logallrefupdates)
func (tc *TypedConfig) LogAllRefUpdates() bool {
	entry := tc.manager.Get("core.logallrefupdates")
	if entry == nil {
		return true
	}
	val, err := entry.AsBoolean()
	if err != nil {
		return true
	}
	return val
}

// WarnAmbiguousRefs returns whether short-name lookups keep scanning after
// the first match to warn on ambiguity (core.warnambiguousrefs)
func (tc *TypedConfig) WarnAmbiguousRefs() bool {
	entry := tc.manager.Get("core.warnambiguousrefs")
	if entry == nil {
		return true
	}
	val, err := entry.AsBoolean()
	if err != nil {
		return true
	}
	return val
}

// HideRefs returns all hiderefs patterns for a section, combining
// transfer.hiderefs with <section>.hiderefs
func (tc *TypedConfig) HideRefs(section string) []string {
	var patterns []string
	for _, entry := range tc.manager.GetAll("transfer.hiderefs") {
		patterns = append(patterns, entry.AsString())
	}
	if section != "" && section != "transfer" {
		for _, entry := range tc.manager.GetAll(section + ".hiderefs") {
			patterns = append(patterns, entry.AsString())
		}
	}
	return patterns
}

// DefaultBranch returns the default branch name for new stores
func (tc *TypedConfig) DefaultBranch() string {
	entry := tc.manager.Get("init.defaultbranch")
	if entry == nil {
		return "main"
	}
	return entry.AsString()
}

// UserName returns the configured user name
func (tc *TypedConfig) UserName() string {
	entry := tc.manager.Get("user.name")
	if entry == nil {
		return ""
	}
	return entry.AsString()
}

// UserEmail returns the configured user email
func (tc *TypedConfig) UserEmail() string {
	entry := tc.manager.Get("user.email")
	if entry == nil {
		return ""
	}
	return entry.AsString()
}

// GetString returns a configuration value as a string
func (tc *TypedConfig) GetString(key string) string {
	entry := tc.manager.Get(key)
	if entry == nil {
		return ""
	}
	return entry.AsString()
}

// GetBool returns a configuration value as a boolean
func (tc *TypedConfig) GetBool(key string) (bool, error) {
	entry := tc.manager.Get(key)
	if entry == nil {
		return false, NewNotFoundError(key, "")
	}
	return entry.AsBoolean()
}

// GetAll returns all values for a multi-value configuration key
func (tc *TypedConfig) GetAll(key string) []string {
	entries := tc.manager.GetAll(key)
	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.AsString())
	}
	return result
}
