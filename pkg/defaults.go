package pkg

// =================================
// File layout defaults
// =================================
const (
	MetaFileName = "meta.json" // sidecar written next to unpacked entries
)

// =================================
// File permissions defaults
// =================================
const (
	FilePerms = 0o644
	DirPerms  = 0o755
)
