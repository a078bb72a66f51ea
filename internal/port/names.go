package port

// NameSource provides the static medicine name catalog, read once at startup.
type NameSource interface {
	// Load returns the full ordered catalog of distinct names.
	Load() ([]string, error)
}
