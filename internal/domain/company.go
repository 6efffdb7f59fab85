package domain

// FlatCompany is one row of the flattened company table in the shape the
// storage sinks consume: the well-known scalar columns broken out, everything
// produced by nested-field expansion kept in Extra.
type FlatCompany struct {
	ID          int64
	Name        string
	Ticker      string
	Sector      *string
	Industry    *string
	Description *string
	Extra       map[string]any
}
