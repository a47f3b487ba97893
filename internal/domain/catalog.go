package domain

// Well-known catalog row names. The seed data is Spanish; every rule that
// speaks of the default or closed state resolves these names at runtime.
const (
	DefaultStatusName   = "Nuevo"
	DefaultPriorityName = "Media"
	ClosedStatusName    = "Cerrado"
)

// CatalogKind identifies one of the flat lookup tables.
type CatalogKind string

const (
	CatalogStatus   CatalogKind = "status"
	CatalogPriority CatalogKind = "priority"
	CatalogCategory CatalogKind = "category"
)

// CatalogEntry is a row of a flat lookup table.
type CatalogEntry struct {
	ID   string
	Name string
}

// TicketType classifies a ticket and may supply default status/priority
// for tickets created with it.
type TicketType struct {
	ID                string
	Name              string
	Description       *string
	DefaultStatusID   *string
	DefaultPriorityID *string
}
