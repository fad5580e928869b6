package gainers

// SymbolRecord is one row of the top-gainers listing.
// Identity key is Symbol; records are immutable once emitted.
type SymbolRecord struct {
	Symbol string // uppercase ticker
	Name   string // display name
}
