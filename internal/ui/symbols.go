package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"
	SymbolPeak    = "▲"
	SymbolRestart = "↻"
	SymbolWarning = "!"
	SymbolBullet  = "•"
)
