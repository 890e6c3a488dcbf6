package ir

// Version constants for the document model and engine.
const (
	// IRVersion is the document model version.
	IRVersion = "1"

	// EngineVersion is the cinemad engine version.
	EngineVersion = "0.1.0"
)
