package ir

// Version constants for the IR schema and the build engine.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// EngineVersion is the conventions engine version. It is also the
	// ProductVersion annotation stamped on every built model.
	EngineVersion = "0.2.0"
)
