package config

// Build metadata, overridden with -ldflags "-X" at release time
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is the version line printed by the CLI
func BuildInfo() string {
	if Commit == "unknown" {
		return Version
	}
	short := Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return Version + " (" + short + ", built " + Date + ")"
}
