package version

var (
	// Version is the current build version, populated by the build system
	// via ldflags; falls back to "dev" for local builds.
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders "<version> (<commit>, built <date>)" for --version output.
func String() string {
	return Version + " (" + Commit + ", built " + Date + ")"
}
