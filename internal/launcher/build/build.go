package build

// Set at build time with -ldflags "-X github.com/pg4sim/pg4launch/internal/launcher/build.ReleaseVersion=...".
var (
	ReleaseVersion = "UNKNOWN_VERSION"
	GitCommit      = "UNKNOWN_GITCOMMIT"
	GoVersion      = "UNKNOWN_GOVERSION"
	BuildTime      = "UNKNOWN_BUILDTIME"
)
