package version

// Current defines the application version.
// It defaults to "dev" and is overwritten with -ldflags at release time.
var Current = "dev"

// AppName names the binary in help text and telemetry.
const AppName = "lcw"
