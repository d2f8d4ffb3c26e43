package version

// Current defines the application version.
// It defaults to "dev" and can be overwritten at build time using -ldflags.
var Current = "dev"

const AppName = "FaultQuant"
