package version

// Version is set at build time via -ldflags "-X .../internal/version.Version=<tag>".
var Version = "dev"
