package version

// AppVersion is the sysdeck release version. Overridden at build time via
// -ldflags "-X sysdeck/internal/version.AppVersion=...".
var AppVersion = "0.1.0"
