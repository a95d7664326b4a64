package version

// Version is the objdb version, set at build time with
// -ldflags "-X github.com/FlavioFalcao/object-recognition-core/internal/version.Version=...".
var Version = "0.1.0-dev"
