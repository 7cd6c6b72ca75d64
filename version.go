package tisch

import "runtime/debug"

// Version is the release version, set at link time with
// -ldflags "-X github.com/dgoffredo/tisch.Version=v1.2.3".
var Version = "dev"

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// BuildVersion returns Version, or the module version recorded by the Go
// toolchain when Version was not set at link time.
func BuildVersion() string {
	if Version != "dev" {
		return Version
	}
	info, ok := readBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return Version
	}
	return info.Main.Version
}

// GoVersion returns the version of Go the binary was built with.
func GoVersion() string {
	info, ok := readBuildInfo()
	if !ok {
		return "unknown"
	}
	return info.GoVersion
}
