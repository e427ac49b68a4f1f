package version

import "testing"

func TestRawVersionHasNoSuffix(t *testing.T) {
	if got := RawVersion(); got != version {
		t.Errorf("RawVersion() = %q, want %q", got, version)
	}
}

func TestGetInfoPopulatesPlatformAndGoVersion(t *testing.T) {
	info := GetInfo()

	if info.Version != RawVersion() {
		t.Errorf("Version = %q, want %q", info.Version, RawVersion())
	}
	if info.GoVersion != GoVersion() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, GoVersion())
	}
	if info.Platform.OS == "" || info.Platform.Arch == "" {
		t.Errorf("Platform = %+v, want both fields populated", info.Platform)
	}
}

func TestVersionSuffixesAreOptional(t *testing.T) {
	// Under `go test`, build info carries no module dependency graph, so
	// BuildKit/HCL versions are empty and Version() degrades to the bare
	// version string.
	if BuildKitVersion() == "" && HCLVersion() == "" {
		if got := Version(); got != RawVersion() {
			t.Errorf("Version() = %q, want bare %q when no deps resolved", got, RawVersion())
		}
	}
}
