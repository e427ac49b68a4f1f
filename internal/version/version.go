package version

import (
	"runtime"
	"runtime/debug"
	"slices"
)

var version = "dev"

// Version returns the current version string with BuildKit and HCL suffixes.
func Version() string {
	bkVersion := BuildKitVersion()
	hclVersion := HCLVersion()
	s := version
	if bkVersion != "" {
		s += " (buildkit " + bkVersion + ")"
	}
	if hclVersion != "" {
		s += " (hcl " + hclVersion + ")"
	}
	return s
}

// RawVersion returns the semantic version string without any suffix.
func RawVersion() string {
	return version
}

// BuildKitVersion returns the linked BuildKit version from build info.
func BuildKitVersion() string {
	bk, _, _ := readBuildInfo()
	return bk
}

// HCLVersion returns the linked hashicorp/hcl/v2 version from build info.
// HCL emission is as load-bearing here as the BuildKit parser, so it gets
// the same build-info treatment.
func HCLVersion() string {
	_, hcl, _ := readBuildInfo()
	return hcl
}

// GoVersion returns the Go toolchain version used for the build.
func GoVersion() string {
	return runtime.Version()
}

// readBuildInfo reads debug.ReadBuildInfo once and extracts the BuildKit
// and HCL dependency versions plus the VCS revision.
func readBuildInfo() (bkVersion, hclVersion, commit string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", "", ""
	}
	if idx := slices.IndexFunc(info.Deps, func(dep *debug.Module) bool {
		return dep.Path == "github.com/moby/buildkit"
	}); idx >= 0 {
		bkVersion = info.Deps[idx].Version
	}
	if idx := slices.IndexFunc(info.Deps, func(dep *debug.Module) bool {
		return dep.Path == "github.com/hashicorp/hcl/v2"
	}); idx >= 0 {
		hclVersion = info.Deps[idx].Version
	}
	if idx := slices.IndexFunc(info.Settings, func(s debug.BuildSetting) bool {
		return s.Key == "vcs.revision"
	}); idx >= 0 {
		val := info.Settings[idx].Value
		if len(val) > 12 {
			commit = val[:12]
		} else {
			commit = val
		}
	}
	return bkVersion, hclVersion, commit
}

// Info holds structured version information for machine-readable output.
type Info struct {
	Version         string   `json:"version"`
	BuildkitVersion string   `json:"buildkitVersion,omitempty"`
	HCLVersion      string   `json:"hclVersion,omitempty"`
	Platform        Platform `json:"platform"`
	GoVersion       string   `json:"goVersion"`
	GitCommit       string   `json:"gitCommit,omitempty"`
}

// Platform describes the OS and architecture.
type Platform struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// GetInfo returns structured version information.
func GetInfo() Info {
	bkVersion, hclVersion, commit := readBuildInfo()
	return Info{
		Version:         RawVersion(),
		BuildkitVersion: bkVersion,
		HCLVersion:      hclVersion,
		Platform: Platform{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		GoVersion: GoVersion(),
		GitCommit: commit,
	}
}
