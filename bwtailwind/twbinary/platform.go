package twbinary

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

var platformOS = map[string]string{
	"linux":   "linux",
	"darwin":  "macos",
	"windows": "windows",
}

var platformArch = map[string]string{
	"amd64": "x64",
	"arm64": "arm64",
	"arm":   "armv7",
}

// PlatformBinaryName returns the release asset name of the standalone CLI
// for goos/goarch, e.g. "tailwindcss-linux-x64".
func PlatformBinaryName(goos, goarch string) (string, error) {
	osName, ok := platformOS[goos]
	if !ok {
		return "", errors.Newf("tailwind has no standalone binary for OS %q", goos)
	}
	arch, ok := platformArch[goarch]
	if !ok {
		return "", errors.Newf("tailwind has no standalone binary for architecture %q", goarch)
	}
	if goos == "windows" && goarch == "arm" {
		return "", errors.New("tailwind has no standalone binary for windows/arm")
	}

	name := "tailwindcss-" + osName + "-" + arch
	if goos == "windows" {
		name += ".exe"
	}
	return name, nil
}

func currentPlatformBinaryName() (string, error) {
	return PlatformBinaryName(runtime.GOOS, runtime.GOARCH)
}
