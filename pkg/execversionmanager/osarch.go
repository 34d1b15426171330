package execversionmanager

import (
	"os"
	"runtime"
)

func (p *ExecVM) matchingPlatform(name string, platforms []Platform) (Platform, bool) {
	ls := map[string]string{
		"os":   p.OS,
		"arch": p.Arch,
	}
	p.Logger.V(2).Info("matching platform", "name", name, "labels", ls)
	for i, platform := range platforms {
		if platform.Selector.Matches(ls) {
			p.Logger.V(1).Info("found matching platform", "name", name, "index", i)
			return platform, true
		}
	}
	return Platform{}, false
}

// OsArch returns the OS/arch combination to be used on the current system. It
// can be overridden by setting BUILDMASTER_OS and/or BUILDMASTER_ARCH environment variables.
func OsArch() (string, string) {
	goos, goarch := runtime.GOOS, runtime.GOARCH
	envOS, envArch := os.Getenv("BUILDMASTER_OS"), os.Getenv("BUILDMASTER_ARCH")
	if envOS != "" {
		goos = envOS
	}
	if envArch != "" {
		goarch = envArch
	}
	return goos, goarch
}
