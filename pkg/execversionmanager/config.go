package execversionmanager

import (
	"github.com/variantdev/buildmaster/pkg/release"
)

type Config struct {
	// Toolchains are provisioned newest generation first
	Toolchains []Toolchain `yaml:"toolchains" json:"toolchains"`

	// Auxiliary is the build-dependency installation handed to every build, e.g. Maven
	Auxiliary Tool `yaml:"auxiliary" json:"auxiliary"`

	BuildTools BuildToolsSource `yaml:"buildTools" json:"buildTools"`
}

type Toolchain struct {
	Generation release.Generation `yaml:"generation" json:"generation"`
	Platforms  []Platform         `yaml:"platforms" json:"platforms"`
}

type Tool struct {
	Name      string     `yaml:"name" json:"name"`
	Platforms []Platform `yaml:"platforms" json:"platforms"`
}

type BuildToolsSource struct {
	Source   string `yaml:"source" json:"source"`
	FileName string `yaml:"fileName" json:"fileName"`
}

type Platform struct {
	Source string `yaml:"source" json:"source"`

	// EntryPoint is the path of the executable relative to the archive's top-level directory
	EntryPoint string   `yaml:"entryPoint" json:"entryPoint"`
	Selector   Selector `yaml:"selector" json:"selector"`
}

type Selector struct {
	MatchLabels MatchLabels `yaml:"matchLabels" json:"matchLabels"`
}

func (l Selector) Matches(set map[string]string) bool {
	return l.MatchLabels.Matches(set)
}

type MatchLabels struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

func (l MatchLabels) Matches(set map[string]string) bool {
	return set["os"] == l.OS && set["arch"] == l.Arch
}

const (
	DefaultBuildToolsSource   = "https://hub.spigotmc.org/jenkins/job/BuildTools/lastSuccessfulBuild/artifact/target/BuildTools.jar"
	DefaultBuildToolsFileName = "BuildTools.jar"
	DefaultMavenSource        = "https://archive.apache.org/dist/maven/maven-3/3.8.6/binaries/apache-maven-3.8.6-bin.zip"
)

func jdk(os, arch, src string) Platform {
	entryPoint := "bin/java"
	if os == "windows" {
		entryPoint = "bin/java.exe"
	}
	return Platform{
		Source:     src,
		EntryPoint: entryPoint,
		Selector:   Selector{MatchLabels: MatchLabels{OS: os, Arch: arch}},
	}
}

// DefaultConfig returns the JDK 17, 16 and 8 builds, Maven 3.8.6 and the latest BuildTools.jar.
func DefaultConfig() Config {
	return Config{
		Toolchains: []Toolchain{
			{
				Generation: release.Java17,
				Platforms: []Platform{
					jdk("linux", "amd64", "https://github.com/adoptium/temurin17-binaries/releases/download/jdk-17.0.8.1%2B1/OpenJDK17U-jdk_x64_linux_hotspot_17.0.8.1_1.tar.gz"),
					jdk("windows", "amd64", "https://github.com/adoptium/temurin17-binaries/releases/download/jdk-17.0.8.1%2B1/OpenJDK17U-jdk_x64_windows_hotspot_17.0.8.1_1.zip"),
				},
			},
			{
				Generation: release.Java16,
				Platforms: []Platform{
					jdk("linux", "amd64", "https://github.com/AdoptOpenJDK/openjdk16-binaries/releases/download/jdk-16.0.1%2B9/OpenJDK16U-jdk_x64_linux_hotspot_16.0.1_9.tar.gz"),
					jdk("windows", "amd64", "https://github.com/AdoptOpenJDK/openjdk16-binaries/releases/download/jdk-16.0.1%2B9/OpenJDK16U-jdk_x64_windows_hotspot_16.0.1_9.zip"),
				},
			},
			{
				Generation: release.Java8,
				Platforms: []Platform{
					jdk("linux", "amd64", "https://github.com/AdoptOpenJDK/openjdk8-binaries/releases/download/jdk8u292-b10/OpenJDK8U-jdk_x64_linux_hotspot_8u292b10.tar.gz"),
					jdk("windows", "amd64", "https://github.com/AdoptOpenJDK/openjdk8-binaries/releases/download/jdk8u292-b10/OpenJDK8U-jdk_x64_windows_hotspot_8u292b10.zip"),
				},
			},
		},
		Auxiliary: Tool{
			Name: "Maven",
			Platforms: []Platform{
				{Source: DefaultMavenSource, EntryPoint: "bin/mvn"},
			},
		},
		BuildTools: BuildToolsSource{
			Source:   DefaultBuildToolsSource,
			FileName: DefaultBuildToolsFileName,
		},
	}
}
