package loginfra

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"k8s.io/klog"
)

// VerbosityEnv sets the klog verbosity before any flag is parsed
const VerbosityEnv = "BUILDMASTER_VERBOSITY"

func NewFlagSet() *flag.FlagSet {
	// See https://flowerinthenight.com/blog/2019/02/05/golang-cobra-klog
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	// Suppress usage flag.ErrHelp
	fs.SetOutput(ioutil.Discard)

	return fs
}

func Init() *flag.FlagSet {
	fs := NewFlagSet()

	fs = AddKlogFlags(fs)

	return Parse(fs, os.Args[1:])
}

// Parse reads the klog flags out of args, ignoring everything it does not know.
func Parse(fs *flag.FlagSet, args []string) *flag.FlagSet {
	var known []string
	for _, a := range args {
		name := strings.TrimLeft(a, "-")
		if i := strings.Index(name, "="); i >= 0 {
			name = name[:i]
		}
		if strings.HasPrefix(a, "-") && fs.Lookup(name) != nil && strings.Contains(a, "=") {
			known = append(known, a)
		}
	}

	if err := fs.Parse(known); err != nil && err != flag.ErrHelp {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return fs
}

func AddKlogFlags(fs *flag.FlagSet) *flag.FlagSet {
	klog.InitFlags(fs)

	// Configure klog
	fs.Set("skip_headers", "true")

	v := os.Getenv(VerbosityEnv)
	if v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			fmt.Fprintf(os.Stderr, "Ignoring invalid %s=%q\n", VerbosityEnv, v)
		} else {
			fmt.Fprintf(os.Stderr, "Setting log verbosity to %s\n", v)
			fs.Set("v", v)
		}
	}

	return fs
}

// SetDebug raises the verbosity to at least 1 so that debug messages are printed.
func SetDebug(fs *flag.FlagSet, debug bool) error {
	if !debug {
		return nil
	}

	f := fs.Lookup("v")
	if f == nil {
		return fmt.Errorf("flag -v is not defined")
	}

	current, err := strconv.Atoi(f.Value.String())
	if err != nil {
		current = 0
	}

	if current >= 1 {
		return nil
	}

	return fs.Set("v", "1")
}
