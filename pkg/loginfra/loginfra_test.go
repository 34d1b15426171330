package loginfra

import (
	"testing"
)

func TestSetDebug(t *testing.T) {
	fs := AddKlogFlags(NewFlagSet())
	defer fs.Set("v", "0")

	if err := SetDebug(fs, false); err != nil {
		t.Fatal(err)
	}
	if v := fs.Lookup("v").Value.String(); v != "0" {
		t.Errorf("unexpected verbosity: expected=0, got=%s", v)
	}

	if err := SetDebug(fs, true); err != nil {
		t.Fatal(err)
	}
	if v := fs.Lookup("v").Value.String(); v != "1" {
		t.Errorf("unexpected verbosity: expected=1, got=%s", v)
	}

	fs.Set("v", "3")
	if err := SetDebug(fs, true); err != nil {
		t.Fatal(err)
	}
	if v := fs.Lookup("v").Value.String(); v != "3" {
		t.Errorf("expected a higher verbosity to be kept, got=%s", v)
	}
}

func TestParse_IgnoresUnknownFlags(t *testing.T) {
	fs := AddKlogFlags(NewFlagSet())
	defer fs.Set("v", "0")

	Parse(fs, []string{"--reverse", "-v=2", "--move-server-jars=/srv/jars", "-d"})

	if v := fs.Lookup("v").Value.String(); v != "2" {
		t.Errorf("unexpected verbosity: expected=2, got=%s", v)
	}
}
