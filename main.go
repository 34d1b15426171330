package main

import (
	"github.com/variantdev/buildmaster/cmd"
)

func main() {
	cmd.Execute()
}
