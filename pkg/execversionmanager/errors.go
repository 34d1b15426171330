package execversionmanager

import (
	"fmt"
)

// ProvisionError is returned when a toolchain or tool archive could not be downloaded or extracted.
type ProvisionError struct {
	Name string
	Op   string
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning %s: %s: %v", e.Name, e.Op, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// EntryPointNotFoundError means the archive was extracted but its layout is not the expected one.
type EntryPointNotFoundError struct {
	Name       string
	TopLevel   string
	EntryPoint string
}

func (e *EntryPointNotFoundError) Error() string {
	return fmt.Sprintf("provisioning %s: entry point %q not found under top-level directory %q: the archive layout may have changed", e.Name, e.EntryPoint, e.TopLevel)
}
