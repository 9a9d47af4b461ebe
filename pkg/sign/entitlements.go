package sign

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"howett.net/plist"
)

// Entitlements is the key set written into an entitlements property list.
type Entitlements map[string]bool

const (
	AllowJIT                      = "com.apple.security.cs.allow-jit"
	AllowUnsignedExecutableMemory = "com.apple.security.cs.allow-unsigned-executable-memory"
	DisableLibraryValidation      = "com.apple.security.cs.disable-library-validation"
	AllowDyldEnvironmentVariables = "com.apple.security.cs.allow-dyld-environment-variables"
)

// DefaultRuntimeEntitlements lets the runtime's JIT run under the hardened runtime.
var DefaultRuntimeEntitlements = Entitlements{
	AllowJIT:                      true,
	AllowUnsignedExecutableMemory: true,
	DisableLibraryValidation:      true,
	AllowDyldEnvironmentVariables: true,
}

// DefaultLauncherEntitlements are applied to the bundle's launcher.
var DefaultLauncherEntitlements = Entitlements{
	AllowJIT:                      true,
	AllowUnsignedExecutableMemory: true,
	DisableLibraryValidation:      true,
}

// Keys returns the entitlement keys in sorted order.
func (e Entitlements) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Write encodes e as an XML property list at path.
func (e Entitlements) Write(path string) error {
	data, err := plist.MarshalIndent(map[string]bool(e), plist.XMLFormat, "\t")
	if err != nil {
		return fmt.Errorf("failed to encode entitlements: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write entitlements %s: %w", path, err)
	}
	return nil
}

// ReadEntitlements decodes the property list at path. Any plist encoding is accepted.
func ReadEntitlements(path string) (Entitlements, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entitlements %s: %w", path, err)
	}

	var e Entitlements
	if _, err := plist.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("entitlements %s is not a valid property list of boolean keys: %w", path, err)
	}
	return e, nil
}

// DefaultEntitlementFiles holds the default entitlements written to a
// temporary directory for the lifetime of a run.
type DefaultEntitlementFiles struct {
	Dir      string
	Runtime  string
	Launcher string
}

// WriteDefaultEntitlements writes both default entitlement files into a new
// temporary directory. Callers must call Cleanup.
func WriteDefaultEntitlements() (*DefaultEntitlementFiles, error) {
	dir, err := os.MkdirTemp("", "bundlesmith-entitlements-")
	if err != nil {
		return nil, fmt.Errorf("failed to create entitlements directory: %w", err)
	}

	files := &DefaultEntitlementFiles{
		Dir:      dir,
		Runtime:  filepath.Join(dir, "runtime.entitlements"),
		Launcher: filepath.Join(dir, "launcher.entitlements"),
	}
	if err := DefaultRuntimeEntitlements.Write(files.Runtime); err != nil {
		_ = files.Cleanup()
		return nil, err
	}
	if err := DefaultLauncherEntitlements.Write(files.Launcher); err != nil {
		_ = files.Cleanup()
		return nil, err
	}
	return files, nil
}

// Cleanup removes the temporary directory.
func (f *DefaultEntitlementFiles) Cleanup() error {
	if f == nil || f.Dir == "" {
		return nil
	}
	return os.RemoveAll(f.Dir)
}
