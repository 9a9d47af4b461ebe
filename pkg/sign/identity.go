package sign

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
)

// identityPattern matches lines from `security find-identity -v -p codesigning` output.
// Format: "  N) <hex hash> "<identity string>""
var identityPattern = regexp.MustCompile(`^\s*\d+\)\s+[0-9A-Fa-f]+\s+"(.+)"`)

// ParseIdentityOutput returns the quoted identity names listed by
// `security find-identity -v -p codesigning`.
func ParseIdentityOutput(output string) []string {
	var identities []string

	for _, line := range strings.Split(output, "\n") {
		if m := identityPattern.FindStringSubmatch(line); len(m) == 2 {
			identities = append(identities, m[1])
		}
	}

	return identities
}

// ValidateIdentity checks that identity is one of available. The error lists
// what is installed so the user can fix mac.developer_id.
func ValidateIdentity(identity string, available []string) error {
	for _, id := range available {
		if id == identity {
			return nil
		}
	}

	if len(available) == 0 {
		return fmt.Errorf(
			"signing identity %q not found in keychain — no valid signing identities are installed\n"+
				"run: security find-identity -v -p codesigning",
			identity,
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "signing identity %q not found in keychain\navailable identities:\n", identity)
	for _, id := range available {
		fmt.Fprintf(&b, "  - %s\n", id)
	}
	b.WriteString("set mac.developer_id to one of the above")

	return fmt.Errorf("%s", b.String())
}

// CheckIdentityInKeychain lists the keychain's code-signing identities and
// validates that identity is present.
func CheckIdentityInKeychain(ctx context.Context, r runner.Runner, identity string) error {
	result, err := r.Run(ctx, "security", "find-identity", "-v", "-p", "codesigning")
	if err != nil {
		return fmt.Errorf("failed to list signing identities: %w", err)
	}

	return ValidateIdentity(identity, ParseIdentityOutput(result.Stdout))
}

// developerIDPrefix is the common name prefix of Developer ID application certificates.
const developerIDPrefix = "Developer ID Application: "

// CertificateName returns the full certificate name codesign and the keychain
// use for a developer id given either as "Team Name (TEAMID)" or already in
// full form.
func CertificateName(developerID string) string {
	if developerID == "" || strings.HasPrefix(developerID, developerIDPrefix) {
		return developerID
	}
	return developerIDPrefix + developerID
}

// SigningKeyUser returns the short form jpackage expects for
// --mac-signing-key-user-name.
func SigningKeyUser(developerID string) string {
	return strings.TrimPrefix(developerID, developerIDPrefix)
}
