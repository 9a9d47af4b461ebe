package jpackage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
)

func demoConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := NewConfig(Config{
		Name:         "Demo",
		Version:      "1.0",
		Module:       "demo",
		MainModule:   "demo/demo.Main",
		ModulePath:   []string{"mods"},
		RuntimeImage: "target/runtime",
		Dest:         "target/appdir",
	})
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	return cfg
}

func baseFor(packageType string) []string {
	return []string{
		"--type", packageType,
		"--name", "Demo",
		"--app-version", "1.0",
		"--module", "demo/demo.Main",
		"--module-path", "mods",
		"--dest", "target/appdir",
		"--runtime-image", "target/runtime",
	}
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
		want    []string
	}{
		{
			name:    "app image",
			variant: AppImageVariant(),
			want:    baseFor("app-image"),
		},
		{
			name:    "deb with maintainer and menu group",
			variant: DebVariant(LinuxOptions{Maintainer: "ops@example.com", MenuGroup: "Office"}),
			want: append(baseFor("deb"),
				"--linux-shortcut",
				"--linux-menu-group", "Office",
				"--linux-deb-maintainer", "ops@example.com",
			),
		},
		{
			name:    "rpm ignores maintainer",
			variant: RpmVariant(LinuxOptions{Maintainer: "ops@example.com", MenuGroup: "Office"}),
			want: append(baseFor("rpm"),
				"--linux-shortcut",
				"--linux-menu-group", "Office",
			),
		},
		{
			name:    "rpm minimal",
			variant: RpmVariant(LinuxOptions{}),
			want:    append(baseFor("rpm"), "--linux-shortcut"),
		},
		{
			name:    "windows msi with upgrade uuid",
			variant: WindowsVariant(WindowsOptions{UpgradeUUID: "4f6c0c1e-8f0a-4d5b-9d3e-1a2b3c4d5e6f"}),
			want: append(baseFor("msi"),
				"--win-upgrade-uuid", "4f6c0c1e-8f0a-4d5b-9d3e-1a2b3c4d5e6f",
				"--win-shortcut",
			),
		},
		{
			name:    "windows exe with menu group",
			variant: WindowsVariant(WindowsOptions{InstallerType: "exe", MenuGroup: "Demo Inc"}),
			want: append(baseFor("exe"),
				"--win-menu", "--win-menu-group", "Demo Inc",
				"--win-shortcut",
			),
		},
		{
			name: "mac with identifier, name and signing key",
			variant: MacVariant(MacOptions{
				PackageIdentifier: "com.example.demo",
				PackageName:       "Demo App",
				SigningKeyUser:    "Jane Doe (TEAM123)",
			}),
			want: append(baseFor("dmg"),
				"--mac-package-identifier", "com.example.demo",
				"--mac-package-name", "Demo App",
				"--mac-sign", "--mac-signing-key-user-name", "Jane Doe (TEAM123)",
			),
		},
		{
			name:    "mac minimal",
			variant: MacVariant(MacOptions{}),
			want:    baseFor("dmg"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildArgs(tt.variant, demoConfig(t))

			if len(got) != len(tt.want) {
				t.Fatalf("BuildArgs() returned %d args, want %d\ngot:  %v\nwant: %v", len(got), len(tt.want), got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("arg[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildArgsBasePrefixForEveryVariant(t *testing.T) {
	cfg := demoConfig(t)
	cfg.Icon = "icons/demo.png"
	cfg.ResourceDir = "packaging"
	cfg.ModulePath = []string{"mods", "libs"}

	variants := []Variant{
		WindowsVariant(WindowsOptions{UpgradeUUID: "4f6c0c1e-8f0a-4d5b-9d3e-1a2b3c4d5e6f", MenuGroup: "G"}),
		AppImageVariant(),
		DebVariant(LinuxOptions{Maintainer: "m", MenuGroup: "g"}),
		RpmVariant(LinuxOptions{MenuGroup: "g"}),
		MacVariant(MacOptions{PackageIdentifier: "id", PackageName: "n", SigningKeyUser: "k"}),
	}

	base := baseArgs("X", cfg)
	mandatory := []string{"--type", "--name", "--app-version", "--module", "--module-path", "--dest", "--runtime-image", "--icon", "--resource-dir"}

	for _, v := range variants {
		t.Run(v.Kind.String(), func(t *testing.T) {
			got := BuildArgs(v, cfg)

			if len(got) < len(base) {
				t.Fatalf("BuildArgs() shorter than base args: %v", got)
			}
			for i := 2; i < len(base); i++ {
				if got[i] != base[i] {
					t.Errorf("base arg[%d] = %q, want %q", i, got[i], base[i])
				}
			}
			if got[1] != v.PackageType() {
				t.Errorf("--type = %q, want %q", got[1], v.PackageType())
			}

			for _, flag := range mandatory {
				n := 0
				for _, a := range got {
					if a == flag {
						n++
					}
				}
				if n != 1 {
					t.Errorf("flag %s appears %d times, want 1", flag, n)
				}
			}

			modulePath := strings.Join([]string{"mods", "libs"}, string(os.PathListSeparator))
			if got[9] != modulePath {
				t.Errorf("--module-path value = %q, want %q", got[9], modulePath)
			}
		})
	}
}

func TestNewConfigRequiredFields(t *testing.T) {
	valid := Config{
		Name: "Demo", Version: "1.0", Module: "demo", MainModule: "demo/demo.Main",
		ModulePath: []string{"mods"}, RuntimeImage: "rt", Dest: "out",
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing name", func(c *Config) { c.Name = "" }, "name is required"},
		{"missing version", func(c *Config) { c.Version = "" }, "version is required"},
		{"missing module", func(c *Config) { c.Module = "" }, "module is required"},
		{"missing main module", func(c *Config) { c.MainModule = "" }, "main module is required"},
		{"missing module path", func(c *Config) { c.ModulePath = nil }, "module path requires at least one item"},
		{"name with separator", func(c *Config) { c.Name = "../Demo" }, "must not contain path separators"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			c.ModulePath = append([]string(nil), valid.ModulePath...)
			tt.mutate(&c)

			_, err := NewConfig(c)
			if err == nil {
				t.Fatal("NewConfig() expected error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestNewConfigCopiesModulePath(t *testing.T) {
	paths := []string{"mods"}
	cfg, err := NewConfig(Config{
		Name: "Demo", Version: "1.0", Module: "demo", MainModule: "demo",
		ModulePath: paths, RuntimeImage: "rt", Dest: "out",
	})
	if err != nil {
		t.Fatal(err)
	}

	paths[0] = "changed"
	if cfg.ModulePath[0] != "mods" {
		t.Errorf("ModulePath[0] = %q, config was mutated through the caller's slice", cfg.ModulePath[0])
	}
}

func TestArtifactPaths(t *testing.T) {
	cfg := demoConfig(t)
	if got, want := cfg.AppImageDir(), "target/appdir/Demo"; got != want {
		t.Errorf("AppImageDir() = %q, want %q", got, want)
	}
	if got, want := cfg.ArtifactPath("zip"), "target/appdir/Demo-1.0.zip"; got != want {
		t.Errorf("ArtifactPath(zip) = %q, want %q", got, want)
	}
	if got, want := cfg.ArtifactPath("dmg"), "target/appdir/Demo-1.0.dmg"; got != want {
		t.Errorf("ArtifactPath(dmg) = %q, want %q", got, want)
	}
}

func TestRunReportsFailure(t *testing.T) {
	r := runner.NewMockRunner(func(name string, args []string) (*runner.Result, error) {
		return runner.Fail(1, "Error: Invalid or unsupported type: [dmg]"), nil
	})

	res, err := Run(context.Background(), r, MacVariant(MacOptions{}), demoConfig(t))
	if err == nil {
		t.Fatal("Run() expected error on non-zero exit")
	}
	if res == nil || res.ExitCode != 1 {
		t.Fatalf("Run() result = %+v, want exit code 1", res)
	}
	if !strings.Contains(err.Error(), "jpackage (mac) failed") || !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("error = %v, want step name and stderr", err)
	}
	if len(r.Calls()) != 1 {
		t.Errorf("jpackage invoked %d times, want 1 (no retry)", len(r.Calls()))
	}
}
