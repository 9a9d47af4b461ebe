package config

// ExampleConfig returns a configuration with example values for use with `bundlesmith init`
func ExampleConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:        "Demo",
			Module:      "com.example.demo",
			MainModule:  "com.example.demo/com.example.demo.Main",
			Artifact:    "build/libs/demo.jar",
			ModulePath:  []string{"build/modules"},
			Icon:        "packaging/demo.png",
			ResourceDir: "packaging/resources",
		},
		Build: BuildConfig{
			Dir: "target",
		},
		Runtime: RuntimeConfig{
			Modules: []string{"java.base", "java.desktop", "java.logging"},
		},
		Windows: WindowsConfig{
			InstallerType: "msi",
			UpgradeUUID:   "6f2a8d3e-4b1c-4e7a-9c5d-2f8e1a7b3c90",
			MenuGroup:     "Demo",
		},
		Linux: LinuxConfig{
			Format:     "auto",
			Maintainer: "Jane Doe <jane@example.com>",
			MenuGroup:  "Development",
		},
		Mac: MacConfig{
			PackageIdentifier: "com.example.demo",
			PackageName:       "Demo",
			DeveloperID:       "env(MAC_DEVELOPER_ID)",
		},
		Notarize: NotarizeConfig{
			KeychainProfile:  "env(NOTARY_PROFILE|notary)",
			PollInterval:     "30s",
			MaxAttempts:      120,
			VerifyGatekeeper: true,
		},
		Changelog: ChangelogConfig{
			Sort: "asc",
			Filters: ChangelogFiltersConfig{
				Exclude: []string{"^docs:", "^test:", "^chore:"},
			},
			Groups: []ChangelogGroupConfig{
				{Title: "Features", Regexp: "^feat", Order: 0},
				{Title: "Bug Fixes", Regexp: "^fix", Order: 1},
				{Title: "Other", Order: 2},
			},
		},
		Release: ReleaseConfig{
			GitHub: GitHubConfig{
				Owner: "yourname",
				Repo:  "demo",
				Draft: true,
				Token: "env(GITHUB_TOKEN)",
			},
		},
	}
}
