package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_GetTestPath(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name: "default path",
			config: &Config{
				ProjectPath: ".",
				TestPath:    ".",
				Flags:       Flags{},
			},
			expected: ".",
		},
		{
			name: "with test path flag",
			config: &Config{
				ProjectPath: "/project",
				TestPath:    ".",
				Flags: Flags{
					TestPath: "Test/CLITest",
				},
			},
			expected: "/project/Test/CLITest",
		},
		{
			name: "absolute test path",
			config: &Config{
				ProjectPath: "/project",
				TestPath:    ".",
				Flags: Flags{
					TestPath: "/absolute/path",
				},
			},
			expected: "/absolute/path",
		},
		{
			name: "absolute configured test path",
			config: &Config{
				ProjectPath: "/project",
				TestPath:    "/suites",
			},
			expected: "/suites",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.GetTestPath()
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestConfig_GetDatabaseName(t *testing.T) {
	cfg := New()

	t.Run("default database name", func(t *testing.T) {
		name := cfg.GetDatabaseName(1)
		expected := "testing_1"
		if name != expected {
			t.Errorf("expected %s, got %s", expected, name)
		}
	})

	t.Run("custom prefix", func(t *testing.T) {
		cfg := New()
		cfg.Database.Prefix = "scenario"
		for i := 1; i <= 3; i++ {
			if name := cfg.GetDatabaseName(i); name != "scenario_"+string(rune('0'+i)) {
				t.Errorf("unexpected database name for worker %d: %s", i, name)
			}
		}
	})
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.ProjectPath != DefaultProjectPath {
		t.Errorf("expected ProjectPath %s, got %s", DefaultProjectPath, cfg.ProjectPath)
	}

	if cfg.Processors != DefaultProcessors {
		t.Errorf("expected Processors %d, got %d", DefaultProcessors, cfg.Processors)
	}

	if len(cfg.PathsToIgnore) != len(DefaultPathsToIgnore) {
		t.Errorf("expected %d paths to ignore, got %d", len(DefaultPathsToIgnore), len(cfg.PathsToIgnore))
	}

	cfg.Command[0] = "changed"
	if DefaultCommand[0] != "dotnet" {
		t.Error("New must copy the default command")
	}
}

func TestConfig_Apply(t *testing.T) {
	dir := t.TempDir()
	yamlContent := `test_path: Test/CLITest
processors: 8
class_timeout: 30m
include: [Tag.Function]
command: ["./run.sh", "{filter}"]
results:
  mysql: true
database:
  host: db.internal
`
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("STP_BLOB_CONTAINER=nightly\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("STP_BLOB_CONTAINER") })

	t.Run("file, env and flags are layered", func(t *testing.T) {
		cfg := New()
		cfg.ProjectPath = dir
		if err := cfg.Apply(Flags{Processors: 2, Include: []string{"PsTag.Perf"}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.TestPath != "Test/CLITest" {
			t.Errorf("expected test path from file, got %s", cfg.TestPath)
		}
		if cfg.Processors != 2 {
			t.Errorf("flag should override file processors, got %d", cfg.Processors)
		}
		if cfg.ClassTimeout != 30*time.Minute {
			t.Errorf("expected 30m timeout, got %v", cfg.ClassTimeout)
		}
		if len(cfg.Command) != 2 || cfg.Command[0] != "./run.sh" {
			t.Errorf("unexpected command %v", cfg.Command)
		}
		if !cfg.Results.MySQL || cfg.Results.Blob {
			t.Errorf("unexpected results config %+v", cfg.Results)
		}
		if cfg.Database.Host != "db.internal" || cfg.Database.Port != "3306" {
			t.Errorf("unexpected database config %+v", cfg.Database)
		}
		if cfg.Blob.Container != "nightly" {
			t.Errorf("expected container from .env, got %s", cfg.Blob.Container)
		}
		if got := cfg.IncludeCategories(); len(got) != 2 || got[0] != "Tag.Function" || got[1] != "PsTag.Perf" {
			t.Errorf("unexpected include categories %v", got)
		}
	})

	t.Run("missing default file is fine", func(t *testing.T) {
		cfg := New()
		cfg.ProjectPath = t.TempDir()
		if err := cfg.Apply(Flags{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		cfg := New()
		if err := cfg.Apply(Flags{ConfigFile: filepath.Join(dir, "nope.yaml")}); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("malformed file fails", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		os.WriteFile(bad, []byte("processors: [oops"), 0644)
		cfg := New()
		if err := cfg.Apply(Flags{ConfigFile: bad}); err == nil {
			t.Error("expected parse error")
		}
	})
}
