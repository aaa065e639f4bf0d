package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bigredeye/schoolbook/internal/models"
)

func TestDefaults(t *testing.T) {
	t.Setenv("DEFAULT_URL", "")
	t.Setenv("CLASS_KEY", "")

	config, err := ParseConfig("")
	if err != nil {
		t.Fatal("Failed to parse config:", err)
	}

	if config.APIRoot() != "http://94.131.246.109:5555/v1/2" {
		t.Fatalf("Unexpected api root: %s", config.APIRoot())
	}
	if config.School.Locale != "en-US" {
		t.Fatalf("Unexpected locale: %s", config.School.Locale)
	}
	if config.Cache.StaleTime != 5*time.Minute {
		t.Fatalf("Unexpected stale time: %v", config.Cache.StaleTime)
	}
	if config.Table.RowsPerPage != 5 {
		t.Fatalf("Unexpected rows per page: %d", config.Table.RowsPerPage)
	}
	if diff := cmp.Diff([]int{5, 10, 25}, config.Table.RowsPerPageOptions); diff != "" {
		t.Fatalf("Unexpected rows per page options (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(models.Placeholders{FirstName: "John", SecondName: "Doe"}, config.Placeholders); diff != "" {
		t.Fatalf("Unexpected placeholders (-want +got):\n%s", diff)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DEFAULT_URL", "http://legacy:1234")
	t.Setenv("CLASS_KEY", "7")
	t.Setenv("SCHOOLBOOK_CACHE_STALETIME", "30s")
	t.Setenv("SCHOOLBOOK_SCHOOL_APIVERSION", "v2")

	config, err := ParseConfig("")
	if err != nil {
		t.Fatal("Failed to parse config:", err)
	}

	if config.APIRoot() != "http://legacy:1234/v2/7" {
		t.Fatalf("Unexpected api root: %s", config.APIRoot())
	}
	if config.Cache.StaleTime != 30*time.Second {
		t.Fatalf("Unexpected stale time: %v", config.Cache.StaleTime)
	}
}

func TestConfigFile(t *testing.T) {
	t.Setenv("DEFAULT_URL", "")
	t.Setenv("CLASS_KEY", "")

	path := filepath.Join(t.TempDir(), "schoolbook.yaml")
	body := `
school:
  baseurl: http://school.local/
  classkey: "42"
table:
  rowsperpage: 10
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := ParseConfig(path)
	if err != nil {
		t.Fatal("Failed to parse config:", err)
	}

	if config.APIRoot() != "http://school.local/v1/42" {
		t.Fatalf("Unexpected api root: %s", config.APIRoot())
	}
	if config.Table.RowsPerPage != 10 {
		t.Fatalf("Unexpected rows per page: %d", config.Table.RowsPerPage)
	}
}
