package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tu "sysdeck/internal/testutil"
)

func TestLoadFileMissingReturnsDefault(t *testing.T) {
	c, err := LoadFile(filepath.Join(t.TempDir(), "tools.toml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(c.Tools) == 0 {
		t.Fatal("expected built-in default tools")
	}
	if _, ok := c.Find("cfdisk"); !ok {
		t.Fatal("expected default tool 'cfdisk' present")
	}
}

func TestLoadFileNormalizes(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tools.toml")
	data := `
[[tools]]
name = "  htop "
command = "htop"
category = "system"

[[tools]]
name = "htop"
command = "htop"

[[tools]]
name = ""
command = "ignored"

[[tools]]
name = "cfdisk"
command = "cfdisk"
category = "disk"
destructive = true
`
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(c.Tools) != 2 {
		t.Fatalf("tools = %+v, want 2 entries", c.Tools)
	}
	// Sorted by category then name: disk/cfdisk before system/htop.
	if c.Tools[0].Name != "cfdisk" || c.Tools[1].Name != "htop" {
		t.Fatalf("order = %q, %q", c.Tools[0].Name, c.Tools[1].Name)
	}
	if !c.Tools[0].Destructive {
		t.Fatal("cfdisk lost its destructive flag")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("normalized catalog invalid: %v", err)
	}
}

func TestLoadFileMalformedFallsBack(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tools.toml")
	if err := os.WriteFile(p, []byte("[[tools]\nbroken"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(p)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if len(c.Tools) == 0 {
		t.Fatal("fallback catalog empty")
	}
}

func TestLoadUsesConfigDir(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "XDG_CONFIG_HOME", tmp)()

	dir := filepath.Join(tmp, "sysdeck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data := "[[tools]]\nname = \"only\"\ncommand = \"true\"\ncategory = \"system\"\n"
	if err := os.WriteFile(filepath.Join(dir, "tools.toml"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(c.Tools) != 1 || c.Tools[0].Name != "only" {
		t.Fatalf("tools = %+v", c.Tools)
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	c := Catalog{Tools: []Tool{
		{Name: "a", Command: "a"},
		{Name: "a", Command: "a"},
	}}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v, want duplicate error", err)
	}
	if err := (Catalog{}).Validate(); err == nil {
		t.Fatal("empty catalog validated")
	}
	if err := (Catalog{Tools: []Tool{{Name: "x"}}}).Validate(); err == nil {
		t.Fatal("tool without command validated")
	}
}

func TestFilterFuzzy(t *testing.T) {
	c := Default()
	all := c.Filter("")
	if len(all) != len(c.Tools) {
		t.Fatalf("empty query returned %d of %d", len(all), len(c.Tools))
	}
	hits := c.Filter("jrn")
	if len(hits) == 0 || hits[0].Name != "journalctl" {
		t.Fatalf("filter 'jrn' = %+v", hits)
	}
	if got := c.Filter("zzzzqqq"); len(got) != 0 {
		t.Fatalf("nonsense query matched %+v", got)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestSchemaMarshals(t *testing.T) {
	b, err := MarshalSchema(Schema())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "tools") || !strings.Contains(s, "destructive") {
		t.Fatalf("schema missing fields: %s", s)
	}
}
