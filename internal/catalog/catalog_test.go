package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"twstock-analyst/internal/errors"
	"twstock-analyst/internal/models"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("Expected error for missing catalog")
	}
	if !errors.Is(err, errors.ErrCatalogMissing) {
		t.Errorf("Expected ErrCatalogMissing, got %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeCatalog(t, `{"companies": [`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for malformed catalog")
	}
	if !errors.Is(err, errors.ErrCatalogMalformed) {
		t.Errorf("Expected ErrCatalogMalformed, got %v", err)
	}

	var catErr *errors.CatalogError
	if !errors.As(err, &catErr) {
		t.Fatal("Expected a CatalogError")
	}
	if catErr.Path != path {
		t.Errorf("Expected path %q in error, got %q", path, catErr.Path)
	}
}

func TestLoadAndLookup(t *testing.T) {
	path := writeCatalog(t, `{
		"companies": [
			{"symbol": "2330.TW", "name": "台積電", "aliases": ["tsmc", "台積電"]},
			{"symbol": "2317.TW", "name": "鴻海", "aliases": ["foxconn"]}
		]
	}`)

	dir, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	if dir.Len() != 2 {
		t.Fatalf("Expected 2 records, got %d", dir.Len())
	}

	cases := []struct {
		query  string
		symbol string
	}{
		{"2330.TW", "2330.TW"},
		{"2330.tw", "2330.TW"},
		{"TSMC", "2330.TW"},
		{"  tsmc  ", "2330.TW"},
		{"台積電", "2330.TW"},
		{"foxconn", "2317.TW"},
		{"鴻海", "2317.TW"}, // name always joins the alias set
	}
	for _, tc := range cases {
		rec, ok := dir.Lookup(tc.query)
		if !ok {
			t.Errorf("Lookup(%q) missed", tc.query)
			continue
		}
		if rec.Symbol != tc.symbol {
			t.Errorf("Lookup(%q) = %s, want %s", tc.query, rec.Symbol, tc.symbol)
		}
	}

	if _, ok := dir.Lookup("nonexistent"); ok {
		t.Error("Lookup should miss for unknown query")
	}
	if _, ok := dir.Lookup(""); ok {
		t.Error("Lookup should miss for empty query")
	}
}

func TestLookupSymbolIgnoresAliases(t *testing.T) {
	dir, err := New([]models.CompanyRecord{
		{Symbol: "2330.TW", Name: "台積電", Aliases: []string{"tsmc"}},
	})
	if err != nil {
		t.Fatalf("Failed to build directory: %v", err)
	}

	if _, ok := dir.LookupSymbol("2330.tw"); !ok {
		t.Error("LookupSymbol should match the symbol case-insensitively")
	}
	if _, ok := dir.LookupSymbol("tsmc"); ok {
		t.Error("LookupSymbol must not match aliases")
	}
}

func TestNewRejectsDuplicateSymbols(t *testing.T) {
	_, err := New([]models.CompanyRecord{
		{Symbol: "2330.TW", Name: "台積電"},
		{Symbol: "2330.tw", Name: "duplicate"},
	})
	if err == nil {
		t.Fatal("Expected error for duplicate symbols")
	}
}

func TestNewRejectsOverlappingAliases(t *testing.T) {
	_, err := New([]models.CompanyRecord{
		{Symbol: "2330.TW", Name: "台積電", Aliases: []string{"semi"}},
		{Symbol: "2303.TW", Name: "聯電", Aliases: []string{"SEMI"}},
	})
	if err == nil {
		t.Fatal("Expected error for overlapping aliases")
	}
}

func TestNewRejectsEmptySymbol(t *testing.T) {
	_, err := New([]models.CompanyRecord{{Symbol: "", Name: "nameless"}})
	if err == nil {
		t.Fatal("Expected error for empty symbol")
	}
}

func TestAliasNormalization(t *testing.T) {
	dir, err := New([]models.CompanyRecord{
		{Symbol: "2330.TW", Name: "TSMC", Aliases: []string{" Tsmc ", "TSMC", "台積電"}},
	})
	if err != nil {
		t.Fatalf("Failed to build directory: %v", err)
	}

	rec, _ := dir.LookupSymbol("2330.TW")
	if len(rec.Aliases) != 2 {
		t.Errorf("Expected 2 normalized aliases, got %v", rec.Aliases)
	}
	for _, alias := range rec.Aliases {
		if alias != "tsmc" && alias != "台積電" {
			t.Errorf("Unexpected alias %q after normalization", alias)
		}
	}
}
