package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"twstock-analyst/internal/models"
)

func TestMergePreservesAliases(t *testing.T) {
	old := &models.CatalogFile{
		Companies: []models.CompanyRecord{
			{Symbol: "2330.TW", Name: "舊名稱", Aliases: []string{"tsmc", "舊名稱"}},
			{Symbol: "9999.TW", Name: "下市公司", Aliases: []string{"delisted"}},
		},
	}
	roster := map[string]string{
		"2330.TW": "台積電",
		"2317.TW": "鴻海",
	}

	merged := Merge(old, roster)
	if len(merged.Companies) != 2 {
		t.Fatalf("Expected 2 companies, got %d", len(merged.Companies))
	}

	// Output is sorted by symbol.
	if merged.Companies[0].Symbol != "2317.TW" || merged.Companies[1].Symbol != "2330.TW" {
		t.Fatalf("Companies not sorted by symbol: %+v", merged.Companies)
	}

	tsmc := merged.Companies[1]
	if tsmc.Name != "台積電" {
		t.Errorf("Fresh roster name should win, got %q", tsmc.Name)
	}
	wantAliases := map[string]bool{"tsmc": true, "舊名稱": true, "台積電": true}
	if len(tsmc.Aliases) != len(wantAliases) {
		t.Fatalf("Expected aliases %v, got %v", wantAliases, tsmc.Aliases)
	}
	for _, alias := range tsmc.Aliases {
		if !wantAliases[alias] {
			t.Errorf("Unexpected alias %q", alias)
		}
	}
}

func TestMergeWithoutOldCatalog(t *testing.T) {
	merged := Merge(nil, map[string]string{"2330.TW": "台積電"})
	if len(merged.Companies) != 1 {
		t.Fatalf("Expected 1 company, got %d", len(merged.Companies))
	}
	rec := merged.Companies[0]
	if len(rec.Aliases) != 1 || rec.Aliases[0] != "台積電" {
		t.Errorf("Expected the name as the only alias, got %v", rec.Aliases)
	}
}

func TestRefreshWritesCatalog(t *testing.T) {
	twse := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{"公司代號": "2330", "公司簡稱": "台積電"},
			{"公司代號": "", "公司簡稱": "ignored"},
		})
	}))
	defer twse.Close()

	tpex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{"SecuritiesCompanyCode": "5274", "CompanyAbbreviation": "信驊"},
		})
	}))
	defer tpex.Close()

	path := filepath.Join(t.TempDir(), "companies.json")
	refresher := NewRefresher(zerolog.Nop(), WithEndpoints(twse.URL, tpex.URL))

	count, err := refresher.Refresh(context.Background(), path)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 companies, got %d", count)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Catalog file not written: %v", err)
	}
	var file models.CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("Catalog file not valid JSON: %v", err)
	}

	symbols := map[string]string{}
	for _, rec := range file.Companies {
		symbols[rec.Symbol] = rec.Name
	}
	if symbols["2330.TW"] != "台積電" {
		t.Errorf("Listed company missing .TW suffix: %v", symbols)
	}
	if symbols["5274.TWO"] != "信驊" {
		t.Errorf("OTC company missing .TWO suffix: %v", symbols)
	}

	// The resulting file must load as a valid directory.
	if _, err := Load(path); err != nil {
		t.Errorf("Refreshed catalog does not load: %v", err)
	}
}

func TestRefreshFailsWhenRosterEmpty(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer empty.Close()

	path := filepath.Join(t.TempDir(), "companies.json")
	refresher := NewRefresher(zerolog.Nop(), WithEndpoints(empty.URL, empty.URL))

	if _, err := refresher.Refresh(context.Background(), path); err == nil {
		t.Fatal("Expected error for empty rosters")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Catalog file must not be written on failure")
	}
}
