// Package catalog provides the in-memory company directory and its
// on-disk catalog lifecycle.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"twstock-analyst/internal/errors"
	"twstock-analyst/internal/models"
)

// Directory is an immutable in-memory lookup over company records.
// It is constructed once per invocation and never mutated; a refresh
// rewrites the catalog file wholesale and the caller reloads.
type Directory struct {
	records  []models.CompanyRecord
	bySymbol map[string]int // lowercased symbol -> record index
	byAlias  map[string]int // lowercased alias -> record index
}

// Load reads and validates the catalog file at path.
// A missing file and a malformed file are distinct CatalogError kinds;
// the whole file must parse before any record is usable.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewCatalogError(path, errors.ErrCatalogMissing, err)
		}
		return nil, errors.NewCatalogError(path, errors.ErrCatalogMissing, err)
	}

	var file models.CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.NewCatalogError(path, errors.ErrCatalogMalformed, err)
	}

	dir, err := New(file.Companies)
	if err != nil {
		return nil, errors.NewCatalogError(path, errors.ErrCatalogMalformed, err)
	}
	return dir, nil
}

// New builds a Directory from records, normalizing aliases and rejecting
// catalogs where two records share a symbol or an alias. Overlapping
// aliases are a data-quality defect; refusing them at load time beats
// resolving ties by incidental catalog order.
func New(records []models.CompanyRecord) (*Directory, error) {
	dir := &Directory{
		records:  make([]models.CompanyRecord, len(records)),
		bySymbol: make(map[string]int, len(records)),
		byAlias:  make(map[string]int),
	}

	for i, rec := range records {
		if rec.Symbol == "" {
			return nil, fmt.Errorf("record %d: empty symbol", i)
		}
		rec.NormalizeAliases()
		dir.records[i] = rec

		sym := strings.ToLower(rec.Symbol)
		if prev, ok := dir.bySymbol[sym]; ok {
			return nil, fmt.Errorf("duplicate symbol %q (records %d and %d)", rec.Symbol, prev, i)
		}
		dir.bySymbol[sym] = i

		for _, alias := range rec.Aliases {
			if prev, ok := dir.byAlias[alias]; ok && prev != i {
				return nil, fmt.Errorf("alias %q shared by %q and %q",
					alias, dir.records[prev].Symbol, rec.Symbol)
			}
			dir.byAlias[alias] = i
		}
	}

	return dir, nil
}

// Len returns the number of records in the directory.
func (d *Directory) Len() int {
	return len(d.records)
}

// Records returns the catalog records in file order.
func (d *Directory) Records() []models.CompanyRecord {
	return d.records
}

// Lookup matches query case-insensitively against symbols and aliases.
func (d *Directory) Lookup(query string) (models.CompanyRecord, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models.CompanyRecord{}, false
	}
	if i, ok := d.bySymbol[q]; ok {
		return d.records[i], true
	}
	if i, ok := d.byAlias[q]; ok {
		return d.records[i], true
	}
	return models.CompanyRecord{}, false
}

// LookupSymbol matches query case-insensitively against symbols only.
// Used to re-verify model fallback answers against the full catalog.
func (d *Directory) LookupSymbol(symbol string) (models.CompanyRecord, bool) {
	i, ok := d.bySymbol[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return models.CompanyRecord{}, false
	}
	return d.records[i], true
}
