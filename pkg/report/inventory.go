package report

import (
	"strconv"
	"strings"

	"github.com/ocfl-archive/gosaef/pkg/dataverse"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"golang.org/x/exp/slices"
)

// records collects rows with arbitrary keys. The columns are the union of
// all keys in first-seen order.
type records struct {
	columns []string
	rows    []map[string]string
}

func (r *records) add(row *record) {
	for _, key := range row.keys {
		if !slices.Contains(r.columns, key) {
			r.columns = append(r.columns, key)
		}
	}
	r.rows = append(r.rows, row.values)
}

func (r *records) table() (*inventory.Table, error) {
	rows := [][]string{}
	for _, values := range r.rows {
		row := make([]string, len(r.columns))
		for i, col := range r.columns {
			row[i] = values[col]
		}
		rows = append(rows, row)
	}
	return inventory.NewTable(r.columns, rows...)
}

type record struct {
	keys   []string
	values map[string]string
}

func newRecord() *record {
	return &record{keys: []string{}, values: map[string]string{}}
}

func (r *record) set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func joined(f *dataverse.MetadataField) string {
	return strings.Join(f.Strings(), ";")
}

// geospatial flattens the geographicCoverage entries to one value per key.
func geospatial(block *dataverse.MetadataBlock, r *record) {
	coverage := block.Field("geographicCoverage")
	if coverage == nil {
		return
	}
	keys := []string{}
	values := map[string][]string{}
	for _, entry := range coverage.Compound() {
		for _, name := range []string{"city", "state", "country", "otherGeographicCoverage"} {
			f, ok := entry[name]
			if !ok {
				continue
			}
			if _, ok := values[name]; !ok {
				keys = append(keys, name)
			}
			values[name] = append(values[name], f.Strings()...)
		}
	}
	for _, key := range keys {
		r.set(key, strings.Join(values[key], ";"))
	}
}

// DatasetInventory has one row per dataset of the collection.
func (c *Collection) DatasetInventory() (*inventory.Table, error) {
	rs := &records{columns: []string{}}
	for _, e := range c.Entries {
		r := newRecord()
		r.set("dataset_doi", e.PID)
		if e.Version != nil {
			r.set("create_time", e.Version.CreateTime)
			r.set("dataset_id", strconv.FormatInt(e.Version.DatasetID, 10))
			r.set("dataset_pid", e.Version.DatasetPersistentID)
		}
		citation := e.block("citation")
		if citation != nil {
			for _, f := range citation.Fields {
				switch f.TypeName {
				case "kindOfData":
					r.set("kind_of_data", joined(f))
				case "originOfSources":
					r.set("origin_of_sources", joined(f))
				case "subject":
					r.set("subject", joined(f))
				}
			}
		}
		if saef := e.block("customSAEF"); saef != nil {
			for _, f := range saef.Fields {
				r.set(f.TypeName, joined(f))
			}
		}
		if geo := e.block("geospatial"); geo != nil {
			geospatial(geo, r)
		}
		files := e.files()
		r.set("numFiles", strconv.Itoa(len(files)))
		if citation != nil {
			if f := citation.Field("title"); f != nil {
				r.set("title", joined(f))
			}
			if f := citation.Field("dsDescription"); f != nil {
				descriptions := []string{}
				for _, d := range f.Compound() {
					if v, ok := d["dsDescriptionValue"]; ok {
						descriptions = append(descriptions, v.Strings()...)
					}
				}
				r.set("dsDescription", strings.Join(descriptions, ";"))
			}
		}
		counts := contentTypeCounts(files)
		for _, ct := range counts.keys {
			r.set(ct, strconv.Itoa(counts.values[ct]))
		}
		rs.add(r)
	}
	return rs.table()
}

type counter struct {
	keys   []string
	values map[string]int
}

func (c *counter) inc(key string, n int) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] += n
}

func contentTypeCounts(files []*dataverse.FileInfo) *counter {
	c := &counter{keys: []string{}, values: map[string]int{}}
	for _, f := range files {
		if f.DataFile == nil {
			continue
		}
		c.inc(f.DataFile.ContentType, 1)
	}
	return c
}

// categories maps "key:value" categories to key columns; plain categories
// like "Data" become a column with the value True.
func categories(cats []string, r *record) {
	keys := []string{}
	values := map[string][]string{}
	for _, cat := range cats {
		key, value, found := strings.Cut(cat, ":")
		if !found {
			value = "True"
		}
		if _, ok := values[key]; !ok {
			keys = append(keys, key)
		}
		values[key] = append(values[key], value)
	}
	for _, key := range keys {
		r.set(key, strings.Join(values[key], ";"))
	}
}

// DatafileInventory has one row per file of all datasets of the collection.
func (c *Collection) DatafileInventory() (*inventory.Table, error) {
	rs := &records{columns: []string{}}
	for _, e := range c.Entries {
		for _, f := range e.files() {
			if f.DataFile == nil {
				continue
			}
			df := f.DataFile
			r := newRecord()
			r.set("dataset_doi", e.PID)
			r.set("filename", df.Filename)
			r.set("description", df.Description)
			r.set("id", strconv.FormatInt(df.ID, 10))
			r.set("originalFileFormat", df.OriginalFileFormat)
			r.set("contentType", df.ContentType)
			r.set("creationDate", df.CreationDate)
			r.set("originalFileName", df.OriginalFileName)
			r.set("filesize", strconv.FormatInt(df.Filesize, 10))
			categories(f.Categories, r)
			rs.add(r)
		}
	}
	return rs.table()
}
