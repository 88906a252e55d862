package report

import (
	"fmt"

	"github.com/atsushinee/go-markdown-generator/doc"
	"github.com/dustin/go-humanize"
)

// Summary returns a markdown overview of the collection.
func (c *Collection) Summary() string {
	var numFiles int
	var size uint64
	counts := &counter{keys: []string{}, values: map[string]int{}}
	for _, e := range c.Entries {
		files := e.files()
		numFiles += len(files)
		for _, f := range files {
			if f.DataFile == nil {
				continue
			}
			if f.DataFile.Filesize > 0 {
				size += uint64(f.DataFile.Filesize)
			}
			counts.inc(f.DataFile.ContentType, 1)
		}
	}

	md := doc.NewMarkDown()
	md.WriteTitle(fmt.Sprintf("Collection %s", c.Alias), doc.LevelTitle).
		WriteLines(2)
	md.Write(fmt.Sprintf("* Datasets: %d\n", len(c.Entries)))
	md.Write(fmt.Sprintf("* Files: %d\n", numFiles))
	md.Write(fmt.Sprintf("* Size: %s\n\n", humanize.Bytes(size)))
	md.WriteTitle("Content types", doc.LevelNormal).
		Writeln()
	table := doc.NewTable(len(counts.keys), 2)
	table.SetTitle(0, "Content type")
	table.SetTitle(1, "Files")
	for row, ct := range counts.keys {
		table.SetContent(row, 0, ct)
		table.SetContent(row, 1, humanize.Comma(int64(counts.values[ct])))
	}
	md.WriteTable(table).
		Writeln()
	return md.String()
}
