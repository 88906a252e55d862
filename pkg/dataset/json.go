package dataset

import (
	"encoding/json"

	"emperror.dev/errors"
	"github.com/ocfl-archive/gosaef/pkg/tags"
)

const (
	TypeClassPrimitive  = "primitive"
	TypeClassCompound   = "compound"
	TypeClassVocabulary = "controlledVocabulary"
)

// Field is one metadata field of a Dataverse metadata block.
type Field struct {
	TypeName  string `json:"typeName"`
	Multiple  bool   `json:"multiple"`
	TypeClass string `json:"typeClass"`
	Value     any    `json:"value"`
}

type Block struct {
	DisplayName string   `json:"displayName,omitempty"`
	Name        string   `json:"name,omitempty"`
	Fields      []*Field `json:"fields"`
}

type DatasetVersion struct {
	MetadataBlocks map[string]*Block `json:"metadataBlocks"`
}

// Dataset is the document posted to create a dataset.
type Dataset struct {
	DatasetVersion *DatasetVersion `json:"datasetVersion"`
}

func primitive(name string, value string) *Field {
	return &Field{TypeName: name, Multiple: false, TypeClass: TypeClassPrimitive, Value: value}
}

func primitives(name string, values []string) *Field {
	return &Field{TypeName: name, Multiple: true, TypeClass: TypeClassPrimitive, Value: values}
}

func vocabulary(name string, multiple bool, value any) *Field {
	return &Field{TypeName: name, Multiple: multiple, TypeClass: TypeClassVocabulary, Value: value}
}

func compound(name string, values ...map[string]*Field) *Field {
	return &Field{TypeName: name, Multiple: true, TypeClass: TypeClassCompound, Value: values}
}

func coverageValue(c tags.Coverage) map[string]*Field {
	switch {
	case c.City != "":
		return map[string]*Field{"city": primitive("city", c.City)}
	case c.State != "":
		return map[string]*Field{"state": primitive("state", c.State)}
	case c.Country != "":
		return map[string]*Field{"country": vocabulary("country", false, c.Country)}
	default:
		return map[string]*Field{"otherGeographicCoverage": primitive("otherGeographicCoverage", c.OtherGeographicCoverage)}
	}
}

// Dataset builds the create dataset document with citation and geospatial blocks.
func (md *Metadata) Dataset() *Dataset {
	citation := &Block{
		DisplayName: "Citation Metadata",
		Fields: []*Field{
			primitive("title", md.Title),
			compound("author", map[string]*Field{
				"authorName":        primitive("authorName", md.Author.Name),
				"authorAffiliation": primitive("authorAffiliation", md.Author.Affiliation),
			}),
			compound("datasetContact", map[string]*Field{
				"datasetContactName":        primitive("datasetContactName", md.Contact.Name),
				"datasetContactAffiliation": primitive("datasetContactAffiliation", md.Contact.Affiliation),
				"datasetContactEmail":       primitive("datasetContactEmail", md.Contact.Email),
			}),
			compound("dsDescription", map[string]*Field{
				"dsDescriptionValue": primitive("dsDescriptionValue", md.Description),
			}),
			vocabulary("subject", true, md.Subject),
			primitive("originOfSources", md.OriginOfSources),
		},
	}
	if len(md.Tags.KindOfData) > 0 {
		citation.Fields = append(citation.Fields, primitives("kindOfData", md.Tags.KindOfData))
	}
	ds := &Dataset{
		DatasetVersion: &DatasetVersion{
			MetadataBlocks: map[string]*Block{"citation": citation},
		},
	}
	if len(md.Tags.Coverage) > 0 {
		values := []map[string]*Field{}
		for _, c := range md.Tags.Coverage {
			values = append(values, coverageValue(c))
		}
		ds.DatasetVersion.MetadataBlocks["geospatial"] = &Block{
			DisplayName: "Geospatial Metadata",
			Fields:      []*Field{compound("geographicCoverage", values...)},
		}
	}
	return ds
}

// SAEFBlock is the custom metadata block. Fields without values are left out.
func (md *Metadata) SAEFBlock() *Block {
	block := &Block{
		DisplayName: "SAEF Metadata",
		Name:        "customSAEF",
		Fields:      []*Field{primitive("saefRecordID", md.RecordID)},
	}
	for _, f := range []struct {
		name   string
		values []string
	}{
		{"saefCreated", md.Tags.Created},
		{"saefTheme", md.Tags.Theme},
		{"saefPersonOrgTags", md.Tags.PersonOrg},
		{"saefGenre", md.Tags.Genre},
	} {
		if len(f.values) > 0 {
			block.Fields = append(block.Fields, primitives(f.name, f.values))
		}
	}
	return block
}

// DatasetJSON returns the validated create dataset document.
func (md *Metadata) DatasetJSON() ([]byte, error) {
	data, err := json.Marshal(md.Dataset())
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal dataset")
	}
	if err := Validate(data); err != nil {
		return nil, errors.Wrapf(err, "invalid dataset metadata for %s", md.OSN)
	}
	return data, nil
}

func (md *Metadata) SAEFBlockJSON() ([]byte, error) {
	data, err := json.Marshal(md.SAEFBlock())
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal saef metadata block")
	}
	return data, nil
}
