package dataset

import (
	"bytes"
	"text/template"
	"time"

	"emperror.dev/errors"
	"github.com/Masterminds/sprig/v3"
	"github.com/ocfl-archive/gosaef/pkg/digitalobject"
)

// DescriptionData is passed to the file and relationship description templates.
type DescriptionData struct {
	OSN   string
	Title string
	URN   string
	URL   string
	PID   string
	Tag   string
	Class string
	Now   time.Time
}

// Describer renders file descriptions from text templates with sprig functions.
type Describer struct {
	file         *template.Template
	relationship *template.Template
}

func NewDescriber(fileTemplate, relationshipTemplate string) (*Describer, error) {
	file, err := template.New("file").Funcs(sprig.TxtFuncMap()).Parse(fileTemplate)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse file description template '%s'", fileTemplate)
	}
	rel, err := template.New("relationship").Funcs(sprig.TxtFuncMap()).Parse(relationshipTemplate)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse relationship description template '%s'", relationshipTemplate)
	}
	return &Describer{file: file, relationship: rel}, nil
}

func render(tpl *template.Template, data *DescriptionData) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := tpl.Execute(buf, data); err != nil {
		return "", errors.Wrapf(err, "cannot execute template %s", tpl.Name())
	}
	return buf.String(), nil
}

func (md *Metadata) descriptionData(pid string, now time.Time) *DescriptionData {
	return &DescriptionData{
		OSN:   md.OSN,
		Title: md.Description,
		URN:   md.URN,
		URL:   md.URL,
		PID:   pid,
		Now:   now,
	}
}

// FileDescription describes a data file of the object.
func (d *Describer) FileDescription(md *Metadata, pid string) (string, error) {
	return render(d.file, md.descriptionData(pid, time.Now()))
}

// RelationshipDescription describes the relationship file of class.
func (d *Describer) RelationshipDescription(md *Metadata, pid string, class digitalobject.RelationshipClass, now time.Time) (string, error) {
	data := md.descriptionData(pid, now)
	data.Tag = class.Tag()
	data.Class = string(class)
	return render(d.relationship, data)
}
