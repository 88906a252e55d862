package dataset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"emperror.dev/errors"
	"github.com/gosimple/slug"
	"github.com/ocfl-archive/gosaef/config"
	"github.com/ocfl-archive/gosaef/pkg/digitalobject"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/tags"
)

type Author struct {
	Name        string
	Affiliation string
}

type Contact struct {
	Name        string
	Affiliation string
	Email       string
}

// RelationshipFile is the local file a relationship table is written to.
type RelationshipFile struct {
	Class digitalobject.RelationshipClass
	Path  string
}

// Metadata is everything needed to create the dataset of one object.
type Metadata struct {
	OSN               string
	Title             string
	Description       string
	URN               string
	URL               string
	OriginOfSources   string
	RecordID          string
	Access            string
	Author            Author
	Contact           Contact
	Subject           []string
	ObjectTags        []string
	Tags              *tags.Metadata
	RelationshipFiles []RelationshipFile
}

var safeName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// fileBase returns osn if usable as part of a file name, otherwise its slug.
func fileBase(osn string) string {
	if safeName.MatchString(osn) {
		return osn
	}
	return slug.Make(osn)
}

func required(values ...string) error {
	for i := 0; i < len(values); i += 2 {
		if strings.TrimSpace(values[i+1]) == "" {
			return errors.Errorf("invalid value for key: %s", values[i])
		}
	}
	return nil
}

// New builds the dataset metadata of an initialized object.
func New(obj *digitalobject.SAEFObject, conf *config.SAEFConfig) (*Metadata, error) {
	if obj == nil || !obj.Initialized() {
		return nil, errors.New("digital object not initialized")
	}
	if err := conf.CheckDataset(); err != nil {
		return nil, errors.WithStack(err)
	}
	omd := obj.Metadata()
	t, err := tags.Parse(omd.ObjectTags)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse object tags of %s", omd.OSN)
	}
	url := conf.Dataset.URNResolver + omd.DeliveryURN
	md := &Metadata{
		OSN:             omd.OSN,
		Title:           omd.OSN,
		Description:     omd.Title,
		URN:             omd.DeliveryURN,
		URL:             url,
		OriginOfSources: fmt.Sprintf(`<a href="%s">%s</a>`, url, omd.DeliveryURN),
		RecordID:        strings.Trim(omd.MMSID, "'"),
		Access:          omd.Access,
		Author: Author{
			Name:        conf.Dataset.Author,
			Affiliation: conf.Dataset.AuthorAffiliation,
		},
		Contact: Contact{
			Name:        conf.Dataset.ContactName,
			Affiliation: conf.Dataset.ContactAffiliation,
			Email:       conf.Dataset.ContactEmail,
		},
		Subject:    []string{},
		ObjectTags: []string{},
		Tags:       tags.Process(t, conf.Dataset.OtherCountries),
	}
	for _, s := range strings.Split(conf.Dataset.Subject, ",") {
		if s = strings.TrimSpace(s); s != "" {
			md.Subject = append(md.Subject, s)
		}
	}
	for _, tag := range strings.Split(omd.ObjectTags, ";") {
		if tag = strings.TrimSpace(tag); tag != "" {
			md.ObjectTags = append(md.ObjectTags, tag)
		}
	}
	if err := required(
		"title", md.Title,
		"description", md.Description,
		"urn", md.URN,
		"object_tags", omd.ObjectTags,
		"record_id", md.RecordID,
	); err != nil {
		return nil, errors.Wrapf(err, "object %s", omd.OSN)
	}

	md.RelationshipFiles = RelationshipFiles(omd.OSN, conf.DigitalObject)
	return md, nil
}

// RelationshipFiles are the local relationship tables of object osn,
// <relationshipsdirectory>/<osn>_<class file name>.
func RelationshipFiles(osn string, conf *config.DigitalObjectConfig) []RelationshipFile {
	base := fileBase(osn)
	files := []RelationshipFile{}
	for _, rf := range []struct {
		class digitalobject.RelationshipClass
		name  string
	}{
		{digitalobject.ClassPDS, conf.PDSRelationships},
		{digitalobject.ClassMSFT, conf.MSFTRelationships},
		{digitalobject.ClassOCR, conf.OCRRelationships},
	} {
		files = append(files, RelationshipFile{
			Class: rf.class,
			Path:  filepath.Join(conf.RelationshipsDirectory, base+"_"+rf.name),
		})
	}
	return files
}

// Restricted is true unless the object is public.
func (md *Metadata) Restricted() bool {
	return md.Access != inventory.AccessPublic
}

// DatafileCategories are the categories of every file of the object.
func (md *Metadata) DatafileCategories() []string {
	return append([]string{"Data", "UID:" + md.OSN}, md.ObjectTags...)
}

// RelationshipCategories are the categories of a relationship file.
func (md *Metadata) RelationshipCategories(class digitalobject.RelationshipClass) []string {
	return append([]string{
		"Documentation",
		fmt.Sprintf("SAEF:%s Relationship", class.Tag()),
		"UID:" + md.OSN,
	}, md.ObjectTags...)
}
