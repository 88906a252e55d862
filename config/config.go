package config

import (
	"time"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	configutil "github.com/je4/utils/v2/pkg/config"
	"github.com/je4/utils/v2/pkg/stashconfig"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/tags"
)

type InventoryConfig struct {
	Filename      string `toml:"filename"`
	DataDirectory string `toml:"datadirectory"`
}

type DigitalObjectConfig struct {
	RelationshipsDirectory string `toml:"relationshipsdirectory"`
	PDSRelationships       string `toml:"pdsrelationships"`
	MSFTRelationships      string `toml:"msftrelationships"`
	OCRRelationships       string `toml:"ocrrelationships"`
}

type DatasetConfig struct {
	Author             string   `toml:"author"`
	AuthorAffiliation  string   `toml:"authoraffiliation"`
	ContactName        string   `toml:"contactname"`
	ContactAffiliation string   `toml:"contactaffiliation"`
	ContactEmail       string   `toml:"contactemail"`
	Metadata           string   `toml:"metadata"`
	Subject            string   `toml:"subject"`
	URNResolver        string   `toml:"urnresolver"`
	OtherCountries     []string `toml:"othercountries"`
}

type DataverseConfig struct {
	APILogFile       string               `toml:"apilogfile"`
	CollectionURL    string               `toml:"collectionurl"`
	InstallationURL  string               `toml:"installationurl"`
	APIKey           configutil.EnvString `toml:"apikey"`
	LockPollInterval configutil.Duration  `toml:"lockpollinterval"`
	Timeout          configutil.Duration  `toml:"timeout"`
}

type UploadConfig struct {
	Direct                  bool                `toml:"direct"`
	Publish                 bool                `toml:"publish"`
	FileDescription         string              `toml:"filedescription"`
	RelationshipDescription string              `toml:"relationshipdescription"`
	Pause                   configutil.Duration `toml:"pause"`
}

type LedgerConfig struct {
	File string `toml:"file"`
}

type SAEFConfig struct {
	Inventory     *InventoryConfig     `toml:"Inventory"`
	DigitalObject *DigitalObjectConfig `toml:"DigitalObject"`
	Dataset       *DatasetConfig       `toml:"Dataset"`
	Dataverse     *DataverseConfig     `toml:"Dataverse"`
	Formats       *inventory.Formats   `toml:"Formats"`
	Upload        *UploadConfig        `toml:"Upload"`
	Ledger        *LedgerConfig        `toml:"Ledger"`
	Log           stashconfig.Config   `toml:"Log"`
}

const DefaultFileDescription = "File associated with: {{.Title}} Origin of source: {{.URL}}"
const DefaultRelationshipDescription = "Automatically generated {{.Tag}} relationship file for dataset: {{.PID}}. Generated on: {{.Now | date \"2006-01-02 15:04:05\"}}"

func LoadSAEFConfig(data string) (*SAEFConfig, error) {
	var conf = &SAEFConfig{
		Log: stashconfig.Config{
			Level: "ERROR",
		},
		Inventory: &InventoryConfig{},
		DigitalObject: &DigitalObjectConfig{
			RelationshipsDirectory: ".",
			PDSRelationships:       "pds_relationships.csv",
			MSFTRelationships:      "msft_relationships.csv",
			OCRRelationships:       "ocr_relationships.csv",
		},
		Dataset: &DatasetConfig{
			Subject:        "Arts and Humanities",
			URNResolver:    "https://nrs.harvard.edu/",
			OtherCountries: tags.DefaultOtherCountries,
		},
		Dataverse: &DataverseConfig{
			LockPollInterval: configutil.Duration(2 * time.Second),
			Timeout:          configutil.Duration(5 * time.Minute),
		},
		Formats: inventory.DefaultFormats(),
		Upload: &UploadConfig{
			FileDescription:         DefaultFileDescription,
			RelationshipDescription: DefaultRelationshipDescription,
		},
		Ledger: &LedgerConfig{
			File: "saef.sqlite",
		},
	}

	if _, err := toml.Decode(data, conf); err != nil {
		return nil, errors.Wrap(err, "Error on loading config")
	}
	return conf, nil
}

type option struct {
	name, value string
}

func checkOptions(section string, options ...option) error {
	for _, opt := range options {
		if opt.value == "" {
			return errors.Errorf("missing required %s option: %s", section, opt.name)
		}
	}
	return nil
}

// CheckDataset verifies the values needed to build dataset metadata.
func (c *SAEFConfig) CheckDataset() error {
	if err := checkOptions("DigitalObject",
		option{"relationshipsdirectory", c.DigitalObject.RelationshipsDirectory},
		option{"pdsrelationships", c.DigitalObject.PDSRelationships},
		option{"msftrelationships", c.DigitalObject.MSFTRelationships},
		option{"ocrrelationships", c.DigitalObject.OCRRelationships},
	); err != nil {
		return err
	}
	return checkOptions("Dataset",
		option{"author", c.Dataset.Author},
		option{"authoraffiliation", c.Dataset.AuthorAffiliation},
		option{"contactname", c.Dataset.ContactName},
		option{"contactaffiliation", c.Dataset.ContactAffiliation},
		option{"contactemail", c.Dataset.ContactEmail},
		option{"subject", c.Dataset.Subject},
		option{"urnresolver", c.Dataset.URNResolver},
	)
}

// CheckDataverse verifies the values needed to talk to the installation.
func (c *SAEFConfig) CheckDataverse() error {
	if err := checkOptions("Dataverse",
		option{"apilogfile", c.Dataverse.APILogFile},
		option{"collectionurl", c.Dataverse.CollectionURL},
		option{"installationurl", c.Dataverse.InstallationURL},
		option{"apikey", string(c.Dataverse.APIKey)},
	); err != nil {
		return err
	}
	if d := time.Duration(c.Dataverse.LockPollInterval); d <= 0 {
		return errors.Errorf("invalid Dataverse option: lockpollinterval must be positive, got %v", d)
	}
	if d := time.Duration(c.Dataverse.Timeout); d <= 0 {
		return errors.Errorf("invalid Dataverse option: timeout must be positive, got %v", d)
	}
	return nil
}
