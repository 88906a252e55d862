package tags

import (
	"strings"

	"emperror.dev/errors"
	"golang.org/x/exp/slices"
)

const (
	KeyPhysicalFormat = "Physical Format"
	KeyPersonOrg      = "Person/Org"
	KeyTheme          = "Theme"
	KeyGenre          = "Genre"
	KeyCreated        = "Created"
	KeyCity           = "City"
	KeyState          = "State"
	KeyCountry        = "Country"
)

// DefaultOtherCountries are not listed in ISO 3166-1 and go to otherGeographicCoverage.
var DefaultOtherCountries = []string{"Great Britain", "Wales"}

// Tags are the values of an object tag string grouped by key.
type Tags struct {
	keys   []string
	values map[string][]string
}

// Parse reads a tag string like "Created:1864;City:Richmond;State:Virginia".
func Parse(s string) (*Tags, error) {
	t := &Tags{
		keys:   []string{},
		values: map[string][]string{},
	}
	if strings.TrimSpace(s) == "" {
		return t, nil
	}
	for _, component := range strings.Split(s, ";") {
		if strings.TrimSpace(component) == "" {
			continue
		}
		key, value, found := strings.Cut(component, ":")
		if !found {
			return nil, errors.Errorf("invalid tag '%s' in '%s'", component, s)
		}
		t.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return t, nil
}

func (t *Tags) Add(key, value string) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = append(t.values[key], value)
}

// Keys in first-seen order.
func (t *Tags) Keys() []string {
	return slices.Clone(t.keys)
}

func (t *Tags) Get(key string) []string {
	return slices.Clone(t.values[key])
}

func (t *Tags) Len() int {
	return len(t.keys)
}

// Coverage is one geospatial coverage entry. Exactly one field is set.
type Coverage struct {
	City                    string `json:"city,omitempty"`
	State                   string `json:"state,omitempty"`
	Country                 string `json:"country,omitempty"`
	OtherGeographicCoverage string `json:"otherGeographicCoverage,omitempty"`
}

// Metadata is the thematic and geospatial metadata derived from tags.
type Metadata struct {
	KindOfData []string
	PersonOrg  []string
	Theme      []string
	Genre      []string
	Created    []string
	Coverage   []Coverage
}

// Process maps tags to metadata. Countries in otherCountries are not
// reported as country but as other geographic coverage.
func Process(t *Tags, otherCountries []string) *Metadata {
	md := &Metadata{
		KindOfData: t.Get(KeyPhysicalFormat),
		PersonOrg:  t.Get(KeyPersonOrg),
		Theme:      t.Get(KeyTheme),
		Genre:      t.Get(KeyGenre),
		Created:    t.Get(KeyCreated),
		Coverage:   []Coverage{},
	}
	for _, city := range t.Get(KeyCity) {
		md.Coverage = append(md.Coverage, Coverage{City: city})
	}
	for _, state := range t.Get(KeyState) {
		md.Coverage = append(md.Coverage, Coverage{State: state})
	}
	other := []Coverage{}
	for _, country := range t.Get(KeyCountry) {
		if slices.Contains(otherCountries, country) {
			other = append(other, Coverage{OtherGeographicCoverage: country})
			continue
		}
		md.Coverage = append(md.Coverage, Coverage{Country: country})
	}
	md.Coverage = append(md.Coverage, other...)
	return md
}
