// Package normalize turns the raw, multi-language records of the local
// databases into display strings: localized names, region lists and carrier
// labels.
package normalize

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguages is the order in which localized names are picked.
var DefaultLanguages = []string{"zh-CN", "en"}

// DefaultSpecialRegions are country names displayed with the region
// qualifier in front of them.
var DefaultSpecialRegions = []string{"香港", "澳门", "台湾"}

const DefaultRegionQualifier = "中国"

// PickName returns the name of the first language of langs present in
// names, falling back to English.
func PickName(names map[string]string, langs []string) string {
	for _, l := range langs {
		if v, ok := names[l]; ok {
			return v
		}
	}

	return names["en"]
}

// Dedup drops empty entries and repeated entries, keeping the first
// occurrence of each.
func Dedup(list []string) []string {
	ret := make([]string, 0, len(list))
	for _, v := range list {
		if v == "" || slices.Contains(ret, v) {
			continue
		}
		ret = append(ret, v)
	}

	return ret
}

// BuildRegions builds the ordered region list of an address from its
// subdivision names, its city name and its country name. The city is left
// out when it repeats the last subdivision or the country.
func BuildRegions(subdivisions []string, city, country string) []string {
	regions := slices.Clone(subdivisions)

	if city != "" {
		last := ""
		if len(regions) > 0 {
			last = regions[len(regions)-1]
		}

		if (len(regions) == 0 || !strings.Contains(last, city)) && !strings.Contains(country, city) {
			regions = append(regions, city)
		}
	}

	return Dedup(regions)
}

// ProvinceCity splits a region list into its province (first entry) and city
// (last entry, only when there is more than one).
func ProvinceCity(regions []string) (province, city string) {
	if len(regions) == 0 {
		return "", ""
	}

	province = regions[0]
	if len(regions) > 1 {
		city = regions[len(regions)-1]
	}

	return province, city
}

// CanonicalLanguage normalizes a language hint like "zh-cn" to the form used
// as keys in mmdb name maps ("zh-CN"). It returns false for an unparsable
// hint.
func CanonicalLanguage(hint string) (string, bool) {
	if hint == "" {
		return "", false
	}

	tag, err := language.Parse(hint)
	if err != nil {
		return "", false
	}

	return tag.String(), true
}

// Localizer picks display names in a configured language order.
type Localizer struct {
	Languages      []string
	SpecialRegions []string
	Qualifier      string
}

func NewLocalizer(langs, specialRegions []string, qualifier string) *Localizer {
	if len(langs) == 0 {
		langs = DefaultLanguages
	}

	return &Localizer{
		Languages:      langs,
		SpecialRegions: specialRegions,
		Qualifier:      qualifier,
	}
}

// WithLanguage returns a localizer preferring the hinted language over the
// configured ones. An empty or invalid hint returns l unchanged.
func (l *Localizer) WithLanguage(hint string) *Localizer {
	lang, ok := CanonicalLanguage(hint)
	if !ok || (len(l.Languages) > 0 && l.Languages[0] == lang) {
		return l
	}

	langs := make([]string, 0, len(l.Languages)+1)
	langs = append(langs, lang)
	for _, v := range l.Languages {
		if v != lang {
			langs = append(langs, v)
		}
	}

	return &Localizer{
		Languages:      langs,
		SpecialRegions: l.SpecialRegions,
		Qualifier:      l.Qualifier,
	}
}

func (l *Localizer) Name(names map[string]string) string {
	return PickName(names, l.Languages)
}

// CountryName is Name with the region qualifier applied to special regions.
func (l *Localizer) CountryName(names map[string]string) string {
	name := l.Name(names)
	if name != "" && slices.Contains(l.SpecialRegions, name) {
		return l.Qualifier + name
	}

	return name
}
