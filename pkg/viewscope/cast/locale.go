package cast

import (
	"strings"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// normalizeLocale turns "en-GB", "en_gb" and "EN_GB" into "en_gb".
func normalizeLocale(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "-", "_"))
}

// LanguageTag parses a locale such as "en_GB" as a BCP 47 tag.
func LanguageTag(locale string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}

func (r *Registry) tag() language.Tag {
	tag, err := LanguageTag(r.locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

var mondayLocales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"en_nz": monday.LocaleEnGB,
	"en_au": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_de": monday.LocaleDeDE,
	"de_at": monday.LocaleDeDE,
	"de_ch": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_fr": monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"es_es": monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"it_it": monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_pt": monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"nl_nl": monday.LocaleNlNL,
	"nl_be": monday.LocaleNlBE,
	"sv":    monday.LocaleSvSE,
	"sv_se": monday.LocaleSvSE,
	"nb":    monday.LocaleNbNO,
	"nb_no": monday.LocaleNbNO,
	"ja":    monday.LocaleJaJP,
	"ja_jp": monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"zh_cn": monday.LocaleZhCN,
	"zh_tw": monday.LocaleZhTW,
}

// mondayLocale maps a locale string to a monday.Locale for date formatting.
func mondayLocale(locale string) monday.Locale {
	locale = normalizeLocale(locale)
	if loc, ok := mondayLocales[locale]; ok {
		return loc
	}
	if lang, _, found := strings.Cut(locale, "_"); found {
		if loc, ok := mondayLocales[lang]; ok {
			return loc
		}
	}
	return monday.LocaleEnUS
}

// dateLayout returns the Go time layout for a style in a locale.
// Styles: "short" (numeric), "medium" (abbreviated month), "long" (full
// month), "full" (with weekday).
func dateLayout(style string, locale monday.Locale) string {
	monthFirst := locale == monday.LocaleEnUS
	yearFirst := false
	switch locale {
	case monday.LocaleJaJP, monday.LocaleZhCN, monday.LocaleZhTW:
		yearFirst = true
	}

	switch style {
	case "short":
		switch {
		case yearFirst:
			return "2006/01/02"
		case monthFirst:
			return "1/2/2006"
		case locale == monday.LocaleDeDE:
			return "02.01.2006"
		}
		return "02/01/2006"
	case "medium":
		switch {
		case yearFirst:
			return "2006年1月2日"
		case monthFirst:
			return "Jan 2, 2006"
		}
		return "2 Jan 2006"
	case "full":
		switch {
		case yearFirst:
			return "2006年1月2日 Monday"
		case monthFirst:
			return "Monday, January 2, 2006"
		}
		return "Monday 2 January 2006"
	}
	switch {
	case yearFirst:
		return "2006年1月2日"
	case monthFirst:
		return "January 2, 2006"
	}
	return "2 January 2006"
}
