package models

import "github.com/desertthunder/tcgtrack/internal/shared"

// Language codes accepted by the backend for a card instance.
const (
	LanguageEnglish    = "EN"
	LanguageSpanish    = "ES"
	LanguageFrench     = "FR"
	LanguageGerman     = "DE"
	LanguageItalian    = "IT"
	LanguageJapanese   = "JP"
	LanguageKorean     = "KR"
	LanguagePortuguese = "PT"
	LanguageChinese    = "CH"
)

// DefaultLanguage is used when an add request leaves the language blank.
const DefaultLanguage = LanguageEnglish

// Languages lists the language codes in display order.
var Languages = []string{
	LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageGerman, LanguageItalian,
	LanguageJapanese, LanguageKorean, LanguagePortuguese, LanguageChinese,
}

var languageLabels = map[string]string{
	LanguageEnglish:    "English",
	LanguageSpanish:    "Spanish",
	LanguageFrench:     "French",
	LanguageGerman:     "German",
	LanguageItalian:    "Italian",
	LanguageJapanese:   "Japanese",
	LanguageKorean:     "Korean",
	LanguagePortuguese: "Portuguese",
	LanguageChinese:    "Chinese",
}

// Condition codes. A blank condition means "not stated".
const (
	ConditionMint          = "M"
	ConditionNearMint      = "NM"
	ConditionLightlyPlayed = "LP"
	ConditionModerately    = "MP"
	ConditionHeavilyPlayed = "HP"
	ConditionDamaged       = "D"
	ConditionDamagedLong   = "DMG"
	ConditionVeryGood      = "VG"
)

// Conditions lists the condition codes offered when adding a card.
var Conditions = []string{
	ConditionNearMint, ConditionLightlyPlayed, ConditionModerately,
	ConditionHeavilyPlayed, ConditionDamagedLong, ConditionVeryGood,
}

var conditionLabels = map[string]string{
	ConditionMint:          "Mint (M)",
	ConditionNearMint:      "Near Mint (NM)",
	ConditionLightlyPlayed: "Lightly Played (LP)",
	ConditionModerately:    "Moderately Played (MP)",
	ConditionHeavilyPlayed: "Heavily Played (HP)",
	ConditionDamaged:       "Damaged (D)",
	ConditionDamagedLong:   "Damaged (DMG)",
	ConditionVeryGood:      "Very Good (VG)",
}

// LanguageLabel returns the display name for a language code, or the code itself when unknown.
func LanguageLabel(code string) string {
	if label, ok := languageLabels[shared.NormalizeCode(code)]; ok {
		return label
	}
	return code
}

// ConditionLabel returns the display name for a condition code, or the code itself when unknown.
func ConditionLabel(code string) string {
	if code == "" {
		return "Not stated"
	}
	if label, ok := conditionLabels[shared.NormalizeCode(code)]; ok {
		return label
	}
	return code
}

// IsLanguage reports whether code is a known language code.
func IsLanguage(code string) bool {
	_, ok := languageLabels[shared.NormalizeCode(code)]
	return ok
}

// IsCondition reports whether code is blank or a known condition code.
func IsCondition(code string) bool {
	code = shared.NormalizeCode(code)
	if code == "" {
		return true
	}
	_, ok := conditionLabels[code]
	return ok
}
