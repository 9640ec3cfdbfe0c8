package types

import "strings"

type Language string

const (
	LangKorean  Language = "ko"
	LangEnglish Language = "en"

	DefaultLanguage = LangKorean
)

// ParseLanguage accepts a language tag case-insensitively.
// Empty or unknown input returns DefaultLanguage and false.
func ParseLanguage(s string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LangKorean:
		return LangKorean, true
	case LangEnglish:
		return LangEnglish, true
	default:
		return DefaultLanguage, false
	}
}

func (l Language) String() string {
	return string(l)
}
