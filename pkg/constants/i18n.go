package constants

// DefaultLocale is used when a request names no language or an unknown one
const DefaultLocale = "en"

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"ja": "Japanese",
	"hi": "Hindi",
	"bn": "Bengali",
}

var messageRequired = map[string]string{
	"en": "Message is required",
	"es": "El mensaje es requerido",
	"fr": "Le message est requis",
	"de": "Nachricht ist erforderlich",
	"ja": "メッセージが必要です",
	"hi": "संदेश आवश्यक है",
	"bn": "বার্তা প্রয়োজন",
}

// LanguageName returns the English name of a locale, falling back to English
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return languageNames[DefaultLocale]
}

// MessageRequired returns the localized "message is required" error text
func MessageRequired(code string) string {
	if msg, ok := messageRequired[code]; ok {
		return msg
	}
	return messageRequired[DefaultLocale]
}
