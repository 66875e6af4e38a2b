package deepgram

import "strings"

type deepgramVoice string

const (
	VoiceThalia    deepgramVoice = "aura-2-thalia-en"
	VoiceAndromeda deepgramVoice = "aura-2-andromeda-en"
	VoiceHelena    deepgramVoice = "aura-2-helena-en"
	VoiceApollo    deepgramVoice = "aura-2-apollo-en"
	VoiceArcas     deepgramVoice = "aura-2-arcas-en"
	VoiceCeleste   deepgramVoice = "aura-2-celeste-es"
	VoiceNestor    deepgramVoice = "aura-2-nestor-es"

	defaultVoice = VoiceThalia
)

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceThalia,
		VoiceAndromeda,
		VoiceHelena,
		VoiceApollo,
		VoiceArcas,
		VoiceCeleste,
		VoiceNestor,
	}
}

// ParseVoice returns the voice named by name and whether it is known.
func ParseVoice(name string) (deepgramVoice, bool) {
	for _, voice := range GetAvailableVoices() {
		if string(voice) == name {
			return voice, true
		}
	}
	return "", false
}

var localeVoices = map[string]deepgramVoice{
	"en": VoiceThalia,
	"es": VoiceCeleste,
}

// voiceForLocale picks a voice speaking the language of locale, falling back
// to the default voice.
func voiceForLocale(locale string) (deepgramVoice, bool) {
	language, _, _ := strings.Cut(strings.ToLower(locale), "-")
	if voice, ok := localeVoices[language]; ok {
		return voice, true
	}
	return defaultVoice, false
}
