package model

// Language is a supported submission language.
type Language struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SupportedLanguages lists the languages reviews accept, in display order.
func SupportedLanguages() []Language {
	return []Language{
		{Name: "Python", Value: "python"},
		{Name: "JavaScript", Value: "javascript"},
		{Name: "TypeScript", Value: "typescript"},
		{Name: "Java", Value: "java"},
		{Name: "C++", Value: "cpp"},
		{Name: "C#", Value: "csharp"},
		{Name: "Go", Value: "go"},
		{Name: "Rust", Value: "rust"},
		{Name: "PHP", Value: "php"},
		{Name: "Ruby", Value: "ruby"},
	}
}

// LanguageSupported reports whether value names a supported language.
func LanguageSupported(value string) bool {
	for _, l := range SupportedLanguages() {
		if l.Value == value {
			return true
		}
	}
	return false
}
