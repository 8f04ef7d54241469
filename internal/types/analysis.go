package types

// AnalysisType selects the system prompt used for a debug request.
type AnalysisType string

const (
	TypeAnalyze    AnalysisType = "analyze"
	TypeLogs       AnalysisType = "logs"
	TypeStacktrace AnalysisType = "stacktrace"
	TypeReview     AnalysisType = "review"
)

// AnalysisTypes returns the accepted analysis types in display order.
func AnalysisTypes() []AnalysisType {
	return []AnalysisType{TypeAnalyze, TypeLogs, TypeStacktrace, TypeReview}
}

func ParseAnalysisType(s string) (AnalysisType, bool) {
	switch AnalysisType(s) {
	case TypeAnalyze, TypeLogs, TypeStacktrace, TypeReview:
		return AnalysisType(s), true
	default:
		return "", false
	}
}

// Language is the optional source language hint sent alongside the content.
type Language string

const (
	LangJavaScript Language = "JavaScript"
	LangTypeScript Language = "TypeScript"
	LangPython     Language = "Python"
	LangJava       Language = "Java"
	LangCPP        Language = "C++"
	LangCSharp     Language = "C#"
	LangGo         Language = "Go"
	LangRust       Language = "Rust"
	LangPHP        Language = "PHP"
	LangRuby       Language = "Ruby"
	LangSwift      Language = "Swift"
	LangKotlin     Language = "Kotlin"
	LangSQL        Language = "SQL"
	LangHTMLCSS    Language = "HTML/CSS"
	LangShell      Language = "Shell/Bash"
	LangOther      Language = "Other"
)

// Languages returns every accepted language hint.
func Languages() []Language {
	return []Language{
		LangJavaScript, LangTypeScript, LangPython, LangJava, LangCPP, LangCSharp,
		LangGo, LangRust, LangPHP, LangRuby, LangSwift, LangKotlin, LangSQL,
		LangHTMLCSS, LangShell, LangOther,
	}
}

// ParseLanguage matches s exactly (case-sensitive) against the accepted languages.
func ParseLanguage(s string) (Language, bool) {
	for _, l := range Languages() {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}
