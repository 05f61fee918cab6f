package normalize

import "regexp"

var (
	exportDecl = regexp.MustCompile(
		`(?m)^([ \t]*)export[ \t]+(?:default[ \t]+)?` +
			`((?:async[ \t]+)?function\b|const\b|let\b|var\b|class\b)`,
	)
	exportList = regexp.MustCompile(
		`(?m)^[ \t]*export[ \t]*\{[^}]*\}[ \t]*;?[ \t]*$`,
	)
	exportDefaultName = regexp.MustCompile(
		`(?m)^[ \t]*export[ \t]+default[ \t]+[A-Za-z_$][\w$]*[ \t]*;?[ \t]*$`,
	)
)

// stripModuleSyntax removes export modifiers so module-style
// snippets evaluate as scripts. Text without exports is returned
// unchanged.
func stripModuleSyntax(text string) string {
	text = exportDecl.ReplaceAllString(text, "$1$2")
	text = exportList.ReplaceAllString(text, "")
	return exportDefaultName.ReplaceAllString(text, "")
}
