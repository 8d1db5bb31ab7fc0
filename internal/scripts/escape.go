package scripts

import "strings"

var (
	jsxReplacer = strings.NewReplacer(
		"\x00", "",
		`\`, `\\`,
		`"`, `\"`,
		`'`, `\'`,
		"\n", `\n`,
		"\r", `\r`,
	)
	appleScriptReplacer = strings.NewReplacer(
		"\x00", "",
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
)

// JSXString escapes s for use inside a double or single quoted script string literal.
func JSXString(s string) string {
	return jsxReplacer.Replace(s)
}

// AppleScriptString escapes s for use inside a double quoted AppleScript string.
func AppleScriptString(s string) string {
	return appleScriptReplacer.Replace(s)
}

// JSXPath normalizes path separators to forward slashes and escapes the result.
func JSXPath(p string) string {
	return JSXString(strings.ReplaceAll(p, `\`, "/"))
}
