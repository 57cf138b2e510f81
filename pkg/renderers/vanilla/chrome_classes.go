package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassPage    ChromeClass = "mc-page"
	ClassForm    ChromeClass = "mc-form"
	ClassSection ChromeClass = "mc-section"
	ClassField   ChromeClass = "mc-field"
	ClassActions ChromeClass = "mc-actions"
	ClassErrors  ChromeClass = "mc-errors"
	ClassNotice  ChromeClass = "mc-notice"
	ClassCard    ChromeClass = "mc-card"
	ClassContact ChromeClass = "mc-contact"
)

func chromeClasses() map[string]string {
	return map[string]string{
		"page":    string(ClassPage),
		"form":    string(ClassForm),
		"section": string(ClassSection),
		"field":   string(ClassField),
		"actions": string(ClassActions),
		"errors":  string(ClassErrors),
		"notice":  string(ClassNotice),
		"card":    string(ClassCard),
		"contact": string(ClassContact),
	}
}
