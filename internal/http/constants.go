package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
// These constants ensure consistency across UI handlers and template mapping.
const (
	// Main navigation pages.
	PageHome     = "home"
	PageArticles = "articles"

	// Article detail and form pages.
	PageArticleView = "article-view"
	PageArticleForm = "article-form"

	// Auth pages.
	PageLogin = "login"
)

// Template paths used for loading templates in tests and production.
const (
	// Template directory paths.
	TemplatePathFromRoot = "templates"       // From project root
	TemplatePathFromTest = "../../templates" // From internal/http test files
)

// FormMode represents the mode of a form (create or edit).
// Using a dedicated type improves compile-time checks and prevents typos.
type FormMode string

const (
	// FormModeEdit indicates the form is in edit mode.
	FormModeEdit FormMode = "edit"
	// FormModeCreate indicates the form is in create mode.
	FormModeCreate FormMode = "create"
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageHome:        "articles-content",
	PageArticles:    "articles-content",
	PageArticleView: "article-view-content",
	PageArticleForm: "article-form-content",
	PageLogin:       "login-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to articles-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "articles-content"
}
