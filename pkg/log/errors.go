package log

// ErrorCategory classifies why a step failed. It is reported by the fatal and sentry hooks.
type ErrorCategory string

const (
	ErrorUndefined      ErrorCategory = "undefined"
	ErrorBuild          ErrorCategory = "build"
	ErrorConfiguration  ErrorCategory = "configuration"
	ErrorInfrastructure ErrorCategory = "infrastructure"
	ErrorService        ErrorCategory = "service"
)

var errorCategory = ErrorUndefined

var knownCategories = map[string]ErrorCategory{
	string(ErrorBuild):          ErrorBuild,
	string(ErrorConfiguration):  ErrorConfiguration,
	string(ErrorInfrastructure): ErrorInfrastructure,
	string(ErrorService):        ErrorService,
}

func (e ErrorCategory) String() string {
	return string(e)
}

// SetErrorCategory records the category of the current failure.
func SetErrorCategory(category ErrorCategory) {
	errorCategory = category
}

// GetErrorCategory retrieves the error category which is currently known to the execution of a step
func GetErrorCategory() ErrorCategory {
	return errorCategory
}

// ErrorCategoryByString maps a category name, e.g. from a tool's output, to its ErrorCategory.
func ErrorCategoryByString(category string) ErrorCategory {
	if c, ok := knownCategories[category]; ok {
		return c
	}
	return ErrorUndefined
}
