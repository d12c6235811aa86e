package chi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// pageParam binds the required 1-based "page" query parameter.
func pageParam(q url.Values) (int, error) {
	if !q.Has("page") {
		return 0, newParamError(codeMissingPageNumber, "Page number is required")
	}
	var page int
	if err := runtime.BindQueryParameter("form", true, true, "page", q, &page); err != nil {
		return 0, newParamError(codeWrongFormatPageNumber, "Page number must be an integer")
	}
	return page, nil
}

// resultsIDParam binds the "id" query parameter. required controls whether
// an absent or blank id is an error.
func resultsIDParam(q url.Values, required bool) (string, error) {
	var id string
	if q.Has("id") {
		if err := runtime.BindQueryParameter("form", true, false, "id", q, &id); err != nil {
			return "", newParamError(codeMissingResultsID, "Results id is malformed")
		}
	}
	id = strings.TrimSpace(id)
	if id == "" && required {
		return "", newParamError(codeMissingResultsID, "Results id is required")
	}
	return id, nil
}

// pathParam binds a required path segment; a blank value yields code.
func pathParam(r *http.Request, name, code, message string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil || strings.TrimSpace(v) == "" {
		return "", newParamError(code, message)
	}
	return v, nil
}

// formBool reads an HTML-form style boolean: "on", "true", "1" and "yes" are true.
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
