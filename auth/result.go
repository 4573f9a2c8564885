package auth

import (
	"html"
	"net/http"
)

// ResultKind tags what the HTTP layer must do with a Result
type ResultKind int

const (
	// NotRequired lets the request through without an authenticated session
	NotRequired ResultKind = iota
	// Authenticated lets the request through with a refreshed session
	Authenticated
	// Redirect ends the request with Status and Location
	Redirect
	// ShowForm renders the login form in Form
	ShowForm
)

func (k ResultKind) String() string {
	switch k {
	case NotRequired:
		return "not-required"
	case Authenticated:
		return "authenticated"
	case Redirect:
		return "redirect"
	case ShowForm:
		return "form"
	default:
		return "unknown"
	}
}

type Result struct {
	Kind     ResultKind
	Status   int
	Location string
	Form     *LoginForm
}

func redirectTo(status int, location string) Result {
	return Result{Kind: Redirect, Status: status, Location: location}
}

func showForm(form *LoginForm) Result {
	return Result{Kind: ShowForm, Status: http.StatusOK, Form: form}
}

// LoginForm is what the login page renders when it does not redirect
type LoginForm struct {
	Message             string
	Fields              []LoginField
	Logout              bool
	NoCookie            bool
	LogoutInactiveAfter int
	// Params are query parameters to keep on resubmission, e.g. "url=%2Fadmin"
	Params []string
	// NoCache is set when the page depends on Params and must not be cached
	NoCache bool
}

// LoginField is one input of the login form. Value is the submitted value
// and must be HTML escaped when rendered.
type LoginField struct {
	Title string
	Name  string
	Value string
}

// EscapedValue is Value safe for direct inclusion in HTML
func (f LoginField) EscapedValue() string {
	return html.EscapeString(f.Value)
}
