package wizard

import "github.com/charmbracelet/huh"

// Authentication methods.
const (
	AuthToken    = "token"
	AuthPassword = "password"
)

// AuthMethodOptions are the choices of the authentication question.
var AuthMethodOptions = []huh.Option[string]{
	huh.NewOption("API token (Recommended)", AuthToken),
	huh.NewOption("Password (ticket login)", AuthPassword),
}
