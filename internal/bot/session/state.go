// Package session keeps per-chat conversation state for the ticket dialog.
//
// State is a closed set of variants rather than a string tag with a loose
// data bag: each step carries exactly the fields collected so far, so an
// impossible combination (a photo step without a category, say) cannot be
// represented at all.
package session

// State is one step of the ticket dialog. Implementations are the only
// types in this package; no external state can satisfy the interface.
type State interface {
	// Step returns a stable identifier for logging.
	Step() string

	sealed()
}

// Idle means no ticket dialog is in progress.
type Idle struct{}

// AwaitingCategory means the dialog was started and the next text message
// is taken as the ticket category.
type AwaitingCategory struct{}

// AwaitingDescription holds the chosen category while waiting for the
// problem description.
type AwaitingDescription struct {
	Category string
}

// AwaitingPhoto holds everything collected so far while waiting for an
// optional photo or an explicit decline.
type AwaitingPhoto struct {
	Category    string
	Description string
}

func (Idle) Step() string                { return "idle" }
func (AwaitingCategory) Step() string    { return "awaiting_category" }
func (AwaitingDescription) Step() string { return "awaiting_description" }
func (AwaitingPhoto) Step() string       { return "awaiting_photo" }

func (Idle) sealed()                {}
func (AwaitingCategory) sealed()    {}
func (AwaitingDescription) sealed() {}
func (AwaitingPhoto) sealed()       {}
