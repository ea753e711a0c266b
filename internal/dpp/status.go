package dpp

import "fmt"

// Status is the verification state of a product passport.
type Status string

const (
	StatusDraft               Status = "draft"
	StatusIncomplete          Status = "incomplete"
	StatusPendingSupplier     Status = "pending_supplier"
	StatusPendingVerification Status = "pending_verification"
	StatusChangesRequested    Status = "changes_requested"
	StatusRejected            Status = "rejected"
	StatusComplete            Status = "complete"
)

// Action is a status-affecting operation on a passport.
type Action string

const (
	ActionSubmitForVerification Action = "submit_for_verification"
	ActionApprove               Action = "approve"
	ActionReject                Action = "reject"
	ActionRequestChanges        Action = "request_changes"
	ActionRequestSupplierData   Action = "request_supplier_data"
)

// Roles authorized to drive transitions.
const (
	RoleManufacturer = "manufacturer"
	RoleVerifier     = "verifier"
	RoleAdmin        = "admin"
)

type transition struct {
	to   Status
	role string
}

// transitions is the static (state, action) -> (state, requiredRole) table.
// It is the single authority for what a passport may do next; the HTTP layer
// and the service layer both consult it, never their own copies.
var transitions = map[Status]map[Action]transition{
	StatusDraft: {
		ActionSubmitForVerification: {StatusPendingVerification, RoleManufacturer},
		ActionRequestSupplierData:   {StatusPendingSupplier, RoleManufacturer},
	},
	StatusIncomplete: {
		ActionSubmitForVerification: {StatusPendingVerification, RoleManufacturer},
		ActionRequestSupplierData:   {StatusPendingSupplier, RoleManufacturer},
	},
	StatusChangesRequested: {
		ActionSubmitForVerification: {StatusPendingVerification, RoleManufacturer},
		ActionRequestSupplierData:   {StatusPendingSupplier, RoleManufacturer},
	},
	StatusPendingSupplier: {
		ActionSubmitForVerification: {StatusPendingVerification, RoleManufacturer},
	},
	StatusPendingVerification: {
		ActionApprove:        {StatusComplete, RoleVerifier},
		ActionReject:         {StatusRejected, RoleVerifier},
		ActionRequestChanges: {StatusChangesRequested, RoleVerifier},
	},
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusIncomplete, StatusPendingSupplier,
		StatusPendingVerification, StatusChangesRequested,
		StatusRejected, StatusComplete:
		return true
	}
	return false
}

func ValidRole(role string) bool {
	switch role {
	case RoleManufacturer, RoleVerifier, RoleAdmin:
		return true
	}
	return false
}

// Terminal reports whether no further transition exists from s.
func Terminal(s Status) bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether action is legal from the given status.
func CanTransition(from Status, action Action) bool {
	_, ok := transitions[from][action]
	return ok
}

// RequiredRole returns the role authorized to perform action from the given
// status. ok is false when the transition itself is illegal.
func RequiredRole(from Status, action Action) (string, bool) {
	t, ok := transitions[from][action]
	if !ok {
		return "", false
	}
	return t.role, true
}

// Apply returns the successor status for (from, action).
func Apply(from Status, action Action) (Status, error) {
	t, ok := transitions[from][action]
	if !ok {
		return from, fmt.Errorf("action %q is not allowed from status %q", action, from)
	}
	return t.to, nil
}

// Replay runs a recorded action sequence against a fresh draft passport and
// returns the resulting status. A recorded log that fails to replay indicates
// the log was tampered with or written outside the transition table.
func Replay(actions []Action) (Status, error) {
	s := StatusDraft
	for i, a := range actions {
		next, err := Apply(s, a)
		if err != nil {
			return s, fmt.Errorf("replay entry %d: %w", i, err)
		}
		s = next
	}
	return s, nil
}
