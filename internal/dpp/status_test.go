package dpp

import "testing"

func TestApplyAllowedTransitions(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		want   Status
	}{
		{StatusDraft, ActionSubmitForVerification, StatusPendingVerification},
		{StatusIncomplete, ActionSubmitForVerification, StatusPendingVerification},
		{StatusChangesRequested, ActionSubmitForVerification, StatusPendingVerification},
		{StatusPendingSupplier, ActionSubmitForVerification, StatusPendingVerification},
		{StatusDraft, ActionRequestSupplierData, StatusPendingSupplier},
		{StatusPendingVerification, ActionApprove, StatusComplete},
		{StatusPendingVerification, ActionReject, StatusRejected},
		{StatusPendingVerification, ActionRequestChanges, StatusChangesRequested},
	}
	for _, tc := range cases {
		got, err := Apply(tc.from, tc.action)
		if err != nil {
			t.Fatalf("Apply(%s, %s): %v", tc.from, tc.action, err)
		}
		if got != tc.want {
			t.Fatalf("Apply(%s, %s): want=%s got=%s", tc.from, tc.action, tc.want, got)
		}
	}
}

func TestApplyRejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
	}{
		{StatusDraft, ActionApprove},
		{StatusDraft, ActionReject},
		{StatusComplete, ActionSubmitForVerification},
		{StatusRejected, ActionSubmitForVerification},
		{StatusPendingVerification, ActionSubmitForVerification},
		{StatusPendingVerification, ActionRequestSupplierData},
		{StatusChangesRequested, ActionApprove},
	}
	for _, tc := range cases {
		got, err := Apply(tc.from, tc.action)
		if err == nil {
			t.Fatalf("Apply(%s, %s): expected error", tc.from, tc.action)
		}
		if got != tc.from {
			t.Fatalf("Apply(%s, %s): status changed on error: got=%s", tc.from, tc.action, got)
		}
	}
}

func TestRequiredRole(t *testing.T) {
	role, ok := RequiredRole(StatusDraft, ActionSubmitForVerification)
	if !ok || role != RoleManufacturer {
		t.Fatalf("submit role: want=%s got=%s ok=%v", RoleManufacturer, role, ok)
	}
	role, ok = RequiredRole(StatusPendingVerification, ActionApprove)
	if !ok || role != RoleVerifier {
		t.Fatalf("approve role: want=%s got=%s ok=%v", RoleVerifier, role, ok)
	}
	if _, ok := RequiredRole(StatusComplete, ActionApprove); ok {
		t.Fatalf("complete is terminal, no role expected")
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []Status{StatusComplete, StatusRejected} {
		if !Terminal(s) {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusDraft, StatusIncomplete, StatusPendingSupplier, StatusPendingVerification, StatusChangesRequested} {
		if Terminal(s) {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestReplayDeterministic(t *testing.T) {
	actions := []Action{
		ActionSubmitForVerification,
		ActionRequestChanges,
		ActionSubmitForVerification,
		ActionApprove,
	}
	first, err := Replay(actions)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if first != StatusComplete {
		t.Fatalf("Replay: want=%s got=%s", StatusComplete, first)
	}
	second, err := Replay(actions)
	if err != nil {
		t.Fatalf("Replay second run: %v", err)
	}
	if second != first {
		t.Fatalf("Replay not deterministic: %s vs %s", first, second)
	}
}

func TestReplayFailsOnIllegalSequence(t *testing.T) {
	_, err := Replay([]Action{ActionApprove})
	if err == nil {
		t.Fatalf("expected error replaying approve from draft")
	}
}

func TestValidStatus(t *testing.T) {
	if !ValidStatus(StatusPendingVerification) {
		t.Fatalf("pending_verification should be valid")
	}
	if ValidStatus(Status("shipped")) {
		t.Fatalf("unknown status should be invalid")
	}
}
