package enums

import "testing"

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("technician")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != UserRoleTechnician {
		t.Fatalf("expected technician, got %s", role)
	}
	if _, err := ParseUserRole("manager"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestUserRoleCanManageJobs(t *testing.T) {
	if !UserRoleAdmin.CanManageJobs() || !UserRoleStaff.CanManageJobs() {
		t.Fatalf("admin and staff must manage jobs")
	}
	if UserRoleTechnician.CanManageJobs() {
		t.Fatalf("technicians must not manage jobs")
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if !JobStatusCompleted.IsTerminal() || !JobStatusCancelled.IsTerminal() {
		t.Fatalf("completed/cancelled are terminal")
	}
	if JobStatusInProgress.IsTerminal() {
		t.Fatalf("in_progress is not terminal")
	}
}

func TestStatusBucketStatuses(t *testing.T) {
	active := StatusBucketActive.Statuses()
	if len(active) != 3 {
		t.Fatalf("active bucket should cover pending/assigned/in_progress, got %v", active)
	}
	completed := StatusBucketCompleted.Statuses()
	if len(completed) != 1 || completed[0] != JobStatusCompleted {
		t.Fatalf("completed bucket should cover exactly completed, got %v", completed)
	}
	if got := StatusBucket("weird").Statuses(); got != nil {
		t.Fatalf("unknown bucket should expand to nil, got %v", got)
	}
}

func TestParseIntentKindDefaultsToOtherChat(t *testing.T) {
	if k := ParseIntentKind("QUERY_JOBS"); k != IntentQueryJobs {
		t.Fatalf("expected QUERY_JOBS, got %s", k)
	}
	if k := ParseIntentKind("query_jobs"); k != IntentQueryJobs {
		t.Fatalf("matching is case-insensitive, got %s", k)
	}
	if k := ParseIntentKind("DO_SOMETHING_ELSE"); k != IntentOtherChat {
		t.Fatalf("unknown intents degrade to OTHER_CHAT, got %s", k)
	}
}
