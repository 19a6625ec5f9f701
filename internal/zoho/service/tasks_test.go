package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"crm_dispatch_backend/platform/apperr"
)

func TestEnsureFollowUpTask_LinksViaPrimaryField(t *testing.T) {
	double := newCRMDouble(t)
	svc := testService(double)

	id, err := svc.EnsureFollowUpTask(context.Background(), "lead-1", "+919876543210")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a task id")
	}

	if len(double.createdTasks) != 1 {
		t.Fatalf("expected 1 created task, got %d", len(double.createdTasks))
	}
	record := double.createdTasks[0]
	if record[fieldWho] != "lead-1" {
		t.Fatalf("expected Who_Id linkage, got %v", record[fieldWho])
	}
	if record["Status"] != taskStatusNotStarted {
		t.Fatalf("expected Not Started status, got %v", record["Status"])
	}
	subject, _ := record["Subject"].(string)
	if !strings.Contains(subject, "+919876543210") {
		t.Fatalf("expected phone embedded in subject, got %q", subject)
	}
}

func TestEnsureFollowUpTask_FallsBackToSecondaryField(t *testing.T) {
	double := newCRMDouble(t)
	double.rejectFields[fieldWho] = true
	svc := testService(double)

	if _, err := svc.EnsureFollowUpTask(context.Background(), "lead-1", "+919876543210"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := double.createdTasks[0]
	if _, ok := record[fieldWho]; ok {
		t.Fatal("rejected Who_Id must not appear on the stored record")
	}
	if record[fieldWhat] != "lead-1" {
		t.Fatalf("expected What_Id linkage, got %v", record[fieldWhat])
	}
}

func TestEnsureFollowUpTask_AddsModuleHintWhenSecondaryRejected(t *testing.T) {
	double := newCRMDouble(t)
	double.rejectFields[fieldWho] = true
	double.rejectWhatWithoutHint = true
	svc := testService(double)

	if _, err := svc.EnsureFollowUpTask(context.Background(), "lead-1", "+919876543210"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := double.createdTasks[0]
	if record[fieldWhat] != "lead-1" {
		t.Fatalf("expected What_Id linkage, got %v", record[fieldWhat])
	}
	if record["$se_module"] != "Leads" {
		t.Fatalf("expected se_module hint, got %v", record["$se_module"])
	}
}

func TestEnsureFollowUpTask_DegradesToUnlinked(t *testing.T) {
	double := newCRMDouble(t)
	double.rejectFields[fieldWho] = true
	double.rejectFields[fieldWhat] = true
	svc := testService(double)

	if _, err := svc.EnsureFollowUpTask(context.Background(), "lead-1", "+919876543210"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := double.createdTasks[0]
	if _, ok := record[fieldWho]; ok {
		t.Fatal("unlinked task must not carry Who_Id")
	}
	if _, ok := record[fieldWhat]; ok {
		t.Fatal("unlinked task must not carry What_Id")
	}
	desc, _ := record["Description"].(string)
	if !strings.Contains(desc, "Lead ID: lead-1") {
		t.Fatalf("expected lead id embedded in description, got %q", desc)
	}
}

func TestEnsureFollowUpTask_FinalFailureIsFatalWithBothResponses(t *testing.T) {
	double := newCRMDouble(t)
	double.failMutations = true
	svc := testService(double)

	_, err := svc.EnsureFollowUpTask(context.Background(), "lead-1", "+919876543210")
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.Is(err, apperr.KindUnprocessable) {
		t.Fatalf("expected KindUnprocessable, got %v", apperr.GetKind(err))
	}

	details, ok := err.(*apperr.Error).Details.(map[string]interface{})
	if !ok {
		t.Fatalf("expected details map, got %T", err.(*apperr.Error).Details)
	}
	if details["first"] == nil || details["last"] == nil {
		t.Fatalf("expected first and last responses in details, got %v", details)
	}

	// A non-field failure jumps straight to the unlinked fallback: one
	// search, the primary attempt and the final one, nothing in between.
	if double.calls != 3 {
		t.Fatalf("expected 3 CRM calls, got %d", double.calls)
	}
	if len(double.createdTasks) != 0 {
		t.Fatalf("no task should have been stored, got %d", len(double.createdTasks))
	}
}

func TestEnsureFollowUpTask_ReturnsExistingOpenTask(t *testing.T) {
	double := newCRMDouble(t)
	double.openTasks["lead-1"] = "task-9"
	svc := testService(double)

	id, err := svc.EnsureFollowUpTask(context.Background(), "lead-1", "+919876543210")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "task-9" {
		t.Fatalf("expected existing task-9, got %q", id)
	}
	if len(double.createdTasks) != 0 {
		t.Fatalf("expected no new task, got %d", len(double.createdTasks))
	}
}

func TestDueDate_TruncatesToCalendarDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	cases := []struct {
		name  string
		now   time.Time
		hours int
		want  string
	}{
		{
			name:  "noon plus 24h",
			now:   time.Date(2025, 3, 1, 12, 0, 0, 0, ist),
			hours: 24,
			want:  "2025-03-02",
		},
		{
			name:  "23:30 plus 24h crosses month boundary",
			now:   time.Date(2025, 2, 28, 23, 30, 0, 0, ist),
			hours: 24,
			want:  "2025-03-01",
		},
		{
			name:  "23:30 plus 1h crosses the day",
			now:   time.Date(2025, 3, 1, 23, 30, 0, 0, ist),
			hours: 1,
			want:  "2025-03-02",
		},
		{
			name:  "same wall time in UTC gives the same date",
			now:   time.Date(2025, 2, 28, 23, 30, 0, 0, time.UTC),
			hours: 24,
			want:  "2025-03-01",
		},
	}

	for _, tc := range cases {
		if got := dueDate(tc.now, tc.hours); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
