package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"crm_dispatch_backend/internal/zoho/transport"
)

// Task statuses considered "open" for duplicate avoidance.
const (
	taskStatusNotStarted = "Not Started"
	taskStatusInProgress = "In Progress"
)

// EnsureFollowUpTask returns an existing open follow-up task for the lead,
// or creates one via the linkage fallback chain. The subject embeds the
// phone number so concurrent inquiries stay distinguishable in the CRM UI.
func (s *Service) EnsureFollowUpTask(ctx context.Context, leadID, phone string) (string, error) {
	if id := s.searchOpenTask(ctx, leadID); id != "" {
		s.log.Info("open follow-up task found", "task_id", id, "lead_id", leadID)
		return id, nil
	}

	base := transport.Record{
		"Subject":  fmt.Sprintf("Follow up: %s", phone),
		"Status":   taskStatusNotStarted,
		"Due_Date": dueDate(s.now(), s.dueHours),
	}

	return s.createWithLinkFallback(ctx, "Tasks", base, leadID)
}

// searchOpenTask looks for a task already linked to the lead in an open
// status. Like the lead search, failures degrade to creation.
func (s *Service) searchOpenTask(ctx context.Context, leadID string) string {
	criteria := fmt.Sprintf("((Who_Id:equals:%s)and((Status:equals:%s)or(Status:equals:%s)))",
		leadID, taskStatusNotStarted, taskStatusInProgress)

	raw, err := s.crm.Do(ctx, http.MethodGet, searchPath("Tasks", criteria), nil)
	if err != nil {
		s.log.Warn("task search failed, proceeding to create", "error", err, "lead_id", leadID)
		return ""
	}

	resp, err := transport.DecodeSearch(raw)
	if err != nil || len(resp.Data) == 0 {
		return ""
	}
	return resp.Data[0].ID
}

// dueDate truncates "now + N hours" to a calendar date in now's location.
// The CRM field is date-only, so an offset crossing midnight lands on the
// next day.
func dueDate(now time.Time, hours int) string {
	return now.Add(time.Duration(hours) * time.Hour).Format("2006-01-02")
}
