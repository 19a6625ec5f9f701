package service

import (
	"context"
	"fmt"
	"time"

	"crm_dispatch_backend/internal/zoho/transport"
)

// callStartTimeLayout is Zoho's expected datetime form with the local
// UTC-offset encoded, e.g. 2025-03-01T14:05:00+05:30.
const callStartTimeLayout = "2006-01-02T15:04:05-07:00"

// LogCall records an outbound call activity for the lead, using the same
// linkage fallback chain as follow-up tasks. Duration starts at zero; the
// voice provider owns the actual call lifecycle.
func (s *Service) LogCall(ctx context.Context, leadID, phone string) (string, error) {
	base := transport.Record{
		"Subject":         fmt.Sprintf("Outbound call: %s", phone),
		"Call_Type":       "Outbound",
		"Call_Start_Time": callStartTime(s.now()),
		"Call_Duration":   "0",
		"Description":     "Automated outbound call dispatched for lead follow-up.",
	}

	return s.createWithLinkFallback(ctx, "Calls", base, leadID)
}

// callStartTime is split out for tests.
func callStartTime(now time.Time) string {
	return now.Format(callStartTimeLayout)
}
