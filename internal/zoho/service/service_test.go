package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"crm_dispatch_backend/internal/zoho/transport"
	"crm_dispatch_backend/platform/config"
	"crm_dispatch_backend/platform/logger"
)

// crmDouble is an in-memory CRM standing in for the Caller port. It records
// created records and answers search queries against them, and can be
// configured to reject linkage fields the way differently-configured CRM
// schemas do.
type crmDouble struct {
	t *testing.T

	calls int

	leadsByPhone map[string]string
	createdLeads []transport.Record
	openTasks    map[string]string
	createdTasks []transport.Record
	createdCalls []transport.Record

	leadSearchErr error
	// reject the named linkage field on activity creates
	rejectFields map[string]bool
	// reject What_Id only when the module hint is absent
	rejectWhatWithoutHint bool
	// every mutation fails with a non-field per-record error
	failMutations bool

	nextID int
}

func newCRMDouble(t *testing.T) *crmDouble {
	return &crmDouble{
		t:            t,
		leadsByPhone: make(map[string]string),
		openTasks:    make(map[string]string),
		rejectFields: make(map[string]bool),
	}
}

func (d *crmDouble) newID(prefix string) string {
	d.nextID++
	return fmt.Sprintf("%s-%d", prefix, d.nextID)
}

func (d *crmDouble) Do(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	d.calls++

	switch {
	case method == http.MethodGet && strings.HasPrefix(path, "/crm/v2/Leads/search"):
		return d.searchLeads(path)
	case method == http.MethodGet && strings.HasPrefix(path, "/crm/v2/Tasks/search"):
		return d.searchTasks(path)
	case method == http.MethodPost && path == "/crm/v2/Leads":
		return d.createLead(payload)
	case method == http.MethodPost && path == "/crm/v2/Tasks":
		return d.createActivity(payload, "task", &d.createdTasks)
	case method == http.MethodPost && path == "/crm/v2/Calls":
		return d.createActivity(payload, "call", &d.createdCalls)
	}

	d.t.Fatalf("unexpected CRM call: %s %s", method, path)
	return nil, nil
}

func criteriaOf(t *testing.T, path string) string {
	u, err := url.Parse(path)
	if err != nil {
		t.Fatalf("parse search path: %v", err)
	}
	return u.Query().Get("criteria")
}

func (d *crmDouble) searchLeads(path string) (json.RawMessage, error) {
	if d.leadSearchErr != nil {
		return nil, d.leadSearchErr
	}

	criteria := criteriaOf(d.t, path)
	for phone, id := range d.leadsByPhone {
		if strings.Contains(criteria, "(Phone:equals:"+phone+")") {
			return marshalSearch(d.t, id), nil
		}
	}
	// No match: Zoho answers 204 with an empty body.
	return nil, nil
}

func (d *crmDouble) searchTasks(path string) (json.RawMessage, error) {
	criteria := criteriaOf(d.t, path)
	for leadID, taskID := range d.openTasks {
		if strings.Contains(criteria, "(Who_Id:equals:"+leadID+")") {
			return marshalSearch(d.t, taskID), nil
		}
	}
	return nil, nil
}

func (d *crmDouble) createLead(payload interface{}) (json.RawMessage, error) {
	record := firstRecord(d.t, payload)
	if d.failMutations {
		return marshalMutation(d.t, transport.MutationResult{Code: "INTERNAL_ERROR", Message: "internal error", Status: "error"}), nil
	}

	phone, _ := record["Phone"].(string)
	id := d.newID("lead")
	d.leadsByPhone[phone] = id
	d.createdLeads = append(d.createdLeads, record)

	return marshalMutation(d.t, successResult(id)), nil
}

func (d *crmDouble) createActivity(payload interface{}, prefix string, store *[]transport.Record) (json.RawMessage, error) {
	record := firstRecord(d.t, payload)

	if d.failMutations {
		return marshalMutation(d.t, transport.MutationResult{Code: "INTERNAL_ERROR", Message: "internal error", Status: "error"}), nil
	}

	if _, ok := record[fieldWho]; ok && d.rejectFields[fieldWho] {
		return marshalMutation(d.t, rejectionResult(fieldWho)), nil
	}
	if _, ok := record[fieldWhat]; ok {
		if d.rejectFields[fieldWhat] {
			return marshalMutation(d.t, rejectionResult(fieldWhat)), nil
		}
		if d.rejectWhatWithoutHint {
			if _, hinted := record["$se_module"]; !hinted {
				return marshalMutation(d.t, rejectionResult(fieldWhat)), nil
			}
		}
	}

	id := d.newID(prefix)
	*store = append(*store, record)
	return marshalMutation(d.t, successResult(id)), nil
}

func successResult(id string) transport.MutationResult {
	return transport.MutationResult{
		Code:    transport.CodeSuccess,
		Message: "record added",
		Status:  "success",
		Details: transport.MutationDetails{ID: id},
	}
}

func rejectionResult(field string) transport.MutationResult {
	return transport.MutationResult{
		Code:    transport.CodeInvalidData,
		Message: "invalid data",
		Status:  "error",
		Details: transport.MutationDetails{APIName: field},
	}
}

func firstRecord(t *testing.T, payload interface{}) transport.Record {
	t.Helper()
	env, ok := payload.(transport.Envelope)
	if !ok {
		t.Fatalf("expected transport.Envelope payload, got %T", payload)
	}
	if len(env.Data) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(env.Data))
	}
	return env.Data[0]
}

func marshalSearch(t *testing.T, id string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(transport.SearchResponse{Data: []transport.SearchRecord{{ID: id}}})
	if err != nil {
		t.Fatalf("marshal search response: %v", err)
	}
	return raw
}

func marshalMutation(t *testing.T, result transport.MutationResult) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(transport.MutationResponse{Data: []transport.MutationResult{result}})
	if err != nil {
		t.Fatalf("marshal mutation response: %v", err)
	}
	return raw
}

func testService(double *crmDouble) *Service {
	cfg := &config.Config{
		ProductLineField:   "Product_Line",
		TaskDueHours:       24,
		DefaultPhoneRegion: "IN",
	}
	return New(double, cfg, logger.New("development"))
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 14, 5, 0, 0, time.FixedZone("IST", 5*3600+1800))
}
