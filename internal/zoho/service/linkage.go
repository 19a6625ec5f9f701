package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"crm_dispatch_backend/internal/zoho/transport"
	"crm_dispatch_backend/platform/apperr"
)

// Zoho associates activity records (Tasks, Calls) with other records through
// one of two mutually exclusive relationship fields, and which one accepts a
// Lead id varies across organizational schema configurations. The chain below
// tries each convention in a fixed order and finally degrades to an unlinked
// record carrying the lead id as free text.
const (
	fieldWho  = "Who_Id"
	fieldWhat = "What_Id"

	humanWho  = "Who Id"
	humanWhat = "What Id"
)

// linkStrategy produces one linkage variant of a base record. field/human
// identify the relationship field the variant relies on; both are empty for
// the unlinked fallback.
type linkStrategy struct {
	name  string
	field string
	human string
	apply func(rec transport.Record, leadID string)
}

func linkStrategies() []linkStrategy {
	return []linkStrategy{
		{
			name:  "who",
			field: fieldWho,
			human: humanWho,
			apply: func(rec transport.Record, leadID string) {
				rec[fieldWho] = leadID
			},
		},
		{
			name:  "what",
			field: fieldWhat,
			human: humanWhat,
			apply: func(rec transport.Record, leadID string) {
				rec[fieldWhat] = leadID
			},
		},
		{
			name:  "what+se_module",
			field: fieldWhat,
			human: humanWhat,
			apply: func(rec transport.Record, leadID string) {
				rec[fieldWhat] = leadID
				rec["$se_module"] = "Leads"
			},
		},
		{
			name: "unlinked",
			apply: func(rec transport.Record, leadID string) {
				note := "Lead ID: " + leadID
				if existing, ok := rec["Description"].(string); ok && existing != "" {
					note = existing + "\n" + note
				}
				rec["Description"] = note
			},
		},
	}
}

// fieldRejected reports whether a per-record failure blames the given
// relationship field, either by API name in details or by the field's human
// name appearing in the message. The upstream error shape is inconsistent
// across record types, so both checks are needed.
func fieldRejected(result transport.MutationResult, apiName, humanName string) bool {
	if result.Code != transport.CodeInvalidData {
		return false
	}
	if result.Details.APIName == apiName {
		return true
	}
	return strings.Contains(strings.ToLower(result.Message), strings.ToLower(humanName))
}

// createWithLinkFallback creates a record in the given module, walking the
// linkage chain until an attempt succeeds. A linked attempt whose failure
// names its relationship field moves to the next linked variant; any other
// failure jumps straight to the unlinked fallback. Only the unlinked
// attempt's failure is fatal, and it carries the first and final raw
// responses for diagnosis.
func (s *Service) createWithLinkFallback(ctx context.Context, module string, base transport.Record, leadID string) (string, error) {
	strategies := linkStrategies()
	final := len(strategies) - 1

	var firstResponse, lastResponse interface{}

	for i := 0; i < len(strategies); i++ {
		strat := strategies[i]
		record := cloneRecord(base)
		strat.apply(record, leadID)

		raw, err := s.crm.Do(ctx, http.MethodPost, "/crm/v2/"+module, transport.Envelope{Data: []transport.Record{record}})

		var result transport.MutationResult
		haveResult := false
		if err == nil {
			if resp, decodeErr := transport.DecodeMutation(raw); decodeErr == nil {
				result, haveResult = resp.First()
			}
			if haveResult && result.Code == transport.CodeSuccess {
				s.log.Info("record created", "module", module, "linkage", strat.name, "id", result.Details.ID)
				return result.Details.ID, nil
			}
		}

		failure := failureDetail(raw, err)
		if firstResponse == nil {
			firstResponse = failure
		}
		lastResponse = failure

		if i == final {
			break
		}

		if haveResult && strat.field != "" && fieldRejected(result, strat.field, strat.human) {
			s.log.Debug("linkage field rejected, trying next variant",
				"module", module, "linkage", strat.name, "field", strat.field)
			continue
		}

		// Not a recognizable field rejection: structured linking is hopeless,
		// keep the association as free text instead.
		s.log.Warn("linked create failed, degrading to unlinked record",
			"module", module, "linkage", strat.name)
		i = final - 1
	}

	return "", apperr.Unprocessable(strings.ToLower(module)+" creation failed after all linkage fallbacks").
		WithOp("create " + strings.ToLower(module)).
		WithDetails(map[string]interface{}{
			"first": firstResponse,
			"last":  lastResponse,
		})
}

func cloneRecord(base transport.Record) transport.Record {
	record := make(transport.Record, len(base)+2)
	for k, v := range base {
		record[k] = v
	}
	return record
}

// failureDetail preserves whatever we know about a failed attempt: the raw
// 2xx body with a per-record error, or the transport-level error.
func failureDetail(raw json.RawMessage, err error) interface{} {
	if err != nil {
		if domainErr, ok := err.(*apperr.Error); ok && domainErr.Details != nil {
			return domainErr.Details
		}
		return err.Error()
	}
	if len(raw) == 0 {
		return nil
	}
	return raw
}
