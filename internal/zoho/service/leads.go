package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"crm_dispatch_backend/internal/zoho/transport"
	"crm_dispatch_backend/platform/apperr"
	"crm_dispatch_backend/platform/sanitize"
)

// Lead source channels written to Lead_Source.
const (
	SourceWebsite      = "Website"
	SourceIncomingCall = "Incoming Call"
)

const defaultLastName = "Incoming Lead"
const defaultCompany = "Unknown"

// LeadInput carries the inbound attributes used to find or create a lead.
// Phone is the dedup key and the only required field.
type LeadInput struct {
	Name        string
	Phone       string
	ProductLine string
	Email       string
	Message     string
	SourceURL   string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	Source      string
}

// FindOrCreateLead searches for a lead by exact phone match and creates one
// when no match is found. It never updates an existing lead.
//
// Search failures are deliberately treated as "no match": a false negative
// creates a duplicate lead, which is preferred over failing the request.
func (s *Service) FindOrCreateLead(ctx context.Context, in LeadInput) (string, error) {
	if id := s.searchLeadByPhone(ctx, in.Phone); id != "" {
		s.log.Info("lead found by phone", "lead_id", id)
		return id, nil
	}

	record := s.buildLeadRecord(in)

	raw, err := s.crm.Do(ctx, http.MethodPost, "/crm/v2/Leads", transport.Envelope{Data: []transport.Record{record}})
	if err != nil {
		return "", err
	}

	resp, err := transport.DecodeMutation(raw)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "decode lead create response", err)
	}

	result, ok := resp.First()
	if !ok || result.Code != transport.CodeSuccess {
		return "", apperr.Unprocessable("lead creation rejected by crm").
			WithOp("create lead").
			WithDetails(raw)
	}

	s.log.Info("lead created", "lead_id", result.Details.ID)
	return result.Details.ID, nil
}

func (s *Service) searchLeadByPhone(ctx context.Context, phone string) string {
	raw, err := s.crm.Do(ctx, http.MethodGet, searchPath("Leads", fmt.Sprintf("(Phone:equals:%s)", phone)), nil)
	if err != nil {
		// Outages here degrade to duplicate risk, not a failed request.
		s.log.Warn("lead search failed, proceeding to create", "error", err)
		return ""
	}

	resp, err := transport.DecodeSearch(raw)
	if err != nil {
		s.log.Warn("lead search response unreadable, proceeding to create", "error", err)
		return ""
	}

	if len(resp.Data) == 0 {
		return ""
	}
	return resp.Data[0].ID
}

func (s *Service) buildLeadRecord(in LeadInput) transport.Record {
	lastName := strings.TrimSpace(in.Name)
	if lastName == "" {
		lastName = defaultLastName
	}

	source := in.Source
	if source == "" {
		source = SourceWebsite
	}

	record := transport.Record{
		"Last_Name":   sanitize.Text(lastName),
		"Phone":       in.Phone,
		"Company":     defaultCompany,
		"Lead_Source": source,
	}

	if in.ProductLine != "" {
		record[s.productLineField] = in.ProductLine
	}
	if in.Email != "" {
		record["Email"] = in.Email
	}
	if desc := buildLeadDescription(in); desc != "" {
		record["Description"] = desc
	}

	return record
}

// buildLeadDescription concatenates the free-form inbound context so it
// survives in the CRM even though none of it maps to a structured field.
func buildLeadDescription(in LeadInput) string {
	var parts []string

	if msg := sanitize.Text(in.Message); msg != "" {
		parts = append(parts, "Message: "+msg)
	}
	if in.SourceURL != "" {
		parts = append(parts, "Source URL: "+in.SourceURL)
	}

	var utm []string
	if in.UTMSource != "" {
		utm = append(utm, "source="+in.UTMSource)
	}
	if in.UTMMedium != "" {
		utm = append(utm, "medium="+in.UTMMedium)
	}
	if in.UTMCampaign != "" {
		utm = append(utm, "campaign="+in.UTMCampaign)
	}
	if len(utm) > 0 {
		parts = append(parts, "UTM: "+strings.Join(utm, ", "))
	}

	return strings.Join(parts, "\n")
}
