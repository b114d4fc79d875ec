package mail

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		currency string
		want     string
	}{
		{name: "zero", cents: 0, currency: "USD", want: "USD 0.00"},
		{name: "under a dollar", cents: 7, currency: "USD", want: "USD 0.07"},
		{name: "no grouping", cents: 99999, currency: "USD", want: "USD 999.99"},
		{name: "one group", cents: 123456, currency: "USD", want: "USD 1,234.56"},
		{name: "two groups", cents: 123456789, currency: "USD", want: "USD 1,234,567.89"},
		{name: "exact thousand", cents: 100000, currency: "EUR", want: "EUR 1,000.00"},
		{name: "negative", cents: -123456, currency: "USD", want: "USD -1,234.56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAmount(tt.cents, tt.currency); got != tt.want {
				t.Errorf("FormatAmount(%d, %q): got %q, want %q", tt.cents, tt.currency, got, tt.want)
			}
		})
	}
}

func baseInput() ContentInput {
	return ContentInput{
		OrgName:       "Acme Corp",
		BaseURL:       "https://acme.example.com",
		RecipientName: "Bob Lee",
		ActorName:     "Alice Chen",
		EventType:     domain.NotificationRequisitionSubmitted,
		RequisitionID: uuid.MustParse("a3bb189e-8bf9-3888-9912-ace4e6543002"),
		Number:        "ACME-0042",
		Title:         "Laptops Q3",
		AmountCents:   250000,
		Currency:      "USD",
		ProjectName:   "IT Refresh",
	}
}

func TestRender_Deterministic(t *testing.T) {
	in := baseInput()

	first := Render(in)
	second := Render(in)

	if first.Subject != second.Subject {
		t.Errorf("subject not deterministic: %q vs %q", first.Subject, second.Subject)
	}
	if first.HTMLBody != second.HTMLBody {
		t.Error("HTML body not deterministic")
	}
	if first.TextBody != second.TextBody {
		t.Error("text body not deterministic")
	}
}

func TestRender_BothBodiesCarrySameFacts(t *testing.T) {
	in := baseInput()
	content := Render(in)

	facts := []string{
		"ACME-0042",
		"Laptops Q3",
		"USD 2,500.00",
		"IT Refresh",
		"Alice Chen",
		"https://acme.example.com/requisitions/" + in.RequisitionID.String(),
	}

	for _, fact := range facts {
		if !strings.Contains(content.HTMLBody, fact) {
			t.Errorf("HTML body missing %q", fact)
		}
		if !strings.Contains(content.TextBody, fact) {
			t.Errorf("text body missing %q", fact)
		}
	}
}

func TestRender_RejectedCarriesLiteralReason(t *testing.T) {
	in := baseInput()
	in.EventType = domain.NotificationRequisitionRejected
	in.Reason = "budget exceeded"

	content := Render(in)

	if !strings.Contains(content.Subject, "rejected") {
		t.Errorf("subject %q should mention rejection", content.Subject)
	}
	if !strings.Contains(content.HTMLBody, "budget exceeded") {
		t.Error("HTML body missing the literal reason text")
	}
	if !strings.Contains(content.TextBody, "budget exceeded") {
		t.Error("text body missing the literal reason text")
	}
}

func TestRender_Fallbacks(t *testing.T) {
	in := baseInput()
	in.OrgName = ""
	in.BaseURL = ""

	content := Render(in)

	if !strings.Contains(content.Subject, DefaultOrgName) {
		t.Errorf("subject %q should fall back to the default org name", content.Subject)
	}
	if !strings.Contains(content.TextBody, DefaultBaseURL+"/requisitions/") {
		t.Error("text body should fall back to the default base URL")
	}
}

func TestRender_TrailingSlashBaseURL(t *testing.T) {
	in := baseInput()
	in.BaseURL = "https://acme.example.com/"

	content := Render(in)

	if strings.Contains(content.TextBody, "com//requisitions") {
		t.Error("base URL trailing slash should not produce a double slash")
	}
}

func TestActorNameFor(t *testing.T) {
	reviewer := uuid.New()
	approver := uuid.New()
	submitter := uuid.New()

	names := map[uuid.UUID]string{
		reviewer:  "Rita Reviewer",
		approver:  "Adam Approver",
		submitter: "Sam Submitter",
	}
	lookup := func(id uuid.UUID) string { return names[id] }

	req := &domain.Requisition{
		SubmittedBy: submitter,
		ReviewedBy:  &reviewer,
		ApprovedBy:  &approver,
	}

	tests := []struct {
		eventType domain.NotificationType
		want      string
	}{
		{domain.NotificationRequisitionSubmitted, "Sam Submitter"},
		{domain.NotificationRequisitionReviewed, "Rita Reviewer"},
		{domain.NotificationRequisitionApproved, "Adam Approver"},
		{domain.NotificationRequisitionRejected, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			if got := actorNameFor(tt.eventType, req, lookup); got != tt.want {
				t.Errorf("actorNameFor(%q): got %q, want %q", tt.eventType, got, tt.want)
			}
		})
	}

	t.Run("no reviewer stamp", func(t *testing.T) {
		bare := &domain.Requisition{SubmittedBy: submitter}
		if got := actorNameFor(domain.NotificationRequisitionReviewed, bare, lookup); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}
