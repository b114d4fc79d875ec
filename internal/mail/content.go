// Package mail renders email content for workflow events and queues
// outbound sends. Rendering is a pure function of its input so repeated
// generation for the same event is byte-identical.
package mail

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/domain"
)

// Defaults used when an organization has no settings row or the fields
// are blank.
const (
	DefaultOrgName = "your organization"
	DefaultBaseURL = "https://app.reqflow.example.com"
)

// Content is a rendered email: subject plus HTML and plain-text bodies
// carrying identical facts.
type Content struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// ContentInput is everything Render needs. All lookups happen before
// rendering; Render itself is deterministic.
type ContentInput struct {
	OrgName       string
	BaseURL       string
	RecipientName string
	ActorName     string
	EventType     domain.NotificationType
	RequisitionID uuid.UUID
	Number        string
	Title         string
	AmountCents   int64
	Currency      string
	ProjectName   string
	Reason        string
}

// FormatAmount renders cents as a currency-coded string with thousands
// separators, e.g. 123456789 → "USD 1,234,567.89".
func FormatAmount(cents int64, currency string) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	whole := cents / 100
	fraction := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s %s%s.%02d", currency, sign, grouped.String(), fraction)
}

// Render produces the subject, HTML body, and text body for one
// recipient. Deterministic: identical input yields identical output.
func Render(in ContentInput) Content {
	orgName := in.OrgName
	if orgName == "" {
		orgName = DefaultOrgName
	}
	baseURL := strings.TrimRight(in.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	actorName := in.ActorName
	if actorName == "" {
		actorName = "A team member"
	}

	amount := FormatAmount(in.AmountCents, in.Currency)
	link := fmt.Sprintf("%s/requisitions/%s", baseURL, in.RequisitionID)

	var subject, headline, action string
	switch in.EventType {
	case domain.NotificationRequisitionSubmitted:
		subject = fmt.Sprintf("[%s] Requisition %s submitted for review", orgName, in.Number)
		headline = "A requisition needs your review"
		action = fmt.Sprintf("%s submitted requisition %s for review.", actorName, in.Number)
	case domain.NotificationRequisitionReviewed:
		subject = fmt.Sprintf("[%s] Requisition %s reviewed", orgName, in.Number)
		headline = "A requisition was reviewed"
		action = fmt.Sprintf("%s marked requisition %s as reviewed.", actorName, in.Number)
	case domain.NotificationRequisitionApproved:
		subject = fmt.Sprintf("[%s] Requisition %s approved", orgName, in.Number)
		headline = "A requisition was approved"
		action = fmt.Sprintf("%s approved requisition %s.", actorName, in.Number)
	case domain.NotificationRequisitionRejected:
		subject = fmt.Sprintf("[%s] Requisition %s rejected", orgName, in.Number)
		headline = "A requisition was rejected"
		action = fmt.Sprintf("%s rejected requisition %s. Reason: %s", actorName, in.Number, in.Reason)
	default:
		subject = fmt.Sprintf("[%s] Requisition %s updated", orgName, in.Number)
		headline = "A requisition was updated"
		action = fmt.Sprintf("Requisition %s was updated.", in.Number)
	}

	// User-controlled fields are escaped in the HTML body only; the
	// text body carries them literally.
	htmlBody := fmt.Sprintf(`<html><body>
		<h2>%s</h2>
		<p>Hi %s,</p>
		<p>%s</p>
		<ul>
			<li>Number: %s</li>
			<li>Title: %s</li>
			<li>Amount: %s</li>
			<li>Project: %s</li>
		</ul>
		<p><a href="%s">View the requisition</a></p>
		<p>Or copy this link to your browser: %s</p>
	</body></html>`,
		headline, html.EscapeString(in.RecipientName), html.EscapeString(action),
		in.Number, html.EscapeString(in.Title), amount, html.EscapeString(in.ProjectName),
		link, link)

	textBody := fmt.Sprintf(`%s

Hi %s,

%s

Number: %s
Title: %s
Amount: %s
Project: %s

View the requisition: %s
`,
		headline, in.RecipientName, action,
		in.Number, in.Title, amount, in.ProjectName,
		link)

	return Content{
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}

// actorNameFor resolves the display name of the actor stamped on the
// requisition for a given event type. Empty when the row carries no
// stamp for that event.
func actorNameFor(eventType domain.NotificationType, req *domain.Requisition, lookup func(uuid.UUID) string) string {
	switch eventType {
	case domain.NotificationRequisitionSubmitted:
		return lookup(req.SubmittedBy)
	case domain.NotificationRequisitionReviewed:
		if req.ReviewedBy != nil {
			return lookup(*req.ReviewedBy)
		}
	case domain.NotificationRequisitionApproved:
		if req.ApprovedBy != nil {
			return lookup(*req.ApprovedBy)
		}
	case domain.NotificationRequisitionRejected:
		// Rejection stamps no actor column; the reason carries the
		// context instead.
	}
	return ""
}
