// Package notifications maps stored notification message IDs to renderable
// header and body copy. Bodies are rendered through html/template so any
// value interpolated from the database or user input is escaped; templates
// may carry their own markup (links, emphasis) which survives escaping.
package notifications

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

// Well-known message IDs written by other parts of the system.
const (
	MessageOrgPaymentFailed   = "org:billing:payment-failed"
	MessageOrgTrialEnding     = "org:trial:ending"
	MessageOrgBuildQuotaNear  = "org:builds:quota-near"
	MessageOrgEmailUnverified = "org:email:unverified"
)

const (
	genericHeader = "Notification"
	genericBody   = "You have a new notification."
)

// Rendered is localized display copy for one stored notification.
type Rendered struct {
	MessageID string
	Header    string
	Body      template.HTML
}

type entry struct {
	header string
	body   *template.Template
}

// Registry maps message IDs to header and body templates.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a message definition. The body is parsed as an html/template,
// so interpolated values are escaped while markup in the template survives.
func (r *Registry) Register(messageID, header, body string) error {
	if strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("message ID is required")
	}

	tmpl, err := template.New(messageID).Parse(body)
	if err != nil {
		return fmt.Errorf("failed to parse body template for %s: %w", messageID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[messageID] = entry{header: header, body: tmpl}
	return nil
}

// MustRegister is Register that panics on error, for package init wiring.
func (r *Registry) MustRegister(messageID, header, body string) {
	if err := r.Register(messageID, header, body); err != nil {
		panic(err)
	}
}

// Render produces display copy for a message ID. Unknown IDs fall back to a
// generic notification rather than erroring, so a stale row written by a
// newer or older deployment still renders.
func (r *Registry) Render(messageID string, data any) Rendered {
	r.mu.RLock()
	e, ok := r.entries[messageID]
	r.mu.RUnlock()

	if !ok {
		return Rendered{MessageID: messageID, Header: genericHeader, Body: template.HTML(genericBody)}
	}

	var buf strings.Builder
	if err := e.body.Execute(&buf, data); err != nil {
		return Rendered{MessageID: messageID, Header: e.header, Body: template.HTML(genericBody)}
	}

	return Rendered{MessageID: messageID, Header: e.header, Body: template.HTML(buf.String())}
}

// Known reports whether the registry has a definition for the message ID.
func (r *Registry) Known(messageID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[messageID]
	return ok
}

// Default returns a registry preloaded with the built-in message catalog.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister(MessageOrgPaymentFailed,
		"Payment failed",
		`The last payment for this organization failed. <a href="/settings/billing">Update your billing details</a> to keep documentation builds running.`)
	r.MustRegister(MessageOrgTrialEnding,
		"Trial ending soon",
		`Your trial ends on {{.EndDate}}. <a href="/settings/billing">Choose a plan</a> to avoid interruption.`)
	r.MustRegister(MessageOrgBuildQuotaNear,
		"Build quota almost used",
		`This organization has used {{.UsedPercent}}% of its monthly build quota.`)
	r.MustRegister(MessageOrgEmailUnverified,
		"Email address not verified",
		`The contact address {{.Email}} has not been verified. Check your inbox for the confirmation link.`)
	return r
}
