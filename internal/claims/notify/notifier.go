package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"uppf-engine/internal/claims/application"
)

// AgingNotifier renders aging alerts and sends them through a channel.
type AgingNotifier struct {
	channel  Channel
	tenantID string
}

// NewAgingNotifier constructs a notifier.
func NewAgingNotifier(channel Channel, tenantID string) (*AgingNotifier, error) {
	if channel == nil {
		return nil, errors.New("aging notifier: nil channel")
	}
	return &AgingNotifier{channel: channel, tenantID: tenantID}, nil
}

// NotifyAging sends one aging alert.
func (n *AgingNotifier) NotifyAging(ctx context.Context, alert application.ClaimAgingAlert) error {
	if n == nil || n.channel == nil {
		return errors.New("aging notifier: nil channel")
	}
	return n.channel.Send(ctx, formatAgingAlert(n.tenantID, alert))
}

func formatAgingAlert(tenantID string, alert application.ClaimAgingAlert) string {
	var b strings.Builder
	b.WriteString("[UPPF Aging Alert]\n")
	if tenantID != "" {
		fmt.Fprintf(&b, "Tenant: %s\n", tenantID)
	}
	fmt.Fprintf(&b, "Claim: %s\n", alert.ClaimID)
	fmt.Fprintf(&b, "Window: %s\n", alert.WindowID)
	fmt.Fprintf(&b, "Amount Due: %.2f\n", alert.AmountDue)
	fmt.Fprintf(&b, "Days Outstanding: %d\n", alert.DaysAging)
	b.WriteString("Suggested: follow up with the regulator on payment status")
	return b.String()
}
