// Package classify maps raw feed orders onto payment channels and decides
// which orders count as financially settled.
package classify

import (
	"strings"

	"github.com/aromat/cashflow/internal/domain"
)

// placeholderTitle is used when no payment-identifying field is present.
const placeholderTitle = "unknown"

// Marker substrings matched against the lowercased resolved payment title.
// The shop's payment titles are Russian; the two through-banks channels share
// the same title except for the country list, where only the region-1 variant
// names Finland.
const (
	markerPayPal   = "paypal"
	markerTransfer = "перевод"
	markerCard     = "карт"
	markerBanks    = "банки"
	markerRegion1  = "fi"
)

// titleExtractor pulls one optional payment-title candidate from an order.
type titleExtractor func(o *domain.Order) string

// titleChain is the ordered field-fallback chain for resolving a payment
// title: explicit title, nested method title, gateway kind, placeholder.
// First non-empty wins.
var titleChain = []titleExtractor{
	func(o *domain.Order) string { return o.PaymentTitle },
	func(o *domain.Order) string {
		if o.PaymentMethod == nil {
			return ""
		}
		return o.PaymentMethod.Title
	},
	func(o *domain.Order) string { return o.PaymentGatewayKind },
}

// ResolveTitle returns the display payment title for an order.
func ResolveTitle(o *domain.Order) string {
	for _, extract := range titleChain {
		if t := strings.TrimSpace(extract(o)); t != "" {
			return t
		}
	}
	return placeholderTitle
}

// Classify maps an order to exactly one channel. Classification is total and
// deterministic: the same order always yields the same channel, and orders
// with no recognizable payment title fall through to ChannelUnknown.
//
// The transfer marker is checked before the bank markers because the wire
// transfer title also contains the bank stem.
func Classify(o *domain.Order) domain.Channel {
	title := strings.ToLower(ResolveTitle(o))

	switch {
	case strings.Contains(title, markerPayPal):
		return domain.ChannelPayPal
	case strings.Contains(title, markerTransfer):
		return domain.ChannelWireTransfer
	case strings.Contains(title, markerCard):
		return domain.ChannelCard
	case strings.Contains(title, markerBanks):
		if strings.Contains(title, markerRegion1) {
			return domain.ChannelRegion1Bank
		}
		return domain.ChannelRegion2Bank
	default:
		return domain.ChannelUnknown
	}
}

// IsPaid reports whether an order is financially settled: explicit "paid"
// status, the boolean paid flag, or a paid timestamp — any one suffices.
func IsPaid(o *domain.Order) bool {
	if o.FinancialStatus == "paid" {
		return true
	}
	if o.Paid {
		return true
	}
	return o.PaidAt != nil
}
