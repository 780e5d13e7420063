package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel is a payment-method category used to partition revenue for
// settlement-timing purposes.
type Channel string

const (
	ChannelRegion1Bank  Channel = "region1_bank"
	ChannelRegion2Bank  Channel = "region2_bank"
	ChannelCard         Channel = "card"
	ChannelPayPal       Channel = "paypal"
	ChannelWireTransfer Channel = "wire_transfer"
	ChannelUnknown      Channel = "unknown"
)

// Channels lists all channels in reporting order.
var Channels = []Channel{
	ChannelRegion1Bank,
	ChannelRegion2Bank,
	ChannelCard,
	ChannelPayPal,
	ChannelWireTransfer,
	ChannelUnknown,
}

// PaymentMethod is the nested payment descriptor on a feed order.
type PaymentMethod struct {
	Title string `json:"title"`
}

// Order is a single order as returned by the external feed. Orders are
// externally owned and immutable per fetch; they are never cached across
// recompute invocations.
type Order struct {
	ID                 int64           `json:"id"`
	CreatedAt          time.Time       `json:"created_at"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	FinancialStatus    string          `json:"financial_status"`
	Paid               bool            `json:"paid"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	PaymentTitle       string          `json:"payment_title,omitempty"`
	PaymentMethod      *PaymentMethod  `json:"payment_method,omitempty"`
	PaymentGatewayKind string          `json:"payment_gateway_kind,omitempty"`
}
