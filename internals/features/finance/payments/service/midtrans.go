package service

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"

	"hoa_backend/internals/features/finance/payments/dto"
	"hoa_backend/internals/features/finance/payments/model"
)

type CustomerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type CheckoutRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Description string
	Customer    CustomerInput
}

type Checkout struct {
	Token       string
	RedirectURL string
}

// Gateway is an online checkout provider. Submissions in online mode create a
// checkout; the provider later reports the outcome through a signed webhook.
type Gateway interface {
	Provider() model.PaymentGatewayProvider
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	VerifyNotification(n dto.MidtransNotification) bool
}

type MidtransGateway struct {
	client    snap.Client
	serverKey string
}

// NewMidtransGateway returns nil when no server key is configured.
func NewMidtransGateway(serverKey string, useProduction bool) *MidtransGateway {
	if strings.TrimSpace(serverKey) == "" {
		return nil
	}
	g := &MidtransGateway{serverKey: serverKey}
	if useProduction {
		g.client.New(serverKey, midtrans.Production)
	} else {
		g.client.New(serverKey, midtrans.Sandbox)
	}
	return g
}

func (g *MidtransGateway) Provider() model.PaymentGatewayProvider {
	return model.GatewayProviderMidtrans
}

func (g *MidtransGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if req.OrderID == "" {
		return nil, errors.New("order id is required")
	}
	// Snap takes whole currency units.
	gross := req.Amount.Round(0).IntPart()
	if gross <= 0 {
		return nil, errors.New("invalid checkout amount")
	}

	sr := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.FirstName,
			LName: req.Customer.LastName,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:       req.OrderID,
			Price:    gross,
			Qty:      1,
			Name:     truncate(defaultString(req.Description, "HOA dues"), 50),
			Category: "HOA",
		}},
	}

	resp, err := g.client.CreateTransaction(sr)
	if err != nil {
		return nil, err
	}
	return &Checkout{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// VerifyNotification checks SHA512(order_id + status_code + gross_amount + server_key).
func (g *MidtransGateway) VerifyNotification(n dto.MidtransNotification) bool {
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if want == "" {
		return false
	}
	got := NotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, g.serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func NotificationSignature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

// GatewayAction is what a notification means for the payment.
type GatewayAction int

const (
	GatewayNoop GatewayAction = iota
	GatewayApprove
	GatewayReject
)

func MapMidtransStatus(n dto.MidtransNotification) GatewayAction {
	switch strings.ToLower(n.TransactionStatus) {
	case "settlement":
		return GatewayApprove
	case "capture":
		switch strings.ToLower(n.FraudStatus) {
		case "accept", "":
			return GatewayApprove
		case "challenge":
			return GatewayNoop
		}
		return GatewayReject
	case "deny", "cancel", "expire", "failure":
		return GatewayReject
	}
	return GatewayNoop
}

// truncate keeps at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
