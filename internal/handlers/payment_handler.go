package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/postcraft/backend/internal/middleware"
	"github.com/postcraft/backend/internal/models"
	"github.com/postcraft/backend/internal/payments"
	"github.com/postcraft/backend/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	razorpaySignatureHeader = "X-Razorpay-Signature"
	eventPaymentCaptured    = "payment.captured"
)

type PaymentHandler struct {
	topUps        *services.TopUpService
	validator     *services.ValidationHelper
	keySecret     string
	webhookSecret string
	log           logrus.FieldLogger
}

func NewPaymentHandler(topUps *services.TopUpService, keySecret, webhookSecret string, log logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{
		topUps:        topUps,
		validator:     services.NewValidationHelper(),
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// VerifyPaymentRequest is posted by the checkout client after a successful payment.
type VerifyPaymentRequest struct {
	OrderID   string `json:"orderId" validate:"required,notblank"`
	PaymentID string `json:"paymentId" validate:"required,notblank"`
	Signature string `json:"signature" validate:"required,notblank"`
	Amount    int64  `json:"amount" validate:"required,gt=0"` // INR
}

// TopUpResponse reports the balance after a top-up.
type TopUpResponse struct {
	Success bool  `json:"success"`
	Applied bool  `json:"applied"`
	Credits int64 `json:"credits"`
}

// WebhookAck acknowledges a webhook delivery.
type WebhookAck struct {
	Status    string `json:"status"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// VerifyPayment confirms a checkout payment and credits the caller
// @Summary Verify checkout payment
// @Description Checks the Razorpay checkout signature, confirms the payment with Razorpay and adds the credits for the paid amount. Replays return the current balance with applied=false.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VerifyPaymentRequest true "Checkout result"
// @Success 200 {object} TopUpResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /payments/verify [post]
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if apiErr := services.DecodeJSONBody(w, r, &req); apiErr != nil {
		services.SendErrorResponse(w, apiErr)
		return
	}
	if apiErr := h.validator.Validate(req); apiErr != nil {
		services.SendErrorResponse(w, apiErr)
		return
	}

	if h.keySecret == "" {
		services.SendErrorResponse(w, services.NewAPIError(http.StatusServiceUnavailable, services.CodePaymentsUnavailable, "Payments are not configured"))
		return
	}
	if !payments.VerifyCheckoutSignature(req.OrderID, req.PaymentID, req.Signature, h.keySecret) {
		h.log.WithField("payment_id", req.PaymentID).Warn("checkout signature mismatch")
		services.SendErrorResponse(w, services.NewAPIError(http.StatusBadRequest, services.CodeInvalidSignature, "Payment signature is invalid"))
		return
	}

	result, err := h.topUps.ApplyTopUp(r.Context(), models.PaymentEvent{
		Provider:  payments.ProviderRazorpay,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		AccountID: middleware.AccountIDFromContext(r.Context()),
		Amount:    req.Amount,
	})
	if err != nil {
		services.SendErrorResponse(w, services.TopUpError(err))
		return
	}

	services.SendJSON(w, http.StatusOK, TopUpResponse{Success: true, Applied: result.Applied, Credits: result.Balance})
}

// RazorpayWebhook credits captured payments reported by Razorpay
// @Summary Razorpay webhook
// @Description Verifies X-Razorpay-Signature and credits payment.captured events to notes.account_id. Other events are acknowledged and ignored. Permanent rejections are acknowledged with 200 so Razorpay stops retrying.
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string true "HMAC-SHA256 of the body"
// @Success 200 {object} WebhookAck
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /payments/razorpay/webhook [post]
func (h *PaymentHandler) RazorpayWebhook(w http.ResponseWriter, r *http.Request) {
	body, apiErr := services.ReadJSONBody(w, r)
	if apiErr != nil {
		services.SendErrorResponse(w, apiErr)
		return
	}

	if h.webhookSecret == "" {
		services.SendErrorResponse(w, services.NewAPIError(http.StatusServiceUnavailable, services.CodePaymentsUnavailable, "Payments are not configured"))
		return
	}
	if !payments.VerifyWebhookSignature(body, r.Header.Get(razorpaySignatureHeader), h.webhookSecret) {
		h.log.Warn("webhook signature mismatch")
		services.SendErrorResponse(w, services.NewAPIError(http.StatusUnauthorized, services.CodeInvalidSignature, "Webhook signature is invalid"))
		return
	}

	var event payments.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		services.SendErrorResponse(w, services.NewAPIError(http.StatusBadRequest, services.CodeInvalidRequest, "Invalid webhook payload"))
		return
	}

	log := h.log.WithField("event", event.Event)
	if event.Event != eventPaymentCaptured {
		log.Debug("webhook event ignored")
		services.SendJSON(w, http.StatusOK, WebhookAck{Status: "ignored"})
		return
	}

	payment := event.Payload.Payment.Entity
	accountID := payment.Notes["account_id"]
	if payment.ID == "" || accountID == "" || payment.Amount%payments.MinorUnits != 0 {
		log.WithField("payment_id", payment.ID).Warn("captured payment cannot be attributed")
		services.SendJSON(w, http.StatusOK, WebhookAck{Status: "rejected", ErrorCode: services.CodeInvalidPaymentEvent})
		return
	}

	result, err := h.topUps.ApplyTopUp(r.Context(), models.PaymentEvent{
		Provider:  payments.ProviderRazorpay,
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		AccountID: accountID,
		Amount:    payment.Amount / payments.MinorUnits,
	})
	if err != nil {
		apiErr := services.TopUpError(err)
		if permanentTopUpFailure(err) {
			log.WithError(err).WithField("payment_id", payment.ID).Warn("webhook payment rejected")
			services.SendJSON(w, http.StatusOK, WebhookAck{Status: "rejected", ErrorCode: apiErr.Code})
			return
		}
		services.SendErrorResponse(w, apiErr)
		return
	}

	status := "applied"
	if !result.Applied {
		status = "duplicate"
	}
	services.SendJSON(w, http.StatusOK, WebhookAck{Status: status})
}

// permanentTopUpFailure reports whether redelivering the same event can never succeed.
func permanentTopUpFailure(err error) bool {
	return errors.Is(err, services.ErrInvalidEvent) ||
		errors.Is(err, services.ErrPaymentNotConfirmed) ||
		errors.Is(err, services.ErrAccountNotFound)
}
