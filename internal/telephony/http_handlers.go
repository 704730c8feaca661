package telephony

import (
	"context"
	"net/http"

	"crm-platform/internal/calls"
	"crm-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StatusSink applies one provider status callback to the call record.
// calls.Service satisfies it.
type StatusSink interface {
	ApplyProviderStatus(ctx context.Context, providerCallID string, status calls.CallStatus, durationSeconds int) error
}

// InboundSMSSink records an incoming text message. messages.Service
// satisfies it.
type InboundSMSSink interface {
	RecordInboundSMS(ctx context.Context, providerMessageID, from, to, body string) error
}

// WebhookHandlers terminates provider webhooks: parse the form, map raw
// provider strings to internal types, delegate, answer. No business logic
// here.
//
// NOTE: these endpoints should be protected by provider signature
// validation in production.
type WebhookHandlers struct {
	Calls    StatusSink
	Messages InboundSMSSink

	// Voice document defaults; per-call overrides come from query params.
	Greeting string
	CallerID string
}

// HandleStatusCallback consumes the voice status webhook. The provider
// retries on non-2xx, so parse problems are answered 400 and everything
// else 200.
func (h WebhookHandlers) HandleStatusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	cb, err := ParseStatusCallback(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if cb.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}

	status := calls.ParseProviderStatus(cb.CallStatus)
	if status == calls.CallStatusUnknown {
		// Distinguishable, not silently coerced; acknowledged so the
		// provider stops retrying.
		log.Warn("unmapped provider call status", "call_sid", cb.CallSid, "raw", cb.CallStatus)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if err := h.Calls.ApplyProviderStatus(c.Request.Context(), cb.CallSid, status, cb.DurationSeconds); err != nil {
		log.Error("status callback apply failed", "call_sid", cb.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleVoice returns the voice markup document the provider fetches when
// the callee answers: speak the greeting, then bridge.
func (h WebhookHandlers) HandleVoice(c *gin.Context) {
	log := logger.FromGin(c)

	greeting := c.Query("greeting")
	if greeting == "" {
		greeting = h.Greeting
	}
	twiml, err := RenderVoiceTwiML(VoiceResponse{
		Greeting: greeting,
		DialTo:   c.Query("dial"),
		CallerID: h.CallerID,
	})
	if err != nil {
		log.Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

// HandleInboundSMS records an incoming message for the communications
// history view.
func (h WebhookHandlers) HandleInboundSMS(c *gin.Context) {
	log := logger.FromGin(c)

	sms, err := ParseInboundSMS(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if sms.MessageSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "MessageSid required"})
		return
	}

	if err := h.Messages.RecordInboundSMS(c.Request.Context(), sms.MessageSid, sms.From, sms.To, sms.Body); err != nil {
		log.Error("inbound sms record failed", "message_sid", sms.MessageSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "record failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
