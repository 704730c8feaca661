package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/auth"
	"crm-platform/internal/calls"
	"crm-platform/internal/contacts"
	"crm-platform/internal/deals"
	"crm-platform/internal/email"
	"crm-platform/internal/leads"
	"crm-platform/internal/messages"
	"crm-platform/internal/reporting"
	"crm-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Contacts  *contacts.Service
	Deals     *deals.Service
	Leads     *leads.Service
	Messages  *messages.Service
	Calls     *calls.Service
	Activity  *activity.Service
	Reporting *reporting.Service
}

// fail maps service errors onto HTTP statuses in one place so handlers stay
// uniform.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, contacts.ErrNotFound),
		errors.Is(err, deals.ErrNotFound),
		errors.Is(err, leads.ErrNotFound),
		errors.Is(err, messages.ErrNotFound),
		errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, contacts.ErrInvalid),
		errors.Is(err, deals.ErrInvalid),
		errors.Is(err, deals.ErrUnknownStage),
		errors.Is(err, leads.ErrInvalid),
		errors.Is(err, messages.ErrInvalid),
		errors.Is(err, calls.ErrInvalidRequest),
		errors.Is(err, reporting.ErrInvalidRange):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, leads.ErrAlreadyConverted),
		errors.Is(err, calls.ErrCallInFlight):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, telephony.ErrNotConfigured),
		errors.Is(err, email.ErrNotConfigured):
		// User-actionable: fix provider settings, then retry.
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func limitQuery(c *gin.Context) int {
	n, _ := strconv.Atoi(c.Query("limit"))
	return n
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: credential validation is out of scope here; an identity provider in
// front of this API is assumed.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role"`
}

func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), claims.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

func (h Handlers) Me(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "role": role})
}

// --- Contacts ---

func (h Handlers) CreateContact(c *gin.Context) {
	var in contacts.Contact
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Contacts.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) ListContacts(c *gin.Context) {
	out, err := h.Contacts.List(c.Request.Context(), c.Query("search"), limitQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": out})
}

func (h Handlers) GetContact(c *gin.Context) {
	out, err := h.Contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UpdateContact(c *gin.Context) {
	var in contacts.Contact
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	in.ID = c.Param("id")
	out, err := h.Contacts.Update(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DeleteContact(c *gin.Context) {
	if err := h.Contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ContactTimeline(c *gin.Context) {
	out, err := h.Activity.Timeline(c.Request.Context(), c.Param("id"), limitQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

func (h Handlers) ContactMessages(c *gin.Context) {
	out, err := h.Messages.History(c.Request.Context(), c.Param("id"), limitQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func (h Handlers) ContactCalls(c *gin.Context) {
	out, err := h.Calls.ListByContact(c.Request.Context(), c.Param("id"), limitQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": out})
}

// --- Messaging ---

type sendSMSRequest struct {
	Body string `json:"body"`
}

func (h Handlers) SendSMS(c *gin.Context) {
	userID, _ := auth.UserID(c.Request.Context())
	var req sendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Messages.SendSMS(c.Request.Context(), c.Param("id"), userID, req.Body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type sendEmailRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h Handlers) SendEmail(c *gin.Context) {
	userID, _ := auth.UserID(c.Request.Context())
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Messages.SendEmail(c.Request.Context(), c.Param("id"), userID, req.Subject, req.Body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// --- Calls ---

type createCallRequest struct {
	ContactID string `json:"contact_id"`
	To        string `json:"to"`
	Notes     string `json:"notes,omitempty"`
}

// CreateCall is the click-to-call entry point. Either an explicit number or a
// contact id (whose phone becomes the destination) must be given.
func (h Handlers) CreateCall(c *gin.Context) {
	userID, _ := auth.UserID(c.Request.Context())
	var req createCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	to := req.To
	if to == "" && req.ContactID != "" {
		ct, err := h.Contacts.Get(c.Request.Context(), req.ContactID)
		if err != nil {
			fail(c, err)
			return
		}
		to = ct.Phone
	}

	out, err := h.Calls.CreateAndPlace(c.Request.Context(), calls.CreateCallRequest{
		UserID:    userID,
		ContactID: req.ContactID,
		To:        to,
		Notes:     req.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) GetCall(c *gin.Context) {
	out, err := h.Calls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) HangupCall(c *gin.Context) {
	if err := h.Calls.Hangup(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Deals ---

func (h Handlers) CreateDeal(c *gin.Context) {
	userID, _ := auth.UserID(c.Request.Context())
	var in deals.Deal
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if in.OwnerID == "" {
		in.OwnerID = userID
	}
	out, err := h.Deals.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) DealBoard(c *gin.Context) {
	out, err := h.Deals.Board(c.Request.Context(), limitQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetDeal(c *gin.Context) {
	out, err := h.Deals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UpdateDeal(c *gin.Context) {
	var in deals.Deal
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	in.ID = c.Param("id")
	out, err := h.Deals.Update(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DeleteDeal(c *gin.Context) {
	if err := h.Deals.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type moveDealRequest struct {
	Stage string `json:"stage"`
}

func (h Handlers) MoveDeal(c *gin.Context) {
	userID, _ := auth.UserID(c.Request.Context())
	var req moveDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Deals.MoveStage(c.Request.Context(), c.Param("id"), req.Stage, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Leads ---

func (h Handlers) CreateLead(c *gin.Context) {
	userID, _ := auth.UserID(c.Request.Context())
	var in leads.Lead
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if in.OwnerID == "" {
		in.OwnerID = userID
	}
	out, err := h.Leads.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) ListLeads(c *gin.Context) {
	out, err := h.Leads.List(c.Request.Context(), leads.LeadStatus(c.Query("status")), limitQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": out})
}

func (h Handlers) GetLead(c *gin.Context) {
	out, err := h.Leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) UpdateLead(c *gin.Context) {
	var in leads.Lead
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	in.ID = c.Param("id")
	out, err := h.Leads.Update(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DeleteLead(c *gin.Context) {
	if err := h.Leads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ConvertLead(c *gin.Context) {
	userID, _ := auth.UserID(c.Request.Context())
	out, err := h.Leads.Convert(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Dashboard ---

// Dashboard serves GET /v1/dashboard?from=&to= (RFC 3339); the default
// window is the last 7 days.
func (h Handlers) Dashboard(c *gin.Context) {
	now := time.Now().UTC()
	rng := reporting.TimeRange{From: now.AddDate(0, 0, -7), To: now}

	if v := c.Query("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
		rng.From = ts
	}
	if v := c.Query("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
		rng.To = ts
	}

	out, err := h.Reporting.Dashboard(c.Request.Context(), rng)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
