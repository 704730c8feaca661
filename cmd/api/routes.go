package main

import (
	"crm-platform/internal/httpapi"
	"crm-platform/internal/rbac"
	"crm-platform/internal/realtime"
	"crm-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, wh telephony.WebhookHandlers, socket *realtime.Handler, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: these endpoints should be protected by provider signature
	// validation in production.
	wb := r.Group("/webhooks/twilio")
	{
		wb.POST("/voice", wh.HandleVoice)
		wb.POST("/status", wh.HandleStatusCallback)
		wb.POST("/sms", wh.HandleInboundSMS)
	}

	// Token issuance (public).
	authGroup := r.Group("/v1/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", h.Me)
		v1.GET("/dashboard", h.Dashboard)

		contactsGroup := v1.Group("/contacts")
		{
			contactsGroup.GET("", h.ListContacts)
			contactsGroup.GET("/:id", h.GetContact)
			contactsGroup.GET("/:id/timeline", h.ContactTimeline)
			contactsGroup.GET("/:id/messages", h.ContactMessages)
			contactsGroup.GET("/:id/calls", h.ContactCalls)

			edit := contactsGroup.Group("")
			edit.Use(rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleAgent))
			{
				edit.POST("", h.CreateContact)
				edit.PUT("/:id", h.UpdateContact)
				edit.DELETE("/:id", h.DeleteContact)
			}

			// Outbound communication needs a communicator role.
			comm := contactsGroup.Group("")
			comm.Use(rbac.RequireCommunicator())
			{
				comm.POST("/:id/sms", h.SendSMS)
				comm.POST("/:id/email", h.SendEmail)
			}
		}

		callsGroup := v1.Group("/calls")
		{
			callsGroup.GET("/:id", h.GetCall)
			callsGroup.GET("/:id/socket", socket.HandleCallSocket)

			place := callsGroup.Group("")
			place.Use(rbac.RequireCommunicator())
			{
				place.POST("", h.CreateCall)
				place.POST("/:id/hangup", h.HangupCall)
			}
		}

		dealsGroup := v1.Group("/deals")
		{
			dealsGroup.GET("/board", h.DealBoard)
			dealsGroup.GET("/:id", h.GetDeal)

			edit := dealsGroup.Group("")
			edit.Use(rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleAgent))
			{
				edit.POST("", h.CreateDeal)
				edit.PUT("/:id", h.UpdateDeal)
				edit.DELETE("/:id", h.DeleteDeal)
				edit.POST("/:id/stage", h.MoveDeal)
			}
		}

		leadsGroup := v1.Group("/leads")
		{
			leadsGroup.GET("", h.ListLeads)
			leadsGroup.GET("/:id", h.GetLead)

			edit := leadsGroup.Group("")
			edit.Use(rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleAgent))
			{
				edit.POST("", h.CreateLead)
				edit.PUT("/:id", h.UpdateLead)
				edit.DELETE("/:id", h.DeleteLead)
				edit.POST("/:id/convert", h.ConvertLead)
			}
		}
	}
}
