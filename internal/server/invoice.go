package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
)

func (s *Server) ListInvoices(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("subscription_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, invoicedomain.ErrInvoiceNotFound)
			return
		}
		invoices, err := s.invoiceRepo.ListBySubscription(ctx, s.db, id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		respondData(c, invoices)
		return
	}

	raw := c.Query("subscriber_id")
	id, err := parseID(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "subscriber_id or subscription_id is required"})
		return
	}
	invoices, err := s.invoiceRepo.ListBySubscriber(ctx, s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, invoices)
}

func (s *Server) GetInvoice(c *gin.Context) {
	inv := s.loadInvoice(c)
	if inv == nil {
		return
	}
	respondData(c, inv)
}

func (s *Server) GetInvoiceHTML(c *gin.Context) {
	inv := s.loadInvoice(c)
	if inv == nil {
		return
	}

	subscriber, err := s.subscriberRepo.FindByID(c.Request.Context(), s.db, inv.SubscriberID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if subscriber == nil {
		subscriber = &subscriberdomain.Subscriber{}
	}

	html, err := s.renderer.RenderHTML(inv, subscriber)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) loadInvoice(c *gin.Context) *invoicedomain.Invoice {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, invoicedomain.ErrInvoiceNotFound)
		return nil
	}

	inv, err := s.invoiceRepo.FindByID(c.Request.Context(), s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return nil
	}
	if inv == nil {
		AbortWithError(c, invoicedomain.ErrInvoiceNotFound)
		return nil
	}
	return inv
}

func parseID(raw string) (snowflake.ID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, strconv.ErrSyntax
	}
	return snowflake.ID(n), nil
}
