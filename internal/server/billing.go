package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/wifinitylabs/wifinity/internal/billing/domain"
	"github.com/wifinitylabs/wifinity/internal/clock/clockctx"
)

type runBillingRequest struct {
	Now *time.Time `json:"now,omitempty"`
}

// RunBillingPass triggers a pass outside the schedule. An explicit now in
// the body pins the pass instant, which is how operators replay or test a
// specific billing day.
func (s *Server) RunBillingPass(c *gin.Context) {
	var req runBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "now must be RFC3339"})
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()
	if req.Now != nil {
		now = req.Now.UTC()
		ctx = clockctx.WithFrozenTime(ctx, now)
	}

	report, err := s.billingsvc.RunBillingPass(ctx, now)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, report)
}

func (s *Server) ChangePlan(c *gin.Context) {
	var req billingdomain.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, billingdomain.ErrInvalidPlan)
		return
	}
	req.SubscriptionID = c.Param("id")

	if err := s.billingsvc.ChangePlan(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "plan_changed"})
}
