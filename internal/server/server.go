package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/wifinitylabs/wifinity/internal/billing/domain"
	"github.com/wifinitylabs/wifinity/internal/invoice/render"
	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
	usagedomain "github.com/wifinitylabs/wifinity/internal/usage/domain"
)

type Server struct {
	log *zap.Logger
	db  *gorm.DB

	billingsvc   billingdomain.Service
	usagesvc     usagedomain.Service
	orchestrator paymentdomain.Orchestrator

	invoiceRepo    invoicedomain.Repository
	subscriberRepo subscriberdomain.Repository
	renderer       *render.Renderer
}

type Param struct {
	fx.In

	Log *zap.Logger
	DB  *gorm.DB

	Billing      billingdomain.Service
	Usage        usagedomain.Service
	Orchestrator paymentdomain.Orchestrator

	InvoiceRepo    invoicedomain.Repository
	SubscriberRepo subscriberdomain.Repository
	Renderer       *render.Renderer
}

func NewServer(p Param) *Server {
	return &Server{
		log: p.Log.Named("server"),
		db:  p.DB,

		billingsvc:   p.Billing,
		usagesvc:     p.Usage,
		orchestrator: p.Orchestrator,

		invoiceRepo:    p.InvoiceRepo,
		subscriberRepo: p.SubscriberRepo,
		renderer:       p.Renderer,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/usage", s.IngestUsage)

		v1.GET("/invoices", s.ListInvoices)
		v1.GET("/invoices/:id", s.GetInvoice)
		v1.GET("/invoices/:id/html", s.GetInvoiceHTML)

		v1.POST("/billing/run", s.RunBillingPass)
		v1.POST("/subscriptions/:id/change-plan", s.ChangePlan)

		v1.POST("/payments/callback/:invoice_id", s.PaymentCallback)
	}
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(503, gin.H{"status": "degraded"})
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}
