package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/logistia/einvoice/internal/model"
	"github.com/logistia/einvoice/internal/mydata"
	"github.com/logistia/einvoice/internal/service"
	"github.com/logistia/einvoice/internal/store"
)

// Config holds server configuration
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server is the HTTP API over the invoice service
type Server struct {
	config  *Config
	router  *gin.Engine
	service *service.InvoiceService
	log     zerolog.Logger
}

// NewServer creates the API server
func NewServer(config *Config, svc *service.InvoiceService, log zerolog.Logger) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config:  config,
		router:  router,
		service: svc,
		log:     log.With().Str("component", "server").Logger(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1/accounts/:owner")
	{
		v1.POST("/invoices", s.handleCreateInvoice)
		v1.GET("/invoices", s.handleListInvoices)
		v1.GET("/invoices/:id", s.handleGetInvoice)
		v1.POST("/invoices/:id/payments", s.handleRecordPayment)
		v1.POST("/invoices/:id/send", s.handleSendInvoice)
		v1.POST("/invoices/:id/cancel", s.handleCancelInvoice)
		v1.GET("/transmitted", s.handleQueryTransmitted)

		v1.POST("/webhooks/payment", s.handlePaymentWebhook)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inv, err := buildInvoice(c.Param("owner"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	created, err := s.service.Create(c.Request.Context(), inv, actor(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListInvoices(c *gin.Context) {
	invs, err := s.service.List(c.Request.Context(), c.Param("owner"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invs})
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	inv, err := s.service.Get(c.Request.Context(), c.Param("owner"), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) handleRecordPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inv, err := s.service.RecordPayment(c.Request.Context(), c.Param("owner"), c.Param("id"), req.Amount, actor(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) handleSendInvoice(c *gin.Context) {
	inv, err := s.service.Send(c.Request.Context(), c.Param("owner"), c.Param("id"), credentialOverride(c), actor(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// handleCancelInvoice routes to local or protocol cancellation based
// on transmission state: transmitted invoices go through the
// authority, everything else is cancelled locally.
func (s *Server) handleCancelInvoice(c *gin.Context) {
	owner, id := c.Param("owner"), c.Param("id")

	current, err := s.service.Get(c.Request.Context(), owner, id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var inv *model.Invoice
	if current.IsTransmitted() {
		inv, err = s.service.CancelTransmitted(c.Request.Context(), owner, id, credentialOverride(c), actor(c))
	} else {
		inv, err = s.service.CancelLocal(c.Request.Context(), owner, id, actor(c))
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) handleQueryTransmitted(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from date, expected YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to date, expected YYYY-MM-DD"})
		return
	}

	docs, err := s.service.Query(c.Request.Context(), from, to, credentialOverride(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if docs == nil {
		docs = []mydata.RequestedInv{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handlePaymentWebhook(c *gin.Context) {
	var req WebhookInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	inv, err := buildInvoice(c.Param("owner"), req.CreateInvoiceRequest)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	inv.ExternalReference = req.ExternalReference

	result, created, err := s.service.CreateFromExternal(c.Request.Context(), inv, actor(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// writeError maps the error taxonomy onto HTTP statuses: validation
// and transition problems are the caller's to fix (422), credential
// failures are distinct (401), transient transport failures surface as
// a bad gateway with the invoice left pending, protocol rejections
// carry the authority's verbatim error list.
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		valErr   *model.ValidationError
		trErr    *model.TransitionError
		credErr  *model.CredentialsError
		rejErr   *model.RejectionError
		txErr    *model.TransmissionError
		allocErr *model.AllocationError
	)

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "invoice not found"})
	case errors.As(err, &valErr), errors.As(err, &trErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.As(err, &credErr):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.As(err, &rejErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "authority rejected the submission",
			Errors: rejErr.Errors,
		})
	case errors.As(err, &txErr):
		status := http.StatusBadGateway
		if !txErr.Transient {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
	case errors.As(err, &allocErr):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		s.log.Error().Err(err).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func buildInvoice(owner string, req CreateInvoiceRequest) (*model.Invoice, error) {
	inv := &model.Invoice{
		Owner:         owner,
		Series:        req.Series,
		Type:          req.Type,
		Currency:      req.Currency,
		Issuer:        req.Issuer,
		Counterpart:   req.Counterpart,
		PaymentMethod: req.PaymentMethod,
		Lines:         req.Lines,
		Notes:         req.Notes,
	}

	if req.IssueDate != "" {
		d, err := time.Parse("2006-01-02", req.IssueDate)
		if err != nil {
			return nil, errors.New("invalid issue_date, expected YYYY-MM-DD")
		}
		inv.IssueDate = d
	}
	if req.DueDate != "" {
		d, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return nil, errors.New("invalid due_date, expected YYYY-MM-DD")
		}
		inv.DueDate = &d
	}

	return inv, nil
}

// actor identifies who performed the action for the audit log. The
// module's own API is unauthenticated; upstream gateways pass the
// acting user through this header.
func actor(c *gin.Context) string {
	if a := c.GetHeader("X-Actor"); a != "" {
		return a
	}
	return "api"
}

// credentialOverride reads the optional per-business credential pair
// from transport headers, never from the payload.
func credentialOverride(c *gin.Context) mydata.Credentials {
	return mydata.Credentials{
		UserID:          c.GetHeader("X-MyData-User"),
		SubscriptionKey: c.GetHeader("X-MyData-Key"),
	}
}
