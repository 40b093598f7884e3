package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/routinematch/backend/internal/domain"
	"github.com/routinematch/backend/internal/logging"
)

const (
	serviceName    = "routinematch-backend"
	serviceVersion = "1.0.0"
)

// Recommender builds a product basket for a quiz profile
type Recommender interface {
	Recommend(ctx context.Context, profile domain.UserProfile) (*domain.RecommendationResult, error)
}

// HandlerConfig holds request defaults and feature flags
type HandlerConfig struct {
	FakePayments      bool
	ChargeAmount      float64
	ChargeDescription string
	ImageCacheControl string
}

// Handler holds dependencies for HTTP handlers.
// A nil charge service or lead sink means the feature is not configured.
type Handler struct {
	recommender Recommender
	charges     domain.ChargeService
	leads       domain.LeadSink
	images      domain.ImageFetcher
	config      HandlerConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(recommender Recommender, charges domain.ChargeService, leads domain.LeadSink, images domain.ImageFetcher, config HandlerConfig) *Handler {
	if config.ChargeAmount <= 0 {
		config.ChargeAmount = 4.99
	}
	if config.ChargeDescription == "" {
		config.ChargeDescription = "Desbloqueio recomendações + cupom APP10"
	}
	if config.ImageCacheControl == "" {
		config.ImageCacheControl = "public, max-age=3600"
	}
	return &Handler{
		recommender: recommender,
		charges:     charges,
		leads:       leads,
		images:      images,
		config:      config,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"status":   "healthy",
		"service":  serviceName,
		"version":  serviceVersion,
		"fakePix":  h.charges != nil && h.config.FakePayments,
		"payments": h.charges != nil,
		"sheets":   h.leads != nil,
	})
}

// quizAnswers is the answer set posted by the quiz front end
type quizAnswers struct {
	Skin        string   `json:"pele"`
	Sensitivity string   `json:"sensibilidade"`
	Concerns    []string `json:"inc"`
	Budget      string   `json:"orcamento"`
	Family      string   `json:"familia"`
}

type generateRequest struct {
	Answers *quizAnswers `json:"answers"`
	domain.UserProfile
}

// GenerateProducts handles the quiz endpoint. It accepts the quiz answers or the profile fields.
func (h *Handler) GenerateProducts(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	profile := req.UserProfile
	if req.Answers != nil {
		profile = req.Answers.profile()
	} else if isEmptyProfile(profile) {
		respondError(c, http.StatusBadRequest, "answers ausente")
		return
	}

	h.recommend(c, profile)
}

// Recommend handles the profile based recommendation endpoint
func (h *Handler) Recommend(c *gin.Context) {
	var profile domain.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		respondError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	h.recommend(c, profile)
}

func (h *Handler) recommend(c *gin.Context, profile domain.UserProfile) {
	result, err := h.recommender.Recommend(c.Request.Context(), profile)
	if err != nil {
		h.handleError(c, err, "Falha ao gerar produtos")
		return
	}
	c.JSON(http.StatusOK, result)
}

type saveLeadResponse struct {
	OK bool `json:"ok"`
}

// SaveLead forwards a captured lead to the lead sink
func (h *Handler) SaveLead(c *gin.Context) {
	if h.leads == nil {
		respondLeadError(c, http.StatusServiceUnavailable, "captura de leads não configurada")
		return
	}

	var lead domain.Lead
	if err := c.ShouldBindJSON(&lead); err != nil {
		respondLeadError(c, http.StatusBadRequest, "nome/email/telefone são obrigatórios")
		return
	}

	if err := h.leads.SubmitLead(c.Request.Context(), lead); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			respondLeadError(c, http.StatusBadRequest, "nome/email/telefone são obrigatórios")
		case errors.Is(err, domain.ErrLeadSinkFailure):
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("[HTTP] lead webhook failed")
			respondLeadError(c, http.StatusBadGateway, "Falha ao gravar no Sheets")
		default:
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("[HTTP] save lead failed")
			respondLeadError(c, http.StatusInternalServerError, "Erro interno ao salvar lead")
		}
		return
	}

	c.JSON(http.StatusOK, saveLeadResponse{OK: true})
}

type createChargeRequest struct {
	Amount      *float64 `json:"amount"`
	Description string   `json:"description"`
	Name        string   `json:"nome"`
	Email       string   `json:"email"`
}

// CreateCharge creates a PIX charge that unlocks the full recommendation
func (h *Handler) CreateCharge(c *gin.Context) {
	if h.charges == nil {
		respondError(c, http.StatusServiceUnavailable, "Mercado Pago não configurado")
		return
	}

	var req createChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	amount := h.config.ChargeAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 {
		respondError(c, http.StatusBadRequest, "valor inválido")
		return
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = h.config.ChargeDescription
	}

	charge, err := h.charges.CreateCharge(c.Request.Context(), domain.ChargeRequest{
		Amount:      amount,
		Description: description,
		PayerName:   req.Name,
		PayerEmail:  req.Email,
	})
	if err != nil {
		h.handleError(c, err, "Falha ao criar Pix")
		return
	}
	c.JSON(http.StatusOK, charge)
}

type chargeStatusResponse struct {
	Status string `json:"status"`
	Fake   bool   `json:"fake"`
}

// ChargeStatus reports the status of a PIX charge
func (h *Handler) ChargeStatus(c *gin.Context) {
	if h.charges == nil {
		respondError(c, http.StatusServiceUnavailable, "Mercado Pago não configurado")
		return
	}

	id := strings.TrimSpace(c.Query("id"))
	if id == "" && !h.config.FakePayments {
		respondError(c, http.StatusBadRequest, "id ausente")
		return
	}

	status, err := h.charges.ChargeStatus(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "Falha ao consultar status")
		return
	}
	c.JSON(http.StatusOK, chargeStatusResponse{Status: status, Fake: h.config.FakePayments})
}

// RelayImage streams a catalog image so the front end can show it without mixed content
func (h *Handler) RelayImage(c *gin.Context) {
	body, contentType, err := h.images.Fetch(c.Request.Context(), c.Query("u"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			c.String(http.StatusBadRequest, "Bad url")
		case errors.Is(err, domain.ErrUpstreamImage):
			logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("[HTTP] image upstream failed")
			c.String(http.StatusBadGateway, "Bad upstream")
		default:
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("[HTTP] image relay failed")
			c.String(http.StatusInternalServerError, "Proxy error")
		}
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, body, map[string]string{
		"Cache-Control": h.config.ImageCacheControl,
	})
}

// handleError maps domain errors to status codes
func (h *Handler) handleError(c *gin.Context, err error, fallback string) {
	status, message := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownFamily):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNoCandidates):
		status, message = http.StatusNotFound, "Nenhum produto encontrado para o seu perfil"
	case errors.Is(err, domain.ErrChargeFailure), errors.Is(err, domain.ErrLeadSinkFailure):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}

	event := logging.Ctx(c.Request.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(c.Request.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("[HTTP] request failed")

	respondError(c, status, message)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondLeadError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "error": message})
}

// profile maps the quiz answers to a user profile
func (a *quizAnswers) profile() domain.UserProfile {
	return domain.UserProfile{
		Family:    familyFromAnswer(a.Family),
		SkinType:  a.Skin,
		Sensitive: isAffirmative(a.Sensitivity),
		Concerns:  a.Concerns,
		Budget:    a.Budget,
	}
}

// familyFromAnswer accepts the quiz wording as well as the family identifiers
func familyFromAnswer(answer string) domain.ProductFamily {
	switch a := strings.ToLower(strings.TrimSpace(answer)); a {
	case "", "rosto", "pele", "facial", "skin":
		return domain.FamilyFace
	case "cabelo", "cabelos", "capilar":
		return domain.FamilyHair
	default:
		return domain.ProductFamily(a)
	}
}

func isAffirmative(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return strings.HasPrefix(a, "sim") || a == "yes" || a == "true"
}

func isEmptyProfile(p domain.UserProfile) bool {
	return p.Family == "" && p.SkinType == "" && !p.Sensitive && len(p.Concerns) == 0 && p.Budget == ""
}
