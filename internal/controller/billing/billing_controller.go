package billing

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nxquan/prepmate/config"
	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/service"
	"github.com/rs/zerolog/log"
)

// webhookSecretHeader carries the shared secret configured at the payment
// provider; full signature verification is handled by the provider SDK at
// the edge and is out of scope here.
const webhookSecretHeader = "X-Webhook-Secret"

type BillingController struct {
	billingService service.BillingService
	secret         string
}

func NewBillingController(billingService service.BillingService, cfg *config.Config) *BillingController {
	return &BillingController{billingService: billingService, secret: cfg.Billing.WebhookSecret}
}

// Webhook godoc
// @Summary Payment provider webhook receiver
// @Description Applies checkout and subscription lifecycle events to local subscription state.
// @Tags Billing
// @Accept json
// @Produce json
// @Param event body dto.WebhookEvent true "Provider event envelope"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} dto.ErrorResponse "Malformed event"
// @Failure 401 {object} dto.ErrorResponse "Bad webhook secret"
// @Router /billing/webhook [post]
func (c *BillingController) Webhook(ctx *gin.Context) {
	if c.secret != "" {
		provided := ctx.GetHeader(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(c.secret)) != 1 {
			ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid webhook secret"})
			return
		}
	}

	var event dto.WebhookEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Malformed event payload", Details: []string{err.Error()}})
		return
	}

	if err := c.billingService.HandleEvent(event); err != nil {
		// Non-2xx makes the provider retry, which is what we want for
		// persistence failures.
		log.Error().Err(err).Str("type", event.Type).Str("event", event.ID).Msg("Webhook: failed to apply event")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to process event"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"received": true})
}
