package webapi

import (
	"context"
	"time"

	"github.com/amirasaad/gamewallet/pkg/auth"
	"github.com/amirasaad/gamewallet/pkg/domain"
	"github.com/amirasaad/gamewallet/pkg/repository"
	"github.com/amirasaad/gamewallet/pkg/wallet"
	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// WalletHandlers implements the §6 endpoint table by translating
// validated requests into wallet.Engine calls and wallet.Result into the
// §6 response shape. Its one direct repository call resolves a request's
// related_bet_reference_id through the transaction repository.
type WalletHandlers struct {
	engine            *wallet.Engine
	pipeline          *auth.Pipeline
	partners          repository.PartnerRepository
	transactions      repository.TransactionRepository
	operationDeadline time.Duration
}

func NewWalletHandlers(
	engine *wallet.Engine,
	pipeline *auth.Pipeline,
	partners repository.PartnerRepository,
	transactions repository.TransactionRepository,
	operationDeadline time.Duration,
) *WalletHandlers {
	return &WalletHandlers{
		engine:            engine,
		pipeline:          pipeline,
		partners:          partners,
		transactions:      transactions,
		operationDeadline: operationDeadline,
	}
}

type mutationRequest struct {
	ReferenceID         string            `json:"reference_id" validate:"required"`
	Amount              decimal.Decimal   `json:"amount"`
	Currency            string            `json:"currency" validate:"required,len=3"`
	GameID              *string           `json:"game_id,omitempty"`
	RoundID             *string           `json:"round_id,omitempty"`
	RelatedBetReference *string           `json:"related_bet_reference_id,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

type rollbackRequest struct {
	ReferenceID         string            `json:"reference_id" validate:"required"`
	OriginalReferenceID string            `json:"original_reference_id" validate:"required"`
	Reason              string            `json:"reason,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

type transactionResponse struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	Timestamp     string          `json:"timestamp"`
}

// Balance implements GET /wallet/{player}/balance.
func (h *WalletHandlers) Balance(c *fiber.Ctx) error {
	ctx, cancel, identity, err := requirePermission(c, h.pipeline, "wallet:balance", h.operationDeadline)
	if err != nil {
		return fail(c, err, "")
	}
	defer cancel()

	bal, err := h.engine.GetBalance(ctx, identity.Partner.ID, c.Params("player"))
	if err != nil {
		return fail(c, err, "")
	}
	if currency := c.Query("currency"); currency != "" && currency != bal.Currency {
		return fail(c, domain.ErrCurrencyMismatch, "")
	}
	return ok(c, fiber.Map{
		"balance":    bal.Amount,
		"currency":   bal.Currency,
		"partner_id": identity.Partner.ID,
	}, "")
}

// Deposit implements POST /wallet/{player}/deposit.
func (h *WalletHandlers) Deposit(c *fiber.Ctx) error {
	return h.mutate(c, "wallet:deposit", false, h.engine.Deposit)
}

// Withdraw implements POST /wallet/{player}/withdraw.
func (h *WalletHandlers) Withdraw(c *fiber.Ctx) error {
	return h.mutate(c, "wallet:withdraw", false, h.engine.Withdraw)
}

// Bet implements POST /wallet/{player}/bet. §4.4.5 requires a game-id.
func (h *WalletHandlers) Bet(c *fiber.Ctx) error {
	return h.mutate(c, "wallet:bet", true, h.engine.Bet)
}

// Win implements POST /wallet/{player}/win. §4.4.5 requires a game-id;
// related_bet_reference_id, when present, is resolved to the winning
// bet's transaction id so the stored transaction can carry a proper
// OriginalTransactionID link (§4.4.5).
func (h *WalletHandlers) Win(c *fiber.Ctx) error {
	return h.mutate(c, "wallet:win", true, h.engine.Win)
}

type mutationFunc func(ctx context.Context, req wallet.Request) (*wallet.Result, error)

func (h *WalletHandlers) mutate(c *fiber.Ctx, permission string, requireGameID bool, op mutationFunc) error {
	ctx, cancel, identity, err := requirePermission(c, h.pipeline, permission, h.operationDeadline)
	if err != nil {
		return fail(c, err, "")
	}
	defer cancel()

	var body mutationRequest
	if err := c.BodyParser(&body); err != nil {
		return fail(c, domain.ErrInvalidAmount, "")
	}
	if err := validate.Struct(body); err != nil {
		return fail(c, domain.ErrInvalidAmount, "")
	}
	if requireGameID && (body.GameID == nil || *body.GameID == "") {
		return fail(c, domain.ErrInvalidAmount, "")
	}

	req := wallet.Request{
		PartnerID:   identity.Partner.ID,
		PlayerID:    c.Params("player"),
		ReferenceID: body.ReferenceID,
		Amount:      body.Amount,
		Currency:    body.Currency,
		GameID:      body.GameID,
		Metadata:    body.Metadata,
	}
	if body.RoundID != nil {
		if req.Metadata == nil {
			req.Metadata = map[string]string{}
		}
		req.Metadata["round_id"] = *body.RoundID
	}
	if body.RelatedBetReference != nil {
		if bet, err := h.transactions.FindByReference(ctx, identity.Partner.ID, *body.RelatedBetReference); err == nil {
			req.OriginalTransactionID = &bet.ID
		}
	}

	result, err := op(ctx, req)
	if err != nil {
		return fail(c, err, "")
	}
	return ok(c, transactionResponse{
		TransactionID: result.TransactionID,
		Amount:        body.Amount,
		Balance:       result.Balance,
		Currency:      body.Currency,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}, "")
}

// Rollback implements POST /wallet/{player}/rollback.
func (h *WalletHandlers) Rollback(c *fiber.Ctx) error {
	ctx, cancel, identity, err := requirePermission(c, h.pipeline, "wallet:rollback", h.operationDeadline)
	if err != nil {
		return fail(c, err, "")
	}
	defer cancel()

	var body rollbackRequest
	if err := c.BodyParser(&body); err != nil {
		return fail(c, domain.ErrInvalidAmount, "")
	}
	if err := validate.Struct(body); err != nil {
		return fail(c, domain.ErrInvalidAmount, "")
	}

	req := wallet.Request{
		PartnerID:           identity.Partner.ID,
		PlayerID:            c.Params("player"),
		ReferenceID:         body.ReferenceID,
		OriginalReferenceID: body.OriginalReferenceID,
		Metadata:            body.Metadata,
	}
	result, err := h.engine.Rollback(ctx, req)
	if err != nil {
		return fail(c, err, "")
	}
	return ok(c, transactionResponse{
		TransactionID: result.TransactionID,
		Balance:       result.Balance,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}, "")
}
