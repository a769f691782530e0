package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/middleware"
	"github.com/eaglebank/bank-api/shared/models"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (*models.Account, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) (*models.Account, error)
	AdjustAccount(context.Context, cqrs.AdjustAccountCommand) (*models.Account, error)
	Transfer(context.Context, cqrs.TransferCommand) (*models.Account, *models.Account, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	ListAccounts(context.Context, cqrs.ListAccountsQuery) ([]models.Account, error)
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.Account, error)
	Threshold(context.Context, cqrs.ThresholdQuery) ([]models.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

// Zero cash or credit is rejected by the service, not here.
type CreateAccountRequest struct {
	Owner  string   `json:"owner" validate:"required"`
	Cash   *float64 `json:"cash" validate:"required"`
	Credit *float64 `json:"credit" validate:"required"`
}

// BalanceRequest carries absolute values for update and deltas for adjust and transfer.
type BalanceRequest struct {
	Cash   *float64 `json:"cash"`
	Credit *float64 `json:"credit"`
}

type ThresholdQuery struct {
	Cash   *float64 `form:"cash"`
	Credit *float64 `form:"credit"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{Owner: c.Query("owner")})
	if err != nil {
		respondWithServiceError(c, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: accounts})
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		Owner:  req.Owner,
		Cash:   req.Cash,
		Credit: req.Credit,
	})
	if err != nil {
		respondWithServiceError(c, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{AccountID: c.Param("id")})
	if err != nil {
		respondWithServiceError(c, err, "Account not found")
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	var req BalanceRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{
		AccountID: c.Param("id"),
		Cash:      req.Cash,
		Credit:    req.Credit,
	})
	if err != nil {
		respondWithServiceError(c, err, "Failed to update account")
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	account, err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{AccountID: c.Param("id")})
	if err != nil {
		respondWithServiceError(c, err, "Failed to delete account")
		return
	}
	c.JSON(http.StatusOK, account)
}

// AdjustAccount deposits or withdraws: the body holds deltas, not new balances.
func (h *AccountHandler) AdjustAccount(c *gin.Context) {
	var req BalanceRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.commands.AdjustAccount(c.Request.Context(), cqrs.AdjustAccountCommand{
		AccountID: c.Param("id"),
		Cash:      req.Cash,
		Credit:    req.Credit,
	})
	if err != nil {
		respondWithServiceError(c, err, "Failed to update account")
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) Transfer(c *gin.Context) {
	var req BalanceRequest
	if !bindJSON(c, &req) {
		return
	}

	from, to, err := h.commands.Transfer(c.Request.Context(), cqrs.TransferCommand{
		FromAccountID: c.Param("id"),
		ToAccountID:   c.Param("to"),
		Cash:          req.Cash,
		Credit:        req.Credit,
	})
	if err != nil {
		respondWithServiceError(c, err, "Transfer failed")
		return
	}
	c.JSON(http.StatusOK, TransferResponse{Success: true, FromAccount: from, ToAccount: to})
}

func (h *AccountHandler) AccountsGreaterThan(c *gin.Context) {
	h.threshold(c, models.GreaterThan)
}

func (h *AccountHandler) AccountsLessThan(c *gin.Context) {
	h.threshold(c, models.LessThan)
}

func (h *AccountHandler) threshold(c *gin.Context, direction models.Direction) {
	var q ThresholdQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	// The form binder turns "cash=" into a zero threshold; an empty value means absent.
	if c.Query("cash") == "" {
		q.Cash = nil
	}
	if c.Query("credit") == "" {
		q.Credit = nil
	}

	accounts, err := h.queries.Threshold(c.Request.Context(), cqrs.ThresholdQuery{
		Direction: direction,
		Cash:      q.Cash,
		Credit:    q.Credit,
	})
	if err != nil {
		respondWithServiceError(c, err, "Couldn't get accounts")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: accounts})
}

// RegisterRoutes mounts the account endpoints. Static segments are registered
// alongside the :id parameter, so every parameterised route uses the same name.
func (h *AccountHandler) RegisterRoutes(r gin.IRouter) {
	accounts := r.Group("/accounts")
	accounts.GET("", h.ListAccounts)
	accounts.POST("", h.CreateAccount)
	accounts.GET("/greater-than", h.AccountsGreaterThan)
	accounts.GET("/lesser-than", h.AccountsLessThan)
	accounts.PUT("/interact/:id", h.AdjustAccount)
	accounts.GET("/:id", h.GetAccount)
	accounts.PUT("/:id", h.UpdateAccount)
	accounts.DELETE("/:id", h.DeleteAccount)
	accounts.PUT("/:id/transfer/:to", h.Transfer)
}
