package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/config"
	"github.com/idturva/subscription-portal/internal/model"
	"github.com/idturva/subscription-portal/internal/queue"
	"github.com/idturva/subscription-portal/internal/repository"
)

// AdminHandler bundles dependencies for the admin portal. On top of the
// JWT role middleware, every mutating endpoint re-validates the caller's
// role against the users table: a stale or forged ADMIN claim is not
// enough to manage accounts.
type AdminHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Orders *repository.OrderRepo
	Hub    *queue.Hub
}

func NewAdminHandler(cfg config.Config, users *repository.UserRepo, tokens *repository.TokenRepo, orders *repository.OrderRepo, hub *queue.Hub) *AdminHandler {
	if users == nil || tokens == nil || orders == nil || hub == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Users: users, Tokens: tokens, Orders: orders, Hub: hub}
}

// requireAdmin returns the caller's id after checking, against the
// database, that the account still exists, is active and holds the ADMIN
// role. The JWT middleware has already filtered on the claim; this is the
// server-side check the claim cannot satisfy alone.
func (h *AdminHandler) requireAdmin(c echo.Context) (uint64, error) {
	uid, err := getUserID(c)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
		return 0, echo.NewHTTPError(http.StatusInternalServerError, "database error")
	}
	if !u.IsActive || u.Role != model.RoleAdmin {
		return 0, echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return uid, nil
}

type adminUserResp struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	if _, err := h.requireAdmin(c); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResp{
			ID:        u.ID,
			Email:     u.Email,
			Role:      u.Role,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

type createUserReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateUser handles POST /v1/admin/users. Email uniqueness is enforced
// by the database's unique index; on a race the first writer wins and the
// loser gets 409.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	if _, err := h.requireAdmin(c); err != nil {
		return err
	}
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleAdmin && role != model.RoleUser {
		role = model.RoleUser
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	uid, err := h.Users.Create(ctx, req.Email, req.Password, role,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	// Read the row back so the response carries the database's timestamp,
	// not an approximation taken here.
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusCreated, adminUserResp{
		ID: u.ID, Email: u.Email, Role: u.Role,
		FirstName: u.FirstName, LastName: u.LastName, IsActive: u.IsActive,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// DeleteUser handles DELETE /v1/admin/users/:id. The user's orders (with
// their items and confirmation audit rows) and refresh tokens go first so
// foreign keys hold, then the user row. Admins cannot delete themselves.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	callerID, err := h.requireAdmin(c)
	if err != nil {
		return err
	}
	targetID, perr := strconv.ParseUint(c.Param("id"), 10, 64)
	if perr != nil || targetID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if targetID == callerID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	removedOrders, err := h.Orders.DeleteByUserTx(ctx, tx, targetID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user's orders"})
	}
	if err := h.Tokens.DeleteForUserTx(ctx, tx, targetID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user's sessions"})
	}
	if err := h.Users.DeleteTx(ctx, tx, targetID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"deleted":        true,
		"removed_orders": removedOrders,
	})
}
