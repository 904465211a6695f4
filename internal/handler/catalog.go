package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/config"
	"github.com/idturva/subscription-portal/internal/model"
	"github.com/idturva/subscription-portal/internal/repository"
)

// PublicHandler serves the unauthenticated storefront endpoints: the
// subscription package catalog and the breach-check proxy. These routes
// apply no JWT or role middleware and return sanitized data only.
type PublicHandler struct {
	Cfg      config.Config
	Packages *repository.PackageRepo
	// BreachAPIURL is overridable in tests; empty means the public
	// haveibeenpwned v3 API.
	BreachAPIURL string
	HTTPClient   *http.Client
}

func NewPublicHandler(cfg config.Config, pkgs *repository.PackageRepo) *PublicHandler {
	return &PublicHandler{
		Cfg:        cfg,
		Packages:   pkgs,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type packageResp struct {
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	BillingPeriod string `json:"billing_period"`
}

func toPackageResp(p model.Package) packageResp {
	return packageResp{
		Slug:          p.Slug,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		BillingPeriod: p.BillingPeriod,
	}
}

// ListPackages handles GET /v1/packages. Sits behind the Redis response
// cache; the catalog changes rarely.
func (h *PublicHandler) ListPackages(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	pkgs, err := h.Packages.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]packageResp, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, toPackageResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"packages": out})
}

// GetPackage handles GET /v1/packages/:slug.
func (h *PublicHandler) GetPackage(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slug"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Packages.GetBySlug(ctx, slug)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toPackageResp(p))
}

type breachEntry struct {
	Name string `json:"Name"`
}

// BreachCheck handles GET /v1/breach-check?email=. It proxies the
// third-party breach lookup with the server-held API key so the key never
// reaches a browser, and passes back only the breach count and names.
func (h *PublicHandler) BreachCheck(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.QueryParam("email")))
	if email == "" || !strings.Contains(email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}

	base := h.BreachAPIURL
	if base == "" {
		base = "https://haveibeenpwned.com/api/v3/breachedaccount"
	}
	reqURL := fmt.Sprintf("%s/%s?truncateResponse=true", base, url.PathEscape(email))

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, reqURL, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	req.Header.Set("User-Agent", "idturva-portal")
	if h.Cfg.HIBPAPIKey != "" {
		req.Header.Set("hibp-api-key", h.Cfg.HIBPAPIKey)
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "breach service unavailable"})
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		// Not found means the address appears in no known breach.
		return c.JSON(http.StatusOK, echo.Map{"breached": false, "count": 0, "breaches": []string{}})
	case http.StatusOK:
		var entries []breachEntry
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "breach service returned bad data"})
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		return c.JSON(http.StatusOK, echo.Map{"breached": len(names) > 0, "count": len(names), "breaches": names})
	case http.StatusTooManyRequests:
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "breach service rate limited, try again later"})
	default:
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "breach service unavailable"})
	}
}
