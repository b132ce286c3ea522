package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dukedaW/shortlinks/internal/config"
	"github.com/dukedaW/shortlinks/internal/constants"
	"github.com/dukedaW/shortlinks/internal/infrastructure/logger"
	appvalidation "github.com/dukedaW/shortlinks/internal/infrastructure/validation"
	"github.com/dukedaW/shortlinks/internal/processing/links"
	"github.com/dukedaW/shortlinks/internal/transport/http/middleware"
	"github.com/dukedaW/shortlinks/pkg/httputils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DailyStatsReader serves the per-day click aggregates maintained by the
// click event consumer. Optional: stats still work without it, minus the
// daily breakdown.
type DailyStatsReader interface {
	GetDaily(ctx context.Context, alias string, from, to time.Time) ([]links.DailyCount, error)
}

// LinksHandler serves the link management endpoints and the redirect route.
type LinksHandler struct {
	cfg   *config.Config
	svc   *links.Service
	daily DailyStatsReader // may be nil
}

func NewLinksHandler(cfg *config.Config, svc *links.Service, daily DailyStatsReader) *LinksHandler {
	return &LinksHandler{cfg: cfg, svc: svc, daily: daily}
}

type shortenRequest struct {
	URL         string     `json:"url" validate:"required,notblank,http_url"`
	CustomAlias string     `json:"customAlias,omitempty" validate:"omitempty,alias"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type linkResponse struct {
	Alias     string     `json:"alias"`
	URL       string     `json:"url"`
	ShortURL  string     `json:"shortUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Clicks    int64      `json:"clicks"`
}

func (h *LinksHandler) toResponse(link *links.Link) linkResponse {
	return linkResponse{
		Alias:     link.Alias,
		URL:       link.OriginalURL,
		ShortURL:  strings.TrimRight(h.cfg.Shortener.BaseURL, "/") + "/" + link.Alias,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
		Clicks:    link.Clicks,
	}
}

func (h *LinksHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if err := httputils.DecodeJSON(r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, validationAPIError(err))
		return
	}

	link, err := h.svc.Shorten(r.Context(), links.CreateLinkInput{
		OriginalURL: req.URL,
		CustomAlias: req.CustomAlias,
		ExpiresAt:   req.ExpiresAt,
		OwnerID:     actorID(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, links.ErrInvalidURL):
			httputils.WriteAPIError(w, r, constants.ErrInvalidURL)
		case errors.Is(err, links.ErrUnreachableURL):
			httputils.WriteAPIError(w, r, constants.ErrUnreachableURL)
		case errors.Is(err, links.ErrAliasTaken), errors.Is(err, links.ErrDuplicateAlias):
			httputils.WriteAPIError(w, r, constants.ErrAliasConflict)
		case errors.Is(err, links.ErrGenerationExhausted):
			logger.Error("alias generation exhausted", zap.Error(err))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		default:
			logger.Error("failed to shorten url", zap.Error(err))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkCreated, h.toResponse(link))
}

func (h *LinksHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("alias")

	target, err := h.svc.Resolve(r.Context(), alias)
	if err != nil {
		switch {
		case errors.Is(err, links.ErrNotFound):
			httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
		case errors.Is(err, links.ErrExpired):
			httputils.WriteAPIError(w, r, constants.ErrLinkExpired)
		default:
			logger.Error("failed to resolve alias", zap.Error(err), zap.String("alias", alias))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	http.Redirect(w, r, target, h.cfg.Shortener.RedirectStatus)
}

type updateLinkRequest struct {
	URL string `json:"url" validate:"required,notblank,http_url"`
}

func (h *LinksHandler) Update(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("alias")

	var req updateLinkRequest
	if err := httputils.DecodeJSON(r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, validationAPIError(err))
		return
	}

	link, err := h.svc.UpdateURL(r.Context(), alias, req.URL, actorID(r))
	if err != nil {
		h.writeOwnershipError(w, r, alias, "update", err)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkUpdated, h.toResponse(link))
}

func (h *LinksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("alias")

	if err := h.svc.Delete(r.Context(), alias, actorID(r)); err != nil {
		h.writeOwnershipError(w, r, alias, "delete", err)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkDeleted, map[string]string{"alias": alias})
}

type statsResponse struct {
	Alias     string               `json:"alias"`
	URL       string               `json:"url"`
	Clicks    int64                `json:"clicks"`
	CreatedAt time.Time            `json:"createdAt"`
	ExpiresAt *time.Time           `json:"expiresAt,omitempty"`
	Daily     []dailyCountResponse `json:"daily,omitempty"`
}

type dailyCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

func (h *LinksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("alias")

	link, err := h.svc.Stats(r.Context(), alias)
	if err != nil {
		switch {
		case errors.Is(err, links.ErrNotFound):
			httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
		default:
			logger.Error("failed to fetch stats", zap.Error(err), zap.String("alias", alias))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	resp := statsResponse{
		Alias:     link.Alias,
		URL:       link.OriginalURL,
		Clicks:    link.Clicks,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	}

	if h.daily != nil {
		to := time.Now().UTC()
		daily, err := h.daily.GetDaily(r.Context(), link.Alias, to.AddDate(0, 0, -30), to)
		if err != nil {
			logger.Warn("failed to fetch daily stats", zap.Error(err), zap.String("alias", alias))
		} else {
			resp.Daily = make([]dailyCountResponse, 0, len(daily))
			for _, d := range daily {
				resp.Daily = append(resp.Daily, dailyCountResponse{Date: d.Date, Count: d.Count})
			}
		}
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessStatsFound, resp)
}

type searchQueryParams struct {
	URL string `json:"url" validate:"required,notblank,http_url"`
}

// Search lists aliases registered for a given original URL. An empty result
// surfaces as 404 at this boundary.
func (h *LinksHandler) Search(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("original_url")
	if err := appvalidation.Validate(searchQueryParams{URL: rawURL}); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidURL)
		return
	}

	found, err := h.svc.Search(r.Context(), rawURL)
	if err != nil {
		logger.Error("failed to search links", zap.Error(err), zap.String("url", rawURL))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
		return
	}
	if len(found) == 0 {
		httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
		return
	}

	out := make([]linkResponse, 0, len(found))
	for _, link := range found {
		out = append(out, h.toResponse(link))
	}
	httputils.WriteAPISuccess(w, r, constants.SuccessLinksFound, out)
}

func (h *LinksHandler) writeOwnershipError(w http.ResponseWriter, r *http.Request, alias, op string, err error) {
	switch {
	case errors.Is(err, links.ErrNotFound):
		httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
	case errors.Is(err, links.ErrForbidden):
		httputils.WriteAPIError(w, r, constants.ErrForbidden)
	case errors.Is(err, links.ErrInvalidURL):
		httputils.WriteAPIError(w, r, constants.ErrInvalidURL)
	default:
		logger.Error("failed to "+op+" link", zap.Error(err), zap.String("alias", alias))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
	}
}

// actorID extracts the authenticated user id, nil for anonymous requests.
func actorID(r *http.Request) *int64 {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return nil
	}
	id := identity.ID
	return &id
}

func validationAPIError(err error) constants.APIError {
	apiErr := constants.ErrInvalidRequestBody
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			switch {
			case e.Field() == "url":
				return constants.ErrInvalidURL
			case e.Field() == "customAlias":
				return apiErr.WithMessage("customAlias may only contain letters, digits, '-' and '_'")
			}
		}
	}
	return apiErr
}
