package handlers

import (
	"errors"
	"net/http"

	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error      string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
	ChildCount *int64            `json:"child_count,omitempty"`
	Step       int               `json:"step,omitempty"`
	StepName   string            `json:"step_name,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
}

var notFoundErrors = []error{
	services.ErrHeadCategoryNotFound,
	services.ErrSubCategoryNotFound,
	services.ErrMicroCategoryNotFound,
	services.ErrParentCategoryNotFound,
	services.ErrLeadNotFound,
	services.ErrVendorNotFound,
	services.ErrStateNotFound,
}

// errorStatus maps a service error onto a status code and response body
func errorStatus(err error) (int, ErrorResponse) {
	var (
		verrs      services.ValidationErrors
		verr       *services.ValidationError
		conflict   *services.ChildConflictError
		onboarding *services.OnboardingError
		upstream   *services.UpstreamError
		httpErr    *echo.HTTPError
	)

	switch {
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
		return httpErr.Code, ErrorResponse{Error: msg}
	case errors.As(err, &verrs):
		return http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: verrs.Fields()}
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{Error: verr.Message, Fields: map[string]string{verr.Field: verr.Message}}
	case errors.As(err, &conflict):
		count := conflict.Count
		return http.StatusConflict, ErrorResponse{Error: conflict.Error(), ChildCount: &count}
	case errors.As(err, &onboarding):
		return http.StatusBadGateway, ErrorResponse{
			Error:    onboarding.Error(),
			Step:     onboarding.Step,
			StepName: onboarding.StepName(),
			UserID:   onboarding.UserID,
		}
	case errors.Is(err, services.ErrWriteNotApplied):
		return http.StatusForbidden, ErrorResponse{Error: services.ErrWriteNotApplied.Error()}
	case errors.As(err, &upstream):
		return http.StatusBadGateway, ErrorResponse{Error: upstream.Error()}
	case errors.Is(err, services.ErrCityNotFound):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Fields: map[string]string{"city_id": err.Error()}}
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound, ErrorResponse{Error: target.Error()}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"}
}

// HTTPErrorHandler renders every error returned by a handler or middleware as JSON
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
	}
}
