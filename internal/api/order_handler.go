package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/errors"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/validation"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
)

// maxBodyBytes bounds the order request body.
const maxBodyBytes = 64 << 10

type OrderHandler struct {
	planner   OrderPlanner
	validator *validation.Validator
	logger    logger.Logger
}

func NewOrderHandler(planner OrderPlanner, log logger.Logger) (*OrderHandler, error) {
	validator, err := validation.NewValidator(validation.OrderRequestSchema)
	if err != nil {
		return nil, err
	}
	return &OrderHandler{
		planner:   planner,
		validator: validator,
		logger:    log.With(map[string]interface{}{"component": "order-handler"}),
	}, nil
}

// CreateOrder handles POST /api/order. Every planning outcome is HTTP 200;
// failures carry status "error" and a caller-safe message.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	req, err := h.decode(c)
	if err != nil {
		h.logger.Info("order request rejected", map[string]interface{}{
			"requestId": c.GetString(requestIDKey),
			"error":     err,
		})
		c.JSON(http.StatusOK, errorBody(err))
		return
	}

	// The plan runs to completion even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())

	result, err := h.planner.Plan(ctx, *req)
	if err != nil {
		c.JSON(http.StatusOK, errorBody(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"data":      result,
		"timestamp": time.Now().Unix(),
	})
}

// decode reads the body, reports a missing location before anything else
// about it, and then checks the field types against the request schema.
func (h *OrderHandler) decode(c *gin.Context) (*models.OrderRequest, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}

	var document interface{}
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}

	if fields, ok := document.(map[string]interface{}); ok && locationMissing(fields) {
		return nil, apperrors.NewLocationRequiredError()
	}

	result := h.validator.Validate(document)
	if !result.Valid {
		return nil, apperrors.NewInvalidRequestError(result.Summary())
	}

	var req models.OrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}
	return &req, nil
}

func locationMissing(fields map[string]interface{}) bool {
	raw, present := fields["location"]
	if !present || raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

func errorBody(err error) gin.H {
	return gin.H{
		"status": "error",
		"error":  apperrors.UserMessage(err),
	}
}
