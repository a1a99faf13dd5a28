package handler

import (
	"context"
	"net/http"

	"school-inventory/internal/middleware"
	"school-inventory/internal/model"
	"school-inventory/internal/service"
	"school-inventory/pkg/apperror"
	"school-inventory/pkg/pagination"
	"school-inventory/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RequestHandler struct {
	requestService service.RequestService
	log            *zap.Logger
}

func NewRequestHandler(requestService service.RequestService, log *zap.Logger) *RequestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RequestHandler{requestService: requestService, log: log}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	requests.Use(middleware.RequireRole())
	{
		requests.POST("", h.SubmitRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/mine", h.ListOwnRequests)
		requests.GET("/department", middleware.RequireRole(model.RoleDepartmentHead), h.ListDepartmentRequests)
		requests.GET("/all", middleware.RequireRole(model.RoleAdmin, model.RoleStockManager), h.ListAllRequests)
		requests.GET("/:id", h.GetRequest)
		requests.GET("/:id/history", h.GetRequestHistory)
		requests.PATCH("/:id/status", h.TransitionRequest)
	}
}

// SubmitRequest creates a pending request for an item
// @Summary      Submit item request
// @Description  Creates a pending request for a quantity of an inventory item, identified by name
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SubmitRequestDTO  true  "Submit Request Payload"
// @Success      201      {object}  response.Response{data=service.SubmitResult}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req service.SubmitRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, apperror.CodeValidation, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.SubmitRequest(c.Request.Context(), identity, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// TransitionRequest moves a request to a new status
// @Summary      Change request status
// @Description  Approves, rejects, fulfills or cancels a request. Fulfillment deducts stock atomically.
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Request ID"
// @Param        payload  body      service.TransitionDTO  true  "Transition Payload"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/status [patch]
func (h *RequestHandler) TransitionRequest(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req service.TransitionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, apperror.CodeValidation, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.TransitionRequest(c.Request.Context(), identity, c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetRequest returns a single request
// @Summary      Get request
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	result, err := h.requestService.GetRequest(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetRequestHistory returns the audit trail of a request
// @Summary      Get request history
// @Description  Lists every submission and status change of a request, oldest first
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]service.AuditLogResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/history [get]
func (h *RequestHandler) GetRequestHistory(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	logs, err := h.requestService.GetRequestHistory(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

// ListRequests returns the widest projection the caller's role allows
// @Summary      List requests
// @Description  Admins and stock managers see all requests, department heads their department, everyone else their own
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	h.list(c, h.requestService.ListRequests)
}

// ListOwnRequests returns the caller's own requests
// @Summary      List my requests
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/requests/mine [get]
func (h *RequestHandler) ListOwnRequests(c *gin.Context) {
	h.list(c, h.requestService.ListOwnRequests)
}

// ListDepartmentRequests returns requests from the caller's department
// @Summary      List department requests
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Failure      403     {object}  response.Response
// @Router       /api/requests/department [get]
func (h *RequestHandler) ListDepartmentRequests(c *gin.Context) {
	h.list(c, h.requestService.ListDepartmentRequests)
}

// ListAllRequests returns every request
// @Summary      List all requests
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Failure      403     {object}  response.Response
// @Router       /api/requests/all [get]
func (h *RequestHandler) ListAllRequests(c *gin.Context) {
	h.list(c, h.requestService.ListAllRequests)
}

type listFunc func(ctx context.Context, identity model.Identity, filter service.RequestListFilter) ([]service.RequestResponse, int64, error)

func (h *RequestHandler) list(c *gin.Context, fn listFunc) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	filter := service.RequestListFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	requests, total, err := fn(c.Request.Context(), identity, filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page{
		Items: requests,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

func (h *RequestHandler) identity(c *gin.Context) (model.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unauthorized"))
		return model.Identity{}, false
	}
	return identity, true
}

// writeError maps domain errors to status codes; anything unclassified is a 500
func (h *RequestHandler) writeError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	if appErr, ok := apperror.From(err); ok {
		c.JSON(status, response.ErrorWithCode(status, appErr.Code, appErr.Message))
		return
	}

	h.log.Error("request handler failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(status, response.Error(status, "Internal server error"))
}
