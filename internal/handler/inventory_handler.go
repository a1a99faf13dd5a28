package handler

import (
	"net/http"

	"school-inventory/internal/middleware"
	"school-inventory/internal/model"
	"school-inventory/internal/service"
	"school-inventory/pkg/apperror"
	"school-inventory/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	stockService service.StockService
}

func NewInventoryHandler(stockService service.StockService) *InventoryHandler {
	return &InventoryHandler{stockService: stockService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/api/items")
	{
		items.GET("/:id/stock", middleware.RequireRole(model.RoleAdmin, model.RoleStockManager), h.GetItemStock)
	}
}

// GetItemStock returns the current quantity of an item and its movement ledger
// @Summary      Get item stock
// @Description  Current stock level and every fulfillment that changed it
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.ItemStockResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/items/{id}/stock [get]
func (h *InventoryHandler) GetItemStock(c *gin.Context) {
	result, err := h.stockService.GetItemStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := apperror.HTTPStatus(err)
		if appErr, ok := apperror.From(err); ok {
			c.JSON(status, response.ErrorWithCode(status, appErr.Code, appErr.Message))
			return
		}
		c.JSON(status, response.Error(status, "Failed to retrieve stock: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
