package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-scan/internal/application/dto"
	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
	"github.com/jhoicas/Inventario-scan/internal/domain"
	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

// InventoryHandler movimientos, ubicaciones e historial (protegido).
type InventoryHandler struct {
	sessions  *inventory.SessionRegistry
	locations repository.LocationRepository
	movements repository.MovementRepository
	log       zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(sessions *inventory.SessionRegistry, locations repository.LocationRepository, movements repository.MovementRepository, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{sessions: sessions, locations: locations, movements: movements, log: log}
}

// RegisterMovement godoc
// @Summary      Aplicar movimiento al producto actual
// @Description  receive (to_location_id, quantity, unit_cost opcional), send (from_location_id, quantity),
//
//	transfer (from/to, quantity) o adjust (delta con signo, global).
//	Un traslado cuya entrada falla responde 500 NON_ATOMIC_TRANSFER con la salida aplicada.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "type, quantity|delta, ubicaciones"
// @Success      201   {object}  dto.ApplyResultDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.NonAtomicTransferResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.sessions.Get(userID).Apply(c.UserContext(), in.ToRequest(userID))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToApplyResultDTO(res))
}

// ListLocations godoc
// @Summary      Ubicaciones disponibles
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.LocationDTO
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/inventory/locations [get]
func (h *InventoryHandler) ListLocations(c *fiber.Ctx) error {
	list, err := h.locations.ListLocations(c.UserContext())
	if err != nil {
		return writeError(c, h.log, domain.NewStoreError("listLocations", err))
	}
	return c.JSON(dto.ToLocationDTOs(list))
}

// ListProductMovements godoc
// @Summary      Historial reciente de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        code   path   string  true   "código del producto (se normaliza)"
// @Param        limit  query  int     false  "máximo de filas (defecto 10, tope 100)"
// @Success      200  {object}  map[string][]dto.MovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/products/{code}/movements [get]
func (h *InventoryHandler) ListProductMovements(c *fiber.Ctx) error {
	pc, err := code.Normalize(c.Params("code"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	var q dto.LimitQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	q.Normalize(inventory.DefaultHistoryLimit, 100)

	movs, err := h.movements.ListRecentMovements(c.UserContext(), pc, q.Limit)
	if err != nil {
		return writeError(c, h.log, domain.NewStoreError("listRecentMovements", err))
	}
	adjs, err := h.movements.ListRecentAdjustments(c.UserContext(), pc, q.Limit)
	if err != nil {
		return writeError(c, h.log, domain.NewStoreError("listRecentAdjustments", err))
	}
	return c.JSON(fiber.Map{
		"code":        pc.String(),
		"movements":   dto.ToMovementDTOs(movs),
		"adjustments": dto.ToMovementDTOs(adjs),
	})
}
