package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-scan/internal/application/dto"
	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
)

// BatchHandler carrito del modo lote (protegido).
type BatchHandler struct {
	sessions *inventory.SessionRegistry
	log      zerolog.Logger
}

func NewBatchHandler(sessions *inventory.SessionRegistry, log zerolog.Logger) *BatchHandler {
	return &BatchHandler{sessions: sessions, log: log}
}

func (h *BatchHandler) cart(c *fiber.Ctx, sess *inventory.Session) error {
	snap := sess.Snapshot()
	return c.JSON(dto.BatchDTO{Lines: dto.ToCartLineDTOs(snap.Cart), TotalUnits: snap.CartUnits})
}

// Get godoc
// @Summary      Carrito actual
// @Tags         batch
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BatchDTO
// @Router       /api/batch [get]
func (h *BatchHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	return h.cart(c, h.sessions.Get(userID))
}

// AddLine godoc
// @Summary      Agregar código al carrito
// @Description  Suma 1 a la línea del código (o la crea). Requiere modo lote.
// @Tags         batch
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddLineRequest  true  "code"
// @Success      200   {object}  dto.BatchDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batch/lines [post]
func (h *BatchHandler) AddLine(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.AddLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sess := h.sessions.Get(userID)
	if _, _, err := sess.AddToBatch(c.UserContext(), in.Code); err != nil {
		return writeError(c, h.log, err)
	}
	return h.cart(c, sess)
}

// SetQty godoc
// @Summary      Fijar cantidad de una línea
// @Tags         batch
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        code  path  string             true  "código"
// @Param        body  body  dto.SetQtyRequest  true  "qty >= 1"
// @Success      200   {object}  dto.BatchDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/batch/lines/{code} [put]
func (h *BatchHandler) SetQty(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.SetQtyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sess := h.sessions.Get(userID)
	if err := sess.SetBatchQty(c.Params("code"), in.Qty); err != nil {
		return writeError(c, h.log, err)
	}
	return h.cart(c, sess)
}

// RemoveLine godoc
// @Summary      Quitar línea del carrito
// @Tags         batch
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "código"
// @Success      200   {object}  dto.BatchDTO
// @Router       /api/batch/lines/{code} [delete]
func (h *BatchHandler) RemoveLine(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	sess := h.sessions.Get(userID)
	if err := sess.RemoveFromBatch(c.Params("code")); err != nil {
		return writeError(c, h.log, err)
	}
	return h.cart(c, sess)
}

// Submit godoc
// @Summary      Enviar lote
// @Description  Aplica cada línea con los parámetros compartidos. Si alguna falla responde 207
//
//	y las líneas fallidas quedan en el carrito para reintento.
//
// @Tags         batch
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchSubmitRequest  true  "type (receive|send|transfer), ubicaciones"
// @Success      200   {object}  dto.BatchResultDTO
// @Success      207   {object}  dto.BatchResultDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batch/submit [post]
func (h *BatchHandler) Submit(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.BatchSubmitRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.sessions.Get(userID).SubmitBatch(c.UserContext(), in.ToParams(userID))
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusOK
	if res.Err() != nil {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(dto.ToBatchResultDTO(res, ErrorCode))
}
