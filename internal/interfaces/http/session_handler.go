package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-scan/internal/application/dto"
	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
)

// SessionHandler estado y modo de la sesión del operador.
type SessionHandler struct {
	sessions *inventory.SessionRegistry
	log      zerolog.Logger
}

func NewSessionHandler(sessions *inventory.SessionRegistry, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

// Get godoc
// @Summary      Estado de la sesión de escaneo
// @Tags         session
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SessionDTO
// @Router       /api/session [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	return c.JSON(dto.ToSessionDTO(h.sessions.Get(userID).Snapshot(), ErrorCode))
}

// Reset godoc
// @Summary      Reiniciar sesión
// @Description  Vuelve a idle, vacía el carrito y descarta las consultas en curso.
// @Tags         session
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SessionDTO
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/session/reset [post]
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	sess := h.sessions.Get(userID)
	if err := sess.Reset(); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToSessionDTO(sess.Snapshot(), ErrorCode))
}

// SetMode godoc
// @Summary      Activar o desactivar modo lote
// @Description  Desactivarlo descarta el carrito.
// @Tags         session
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchModeRequest  true  "batch"
// @Success      200   {object}  dto.SessionDTO
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/session/mode [put]
func (h *SessionHandler) SetMode(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.BatchModeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sess := h.sessions.Get(userID)
	if err := sess.SetBatchMode(in.Batch); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToSessionDTO(sess.Snapshot(), ErrorCode))
}
