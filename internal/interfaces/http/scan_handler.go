package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-scan/internal/application/dto"
	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
	"github.com/jhoicas/Inventario-scan/internal/application/scan"
)

// ScanHandler lecturas de cámara y consultas manuales (protegido).
type ScanHandler struct {
	sessions *inventory.SessionRegistry
	log      zerolog.Logger
}

// NewScanHandler construye el handler.
func NewScanHandler(sessions *inventory.SessionRegistry, log zerolog.Logger) *ScanHandler {
	return &ScanHandler{sessions: sessions, log: log}
}

// Event godoc
// @Summary      Procesar lectura de cámara
// @Description  Normaliza el texto decodificado, descarta repeticiones dentro de la ventana
//
//	de 900 ms y, según el modo, resuelve el producto o lo suma al lote.
//
// @Tags         scan
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScanEventRequest  true  "raw_text, decoded_at (opcional)"
// @Success      200   {object}  dto.ScanResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/scan/events [post]
func (h *ScanHandler) Event(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.ScanEventRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ev := scan.Event{RawText: in.RawText}
	if in.DecodedAt != nil {
		ev.DecodedAt = *in.DecodedAt
	}
	out, err := h.sessions.Get(userID).HandleScan(c.UserContext(), ev)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToScanResponse(out))
}

// Lookup godoc
// @Summary      Consultar producto por código digitado
// @Tags         scan
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LookupRequest  true  "code"
// @Success      200   {object}  dto.LookupResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/scan/lookup [post]
func (h *ScanHandler) Lookup(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.LookupRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.sessions.Get(userID).Lookup(c.UserContext(), in.Code)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToLookupResponse(res))
}
