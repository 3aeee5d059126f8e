package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-scan/internal/application/dto"
	"github.com/jhoicas/Inventario-scan/internal/domain"
)

// classify traduce errores de dominio a status HTTP y código estable.
// NonAtomicTransfer va primero: también envuelve un StoreError.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNonAtomicTransfer):
		return fiber.StatusInternalServerError, "NON_ATOMIC_TRANSFER"
	case errors.Is(err, domain.ErrInvalidFormat):
		return fiber.StatusBadRequest, "INVALID_FORMAT"
	case errors.Is(err, domain.ErrZeroDelta):
		return fiber.StatusBadRequest, "ZERO_DELTA"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrNoProduct):
		return fiber.StatusConflict, "NO_PRODUCT"
	case errors.Is(err, domain.ErrBusy):
		return fiber.StatusConflict, "BUSY"
	case errors.Is(err, domain.ErrStore):
		return fiber.StatusBadGateway, "STORE_ERROR"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "CANCELLED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// ErrorCode código estable del error (para líneas fallidas de un lote).
func ErrorCode(err error) string {
	_, code := classify(err)
	return code
}

// writeError responde el error clasificado. Los 5xx se registran con el detalle.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := classify(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Str("path", c.Path()).Str("user_id", GetUserID(c)).Msg("error en petición")
	}
	var nat *domain.NonAtomicTransferError
	if errors.As(err, &nat) {
		return c.Status(status).JSON(dto.NonAtomicTransferResponse{
			Code:    code,
			Message: err.Error(),
			Debit:   dto.ToMovementDTO(nat.Debit),
		})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
