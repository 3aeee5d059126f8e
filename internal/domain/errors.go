package domain

import (
	"errors"
	"fmt"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
)

// Errores de dominio. Comparar siempre con errors.Is.
var (
	ErrInvalidFormat       = code.ErrInvalidFormat
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrStore               = errors.New("error del almacén de datos")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrZeroDelta           = errors.New("el ajuste no puede ser cero")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrPartialBatchFailure = errors.New("lote aplicado parcialmente")
	ErrNonAtomicTransfer   = errors.New("traslado incompleto: salida aplicada, entrada fallida")
	ErrNoProduct           = errors.New("no hay producto resuelto")
	ErrBusy                = errors.New("operación en curso")
)

// StoreError envuelve una falla del colaborador de persistencia.
// Op nombra la operación del puerto (ej. "getLocationBalances").
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// NewStoreError construye un StoreError; devuelve nil si err es nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// InsufficientStockError detalla el faltante detectado contra la caché de saldos.
type InsufficientStockError struct {
	Code       string
	LocationID string
	OnHand     int
	Requested  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s en %s: disponible %d, solicitado %d",
		e.Code, e.LocationID, e.OnHand, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NonAtomicTransferError se produce cuando la salida del traslado quedó registrada
// y la entrada falló. No hay compensación automática: requiere conciliación manual.
type NonAtomicTransferError struct {
	Debit *entity.Movement
	Err   error
}

func (e *NonAtomicTransferError) Error() string {
	id := ""
	if e.Debit != nil {
		id = e.Debit.ID
	}
	return fmt.Sprintf("traslado incompleto (salida %s aplicada): %v", id, e.Err)
}

func (e *NonAtomicTransferError) Unwrap() error { return e.Err }

func (e *NonAtomicTransferError) Is(target error) bool { return target == ErrNonAtomicTransfer }
