package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/apierror"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/infra"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal validates as its float value so min/gt/required tags work.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds the JSON body and runs go-playground/validator tags.
// On failure it writes the error response and returns false; the caller
// should return immediately.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps service and ledger errors to HTTP responses. Anything
// unrecognised is attached to the context for ErrorHandler and answered
// with a generic 500.
func respondError(c *gin.Context, err error) {
	var shortage *ledger.ShortageError
	if errors.As(err, &shortage) {
		c.JSON(http.StatusConflict, apierror.NewShortage(shortage))
		return
	}
	var sizeErr *ledger.SizeStockError
	if errors.As(err, &sizeErr) {
		c.JSON(http.StatusConflict, apierror.New(sizeErr.Error()))
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrFabricNotFound),
		errors.Is(err, service.ErrVariantNotFound), errors.Is(err, service.ErrQRCodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrProductExists), errors.Is(err, service.ErrFabricExists),
		errors.Is(err, service.ErrVariantExists), errors.Is(err, ledger.ErrInsufficientFabric):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidOperation), errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrReserveExceedsStock), errors.Is(err, ledger.ErrProductionRequiresAdd):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, infra.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, apierror.New("image search is temporarily unavailable"))
		return
	case errors.Is(err, service.ErrEmbeddingFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg := "internal server error"
		if errors.Is(err, service.ErrAuditWrite) {
			msg = service.ErrAuditWrite.Error()
		}
		c.JSON(status, apierror.New(msg))
		return
	}
	c.JSON(status, apierror.New(err.Error()))
}
