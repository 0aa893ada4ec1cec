package api

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps a domain error kind onto an HTTP status. Unclassified
// errors are not echoed to the client.
func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.JSON(status, errorResponse{Error: msg, Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict, "concurrent_modification"
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusConflict, "precondition_failed"
	case errors.Is(err, domain.ErrExternalServiceUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// UseJSONFieldNames makes gin's binding validator report fields by their
// json names.
func UseJSONFieldNames() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	}
}

// bindError reports request decoding problems as validation errors.
func bindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
		}
		writeError(c, domain.Validationf("%s", strings.Join(msgs, "; ")))
		return
	}
	writeError(c, domain.Validationf("invalid request body: %v", err))
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, domain.Validationf("invalid %s", name))
		return 0, false
	}
	return id, true
}
