package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected int
	}{
		{"validation", Validation("valor inválido"), http.StatusBadRequest},
		{"not found", NotFound("imóvel não encontrado"), http.StatusNotFound},
		{"conflict", Conflict("possui apenas %d cotas", 5), http.StatusConflict},
		{"forbidden", Forbidden("apenas o master"), http.StatusForbidden},
		{"external", External(errors.New("timeout"), "calendário indisponível"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.expected {
				t.Errorf("HTTPStatus() = %d; want %d", got, tt.expected)
			}
		})
	}
}

func TestAsUnwrapsThroughChains(t *testing.T) {
	inner := Conflict("não é possível rebaixar o último proprietário master")
	wrapped := fmt.Errorf("operation failed: %w", inner)

	appErr, ok := As(wrapped)
	if !ok {
		t.Fatal("expected to find the application error in the chain")
	}
	if appErr.Kind != KindConflict {
		t.Errorf("kind = %d; want %d", appErr.Kind, KindConflict)
	}
	if appErr.Message != inner.Message {
		t.Errorf("message = %q; want %q", appErr.Message, inner.Message)
	}

	if _, ok := As(errors.New("plain")); ok {
		t.Error("plain errors must not convert")
	}
}

func TestExternalWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := External(cause, "falha na consulta de feriados")

	if !errors.Is(err, cause) {
		t.Error("expected the cause to stay in the chain")
	}
}
