package uploader

import (
	"fmt"
	"net/http"
	"strings"
)

// User-facing failure reasons. These strings are shown verbatim in the
// storefront UI, so they are kept in Spanish.
const (
	reasonNetwork     = "Sin conexión o timeout"
	reasonTransient   = "Error temporal de red"
	reasonServer      = "Error temporal del servidor"
	reasonExpiredURL  = "URL expirada o sin permisos"
	reasonBadRequest  = "Solicitud inválida"
	reasonGenericFail = "No se pudo subir el archivo"
	reasonCancelled   = "Operación cancelada"
)

// attemptError is the outcome of a single failed PUT attempt. StatusCode 0
// means the request never produced an HTTP response.
type attemptError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *attemptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload attempt failed: %v", e.Err)
	}
	return fmt.Sprintf("upload attempt failed: status %d", e.StatusCode)
}

func (e *attemptError) Unwrap() error { return e.Err }

// classify maps a failed attempt to retryability and a user-facing reason.
//
//	0 (no response)  retryable  network/timeout
//	408, 429         retryable  transient
//	>= 500           retryable  server hiccup
//	403              fatal      expired or unauthorized presigned URL
//	400              fatal      malformed request
//	other 4xx        fatal      server message, or a generic fallback
func classify(att *attemptError) (retryable bool, reason string) {
	switch {
	case att.StatusCode == 0:
		return true, reasonNetwork
	case att.StatusCode == http.StatusRequestTimeout || att.StatusCode == http.StatusTooManyRequests:
		return true, reasonTransient
	case att.StatusCode >= http.StatusInternalServerError:
		return true, reasonServer
	case att.StatusCode == http.StatusForbidden:
		return false, reasonExpiredURL
	case att.StatusCode == http.StatusBadRequest:
		return false, reasonBadRequest
	default:
		if msg := strings.TrimSpace(att.Message); msg != "" {
			return false, msg
		}
		return false, reasonGenericFail
	}
}
