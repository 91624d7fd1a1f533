package listsync

import (
	"errors"
	"fmt"

	"github.com/Makepad-fr/retos/internal/gateway"
	"github.com/Makepad-fr/retos/internal/model"
)

// UserMessage turns an operation error into text fit for the status line.
// Server explanations are shown verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		herr *gateway.HTTPError
		terr *gateway.TransportError
		derr *gateway.DecodeError
	)
	switch {
	case errors.Is(err, ErrNotConfirmed):
		return "cancelled"
	case errors.Is(err, ErrEmptyPatch), errors.Is(err, ErrNotFound):
		return err.Error()
	case errors.Is(err, model.ErrInvalidDraft):
		return err.Error()
	case errors.As(err, &herr):
		if msg := herr.Message(); msg != "" {
			return msg
		}
		return fmt.Sprintf("server answered HTTP %d", herr.Status)
	case errors.As(err, &terr):
		return "cannot reach server: " + terr.Err.Error()
	case errors.As(err, &derr):
		return "unexpected response from server"
	}
	return err.Error()
}
