package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"focuslog/internal/focus"
)

const (
	FocusServiceName = "focuslog.v1.FocusService"
	// FocusServiceSaveProcedure takes and returns a google.protobuf.Struct
	// shaped like the JSON save body and envelope.
	FocusServiceSaveProcedure = "/" + FocusServiceName + "/Save"
)

// Saver is the part of the study service the RPC surface calls.
type Saver interface {
	Save(ctx context.Context, payload map[string]any) (focus.AccumulateResult, error)
}

type FocusHandler struct {
	svc Saver
}

func NewFocusHandler(svc Saver) *FocusHandler {
	return &FocusHandler{svc: svc}
}

// Handler returns the mount path and handler for the focus service.
func (h *FocusHandler) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	save := connect.NewUnaryHandler(FocusServiceSaveProcedure, h.Save, opts...)
	return "/" + FocusServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case FocusServiceSaveProcedure:
			save.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (h *FocusHandler) Save(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	payload := map[string]any{}
	if req.Msg != nil {
		payload = req.Msg.AsMap()
	}
	res, err := h.svc.Save(ctx, payload)
	if err != nil {
		return nil, toConnectError(err)
	}
	out, err := structpb.NewStruct(map[string]any{
		"ok":            true,
		"saved_minutes": res.SavedMinutes,
		"new_focus":     res.NewFocus,
		"row_id":        res.RowID,
		"day":           res.Day,
		"subject":       res.Subject,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, errors.New("server error"))
	}
	return connect.NewResponse(out), nil
}

func toConnectError(err error) *connect.Error {
	envelope := focus.ErrorResponse(err)
	var (
		vErr   *focus.ValidationError
		nfErr  *focus.NotFoundError
		cfgErr *focus.ConfigurationError
		rsErr  *focus.RemoteStoreError
	)
	var code connect.Code
	switch {
	case errors.As(err, &vErr):
		code = connect.CodeInvalidArgument
	case errors.As(err, &nfErr):
		code = connect.CodeNotFound
	case errors.As(err, &cfgErr):
		code = connect.CodeFailedPrecondition
	case errors.As(err, &rsErr):
		code = connect.CodeUnavailable
	default:
		code = connect.CodeInternal
	}
	if code != connect.CodeInvalidArgument && code != connect.CodeNotFound {
		log.Printf("rpc save failed: %v", err)
	}

	cErr := connect.NewError(code, errors.New(envelope.Error))
	fields := map[string]any{}
	if len(envelope.AvailableSubjects) > 0 {
		subjects := make([]any, len(envelope.AvailableSubjects))
		for i, s := range envelope.AvailableSubjects {
			subjects[i] = s
		}
		fields["available_subjects"] = subjects
	}
	if len(envelope.Detail) > 0 {
		var detail any
		if json.Unmarshal(envelope.Detail, &detail) == nil {
			fields["detail"] = detail
		}
	}
	if len(fields) == 0 {
		return cErr
	}
	st, stErr := structpb.NewStruct(fields)
	if stErr != nil {
		return cErr
	}
	if d, dErr := connect.NewErrorDetail(st); dErr == nil {
		cErr.AddDetail(d)
	}
	return cErr
}
