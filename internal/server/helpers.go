package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ezBadminton/gobeachtennis/core"
	"github.com/ezBadminton/gobeachtennis/internal/service"
	"github.com/ezBadminton/gobeachtennis/internal/store"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type jsonResponse map[string]any

const maxBodyBytes = 1_048_576

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	js, err := json.Marshal(data)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		s.requestLogger(r).WithError(err).Error("writing the response failed")
	}
}

func (s *Server) requestLogger(r *http.Request) logrus.FieldLogger {
	return s.log.WithField("request_id", middleware.GetReqID(r.Context()))
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	s.writeJSON(w, r, status, jsonResponse{"error": message})
}

func (s *Server) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.requestLogger(r).WithError(err).Error("internal server error")
	message := "the server encountered a problem and could not process your request"
	s.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (s *Server) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (s *Server) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		s.badRequestResponse(w, r, err)
		return
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
	s.errorResponse(w, r, http.StatusUnprocessableEntity, fields)
}

// Reads and validates the request body
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := readJSON(w, r, dst); err != nil {
		s.badRequestResponse(w, r, err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.failedValidationResponse(w, r, err)
		return false
	}
	return true
}

// Maps the errors of the service and the engine to responses
func (s *Server) mapErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrNoGroupStage),
		errors.Is(err, service.ErrNoElimination):
		s.errorResponse(w, r, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrGroupStageExists),
		errors.Is(err, service.ErrEliminationExists),
		errors.Is(err, service.ErrGroupStageIncomplete),
		errors.Is(err, core.ErrMatchCompleted),
		errors.Is(err, core.ErrMatchNotReady),
		errors.Is(err, core.ErrSlotConflict):
		s.errorResponse(w, r, http.StatusConflict, err.Error())

	case errors.Is(err, core.ErrInvalidScore),
		errors.Is(err, core.ErrInsufficientParticipants),
		errors.Is(err, core.ErrTooFewGroups),
		errors.Is(err, core.ErrTooManyGroups),
		errors.Is(err, core.ErrDuplicateTeam),
		errors.Is(err, core.ErrEmptyTeam),
		errors.Is(err, core.ErrDuplicateMember),
		errors.Is(err, core.ErrParticipantId),
		errors.Is(err, core.ErrDuplicateQualifier):
		s.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())

	default:
		s.serverErrorResponse(w, r, err)
	}
}
