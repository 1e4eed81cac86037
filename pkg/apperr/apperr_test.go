package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("note %s introuvable", "x")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))

	// Wrapped coded errors stay recognizable through %w chains.
	wrapped := fmt.Errorf("contexte: %w", AlreadyProcessed("paiement deja traite"))
	assert.Equal(t, CodeAlreadyProcessed, CodeOf(wrapped))
	assert.True(t, Is(wrapped, CodeAlreadyProcessed))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connexion perdue")
	err := Internal(cause, "echec du magasin")
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "echec du magasin")
	assert.Contains(t, err.Error(), "connexion perdue")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeValidation))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeCalculation))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeInvalidTransition))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeAlreadyProcessed))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
}
