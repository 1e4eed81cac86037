package service

import (
	"context"
	"testing"
	"time"

	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// soumettreNote creates a taxpayer, submits a declaration and returns the
// resulting draft note's ID.
func soumettreNote(t *testing.T, b *banc) string {
	t.Helper()
	assujetti := b.seedAssujetti(t, "GOM", model.ZoneUrbaine, model.CategoriePersonnePhysique)
	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 10)

	resp, err := b.declSvc.Soumettre(context.Background(), SoumettreDeclarationRequest{
		AssujettiID: assujetti.ID.String(),
		Exercice:    2026,
		Lignes:      []LigneDeclarationRequest{{CategorieAppareil: model.CategorieTeleviseur, Quantite: 2}},
	}, "")
	require.NoError(t, err)

	var note model.NoteTaxation
	require.NoError(t, b.db.First(&note, "numero_note = ?", resp.NumeroNote).Error)
	return note.ID.String()
}

func TestParcoursSignatureComplet(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	noteID := soumettreNote(t, b)
	adjoint := uuid.NewString()
	directeur := uuid.NewString()

	resp, err := b.noteSvc.SoumettrePourSignature(ctx, noteID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatutNoteAttenteSignature1, resp.Statut)

	resp, err = b.noteSvc.Signer(ctx, noteID, model.RoleSignataireAdjoint, adjoint)
	require.NoError(t, err)
	assert.Equal(t, model.StatutNoteAttenteSignature2, resp.Statut)
	require.NotNil(t, resp.Signataire1ID)
	assert.Equal(t, adjoint, *resp.Signataire1ID)
	assert.NotNil(t, resp.DateSignature1)
	assert.Nil(t, resp.DateEmission, "not issued before the second signature")

	resp, err = b.noteSvc.Signer(ctx, noteID, model.RoleSignataireDirecteur, directeur)
	require.NoError(t, err)
	assert.Equal(t, model.StatutNoteEmise, resp.Statut)
	require.NotNil(t, resp.Signataire2ID)
	assert.Equal(t, directeur, *resp.Signataire2ID)
	require.NotNil(t, resp.DateEmission)
	require.NotNil(t, resp.DateEcheance)

	// The payment deadline is stamped 15 days after issuance.
	var note model.NoteTaxation
	require.NoError(t, b.db.First(&note, "id = ?", noteID).Error)
	require.NotNil(t, note.DateEmission)
	require.NotNil(t, note.DateEcheance)
	attendu := note.DateEmission.AddDate(0, 0, DelaiPaiementJours)
	assert.WithinDuration(t, attendu, *note.DateEcheance, time.Second)
	require.NotNil(t, note.DateRemise)
	assert.WithinDuration(t, *note.DateEmission, *note.DateRemise, time.Second)

	var declaration model.Declaration
	require.NoError(t, b.db.First(&declaration, "id = ?", note.DeclarationID).Error)
	assert.Equal(t, model.StatutDeclarationValidee, declaration.Statut)
}

func TestSignerOrdreInverseRefuse(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	noteID := soumettreNote(t, b)

	_, err := b.noteSvc.SoumettrePourSignature(ctx, noteID, "")
	require.NoError(t, err)

	// The director cannot sign before the deputy.
	_, err = b.noteSvc.Signer(ctx, noteID, model.RoleSignataireDirecteur, uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))
}

func TestSignerBrouillonRefuse(t *testing.T) {
	b := newBanc(t)
	noteID := soumettreNote(t, b)

	_, err := b.noteSvc.Signer(context.Background(), noteID, model.RoleSignataireAdjoint, uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))
}

func TestSignerDeuxFoisMemeRoleRefuse(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	noteID := soumettreNote(t, b)

	_, err := b.noteSvc.SoumettrePourSignature(ctx, noteID, "")
	require.NoError(t, err)
	_, err = b.noteSvc.Signer(ctx, noteID, model.RoleSignataireAdjoint, uuid.NewString())
	require.NoError(t, err)

	_, err = b.noteSvc.Signer(ctx, noteID, model.RoleSignataireAdjoint, uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))
}

func TestSoumettrePourSignatureNoteInconnue(t *testing.T) {
	b := newBanc(t)

	_, err := b.noteSvc.SoumettrePourSignature(context.Background(), uuid.NewString(), "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestContesterNote(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	noteID := soumettreNote(t, b)

	resp, err := b.noteSvc.Contester(ctx, noteID, "montant errone", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatutNoteContestee, resp.Statut)

	// The dispute propagates to the underlying declaration.
	var declaration model.Declaration
	require.NoError(t, b.db.First(&declaration, "id = ?", resp.DeclarationID).Error)
	assert.Equal(t, model.StatutDeclarationContestee, declaration.Statut)
}

func TestContesterNotePayeeRefuse(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	noteID := soumettreNote(t, b)

	require.NoError(t, b.db.Model(&model.NoteTaxation{}).
		Where("id = ?", noteID).Update("statut", model.StatutNotePayee).Error)

	_, err := b.noteSvc.Contester(ctx, noteID, "trop tard", "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))
}
