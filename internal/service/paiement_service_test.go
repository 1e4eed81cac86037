package service

import (
	"context"
	"testing"

	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noteEmise runs the full pipeline: declaration of `quantite` TVs at $10,
// then both signatures, and returns the issued note.
func noteEmise(t *testing.T, b *banc, quantite int) model.NoteTaxation {
	t.Helper()
	ctx := context.Background()

	assujetti := b.seedAssujetti(t, "GOM", model.ZoneUrbaine, model.CategoriePersonnePhysique)
	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 10)

	resp, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{
		AssujettiID: assujetti.ID.String(),
		Exercice:    2026,
		Lignes:      []LigneDeclarationRequest{{CategorieAppareil: model.CategorieTeleviseur, Quantite: quantite}},
	}, "")
	require.NoError(t, err)

	var note model.NoteTaxation
	require.NoError(t, b.db.First(&note, "numero_note = ?", resp.NumeroNote).Error)

	_, err = b.noteSvc.SoumettrePourSignature(ctx, note.ID.String(), "")
	require.NoError(t, err)
	_, err = b.noteSvc.Signer(ctx, note.ID.String(), model.RoleSignataireAdjoint, uuid.NewString())
	require.NoError(t, err)
	_, err = b.noteSvc.Signer(ctx, note.ID.String(), model.RoleSignataireDirecteur, uuid.NewString())
	require.NoError(t, err)

	require.NoError(t, b.db.First(&note, "id = ?", note.ID).Error)
	return note
}

func enregistrer(t *testing.T, b *banc, noteID, montant string) PaiementResponse {
	t.Helper()
	resp, err := b.paiementSvc.Enregistrer(context.Background(), EnregistrerPaiementRequest{
		NoteTaxationID: noteID,
		Montant:        montant,
		Canal:          "MOBILE_MONEY",
		DatePaiement:   "2026-04-10",
	})
	require.NoError(t, err)
	return resp
}

func TestEnregistrerPaiementEnAttente(t *testing.T) {
	b := newBanc(t)
	note := noteEmise(t, b, 2)

	resp := enregistrer(t, b, note.ID.String(), "20.00")
	assert.Equal(t, model.StatutPaiementEnAttente, resp.Statut)
	assert.Nil(t, resp.ValideParID)

	// An unconfirmed payment does not move the note.
	var reloaded model.NoteTaxation
	require.NoError(t, b.db.First(&reloaded, "id = ?", note.ID).Error)
	assert.Equal(t, model.StatutNoteEmise, reloaded.Statut)
}

func TestEnregistrerMontantInvalide(t *testing.T) {
	b := newBanc(t)
	note := noteEmise(t, b, 2)

	_, err := b.paiementSvc.Enregistrer(context.Background(), EnregistrerPaiementRequest{
		NoteTaxationID: note.ID.String(),
		Montant:        "-5",
		Canal:          "ESPECES",
		DatePaiement:   "2026-04-10",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestValiderPaiementsPartielsPuisSolde(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	// 60 devices at $10 with the 25% volume discount: $450 due.
	note := noteEmise(t, b, 60)
	agent := uuid.NewString()

	p1 := enregistrer(t, b, note.ID.String(), "200.00")
	p2 := enregistrer(t, b, note.ID.String(), "250.00")

	resp, err := b.paiementSvc.Valider(ctx, p1.ID, agent)
	require.NoError(t, err)
	assert.Equal(t, model.StatutPaiementConfirme, resp.Statut)
	require.NotNil(t, resp.ValideParID)
	assert.Equal(t, agent, *resp.ValideParID)

	solde, err := b.paiementSvc.Solde(ctx, note.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "450.00", solde.MontantTotalDu)
	assert.Equal(t, "200.00", solde.TotalConfirme)
	assert.Equal(t, "250.00", solde.SoldeRestant)
	assert.Equal(t, model.StatutNotePayeePartiellement, solde.Statut)

	_, err = b.paiementSvc.Valider(ctx, p2.ID, agent)
	require.NoError(t, err)

	solde, err = b.paiementSvc.Solde(ctx, note.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "0.00", solde.SoldeRestant)
	assert.Equal(t, model.StatutNotePayee, solde.Statut)

	// Full settlement of the only note in the exercise makes the taxpayer
	// EN_REGLE.
	var assujetti model.Assujetti
	require.NoError(t, b.db.First(&assujetti, "id = ?", note.AssujettiID).Error)
	assert.Equal(t, model.StatutAssujettiEnRegle, assujetti.Statut)
}

func TestValiderRejeteNonComptabilise(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	note := noteEmise(t, b, 2)
	agent := uuid.NewString()

	rejete := enregistrer(t, b, note.ID.String(), "15.00")
	confirme := enregistrer(t, b, note.ID.String(), "20.00")

	resp, err := b.paiementSvc.Rejeter(ctx, rejete.ID, "reference introuvable", agent)
	require.NoError(t, err)
	assert.Equal(t, model.StatutPaiementRejete, resp.Statut)
	assert.Equal(t, "reference introuvable", resp.MotifRejet)

	_, err = b.paiementSvc.Valider(ctx, confirme.ID, agent)
	require.NoError(t, err)

	// Rejected money never enters the balance.
	solde, err := b.paiementSvc.Solde(ctx, note.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "20.00", solde.TotalConfirme)
	assert.Equal(t, model.StatutNotePayee, solde.Statut)
}

func TestRejeterSansMotifRefuse(t *testing.T) {
	b := newBanc(t)
	note := noteEmise(t, b, 2)
	paiement := enregistrer(t, b, note.ID.String(), "20.00")

	_, err := b.paiementSvc.Rejeter(context.Background(), paiement.ID, "", uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestValiderDejaTraiteRefuse(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	note := noteEmise(t, b, 2)
	paiement := enregistrer(t, b, note.ID.String(), "20.00")

	_, err := b.paiementSvc.Valider(ctx, paiement.ID, uuid.NewString())
	require.NoError(t, err)

	_, err = b.paiementSvc.Valider(ctx, paiement.ID, uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeAlreadyProcessed, apperr.CodeOf(err))

	_, err = b.paiementSvc.Rejeter(ctx, paiement.ID, "change d'avis", uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeAlreadyProcessed, apperr.CodeOf(err))
}

func TestValiderSurpaiementSoldeLaNote(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	note := noteEmise(t, b, 2)

	paiement := enregistrer(t, b, note.ID.String(), "25.00")
	_, err := b.paiementSvc.Valider(ctx, paiement.ID, uuid.NewString())
	require.NoError(t, err)

	solde, err := b.paiementSvc.Solde(ctx, note.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatutNotePayee, solde.Statut)
	assert.Equal(t, "0.00", solde.SoldeRestant, "overpayment never reports a negative balance")
}
