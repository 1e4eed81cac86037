package service

import (
	"context"
	"testing"

	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoumettreCreeDeclarationEtNote(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	assujetti := b.seedAssujetti(t, "GOM", model.ZoneUrbaine, model.CategoriePersonnePhysique)
	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 10)

	resp, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{
		AssujettiID: assujetti.ID.String(),
		Exercice:    2026,
		Lignes: []LigneDeclarationRequest{
			{CategorieAppareil: model.CategorieTeleviseur, Quantite: 2},
		},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalAppareils)
	assert.Equal(t, model.StatutDeclarationSoumise, resp.Statut)
	assert.Equal(t, "2026-GOM-00001", resp.NumeroNote)
	assert.Equal(t, "20.00", resp.MontantTotalDu)
	assert.Equal(t, model.StatutNoteBrouillon, resp.StatutNote)
	require.Len(t, resp.Lignes, 1)

	// The taxpayer moves out of NOUVEAU on first declaration.
	var reloaded model.Assujetti
	require.NoError(t, b.db.First(&reloaded, "id = ?", assujetti.ID).Error)
	assert.Equal(t, model.StatutAssujettiEnCours, reloaded.Statut)

	// Audit row written in the same transaction.
	var auditCount int64
	require.NoError(t, b.db.Model(&model.JournalAudit{}).
		Where("action = ?", model.ActionSoumettreDeclaration).Count(&auditCount).Error)
	assert.EqualValues(t, 1, auditCount)
}

func TestSoumettreRemplaceLignesEtGardeNumero(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	assujetti := b.seedAssujetti(t, "GOM", model.ZoneUrbaine, model.CategoriePersonnePhysique)
	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 10)
	seedTarif(t, b.db, model.CategorieDecodeur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 5)

	premiere, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{
		AssujettiID: assujetti.ID.String(),
		Exercice:    2026,
		Lignes: []LigneDeclarationRequest{
			{CategorieAppareil: model.CategorieTeleviseur, Quantite: 2},
			{CategorieAppareil: model.CategorieDecodeur, Quantite: 1},
		},
	}, "")
	require.NoError(t, err)

	seconde, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{
		AssujettiID: assujetti.ID.String(),
		Exercice:    2026,
		Lignes: []LigneDeclarationRequest{
			{CategorieAppareil: model.CategorieTeleviseur, Quantite: 5},
		},
	}, "")
	require.NoError(t, err)

	// Same declaration row, same note number, fresh lines and amounts.
	assert.Equal(t, premiere.ID, seconde.ID)
	assert.Equal(t, premiere.NumeroNote, seconde.NumeroNote)
	assert.Len(t, seconde.Lignes, 1, "old lines are dropped, not accumulated")
	assert.Equal(t, "50.00", seconde.MontantTotalDu)

	var lignesEnBase int64
	require.NoError(t, b.db.Model(&model.LigneDeclaration{}).Count(&lignesEnBase).Error)
	assert.EqualValues(t, 1, lignesEnBase)

	var notesEnBase int64
	require.NoError(t, b.db.Model(&model.NoteTaxation{}).Count(&notesEnBase).Error)
	assert.EqualValues(t, 1, notesEnBase)
}

func TestSoumettreSequenceParPrefixe(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 10)

	gombe := seedEntite(t, b.db, "GOM", model.ZoneUrbaine)
	lemba := seedEntite(t, b.db, "LEM", model.ZoneUrbaine)

	premier := creerAssujettiPour(t, b, gombe)
	deuxieme := creerAssujettiPour(t, b, gombe)
	troisieme := creerAssujettiPour(t, b, lemba)

	lignes := []LigneDeclarationRequest{{CategorieAppareil: model.CategorieTeleviseur, Quantite: 1}}

	r1, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{AssujettiID: premier, Exercice: 2026, Lignes: lignes}, "")
	require.NoError(t, err)
	r2, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{AssujettiID: deuxieme, Exercice: 2026, Lignes: lignes}, "")
	require.NoError(t, err)
	r3, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{AssujettiID: troisieme, Exercice: 2026, Lignes: lignes}, "")
	require.NoError(t, err)

	assert.Equal(t, "2026-GOM-00001", r1.NumeroNote)
	assert.Equal(t, "2026-GOM-00002", r2.NumeroNote, "sequence is monotonic within a prefix")
	assert.Equal(t, "2026-LEM-00001", r3.NumeroNote, "each prefix counts independently")
}

func TestSoumettreAssujettiInconnu(t *testing.T) {
	b := newBanc(t)

	_, err := b.declSvc.Soumettre(context.Background(), SoumettreDeclarationRequest{
		AssujettiID: "7d444840-9dc0-11d1-b245-5ffdce74fad2",
		Exercice:    2026,
		Lignes:      []LigneDeclarationRequest{{CategorieAppareil: model.CategorieTeleviseur, Quantite: 1}},
	}, "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestSoumettreEchecCalculLaisseTout(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	assujetti := b.seedAssujetti(t, "GOM", model.ZoneUrbaine, model.CategoriePersonnePhysique)
	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 10)

	_, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{
		AssujettiID: assujetti.ID.String(),
		Exercice:    2026,
		Lignes:      []LigneDeclarationRequest{{CategorieAppareil: model.CategorieTeleviseur, Quantite: 3}},
	}, "")
	require.NoError(t, err)

	// Resubmission with an unpriceable category fails the whole transaction.
	_, err = b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{
		AssujettiID: assujetti.ID.String(),
		Exercice:    2026,
		Lignes:      []LigneDeclarationRequest{{CategorieAppareil: model.CategorieTelephone, Quantite: 1}},
	}, "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeCalculation, apperr.CodeOf(err))

	// The prior declaration and its lines survive intact.
	resp, err := b.declSvc.Obtenir(ctx, mustDeclarationID(t, b, assujetti.ID.String(), 2026))
	require.NoError(t, err)
	require.Len(t, resp.Lignes, 1)
	assert.Equal(t, 3, resp.Lignes[0].Quantite)
	assert.Equal(t, "30.00", resp.MontantTotalDu)
}

func TestSoumettrePrioriteTeleviseurSurRadio(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	assujetti := b.seedAssujetti(t, "GOM", model.ZoneUrbaine, model.CategoriePersonnePhysique)
	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 10)
	seedTarif(t, b.db, model.CategorieRadio, model.CategoriePersonnePhysique, model.ZoneUrbaine, 4)

	resp, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{
		AssujettiID: assujetti.ID.String(),
		Exercice:    2026,
		Lignes: []LigneDeclarationRequest{
			{CategorieAppareil: model.CategorieTeleviseur, Quantite: 1},
			{CategorieAppareil: model.CategorieRadio, Quantite: 2},
		},
	}, "")
	require.NoError(t, err)

	// Only the TV is billed; the radios stay in the inventory at zero.
	assert.Equal(t, 3, resp.TotalAppareils)
	assert.Equal(t, "10.00", resp.MontantTotalDu)
}

// --- helpers ---

func creerAssujettiPour(t *testing.T, b *banc, entite model.EntiteTerritoriale) string {
	t.Helper()
	assujetti := model.Assujetti{
		Nom:                  "Assujetti " + entite.PrefixeFiscal,
		Email:                "a@example.cd",
		EntiteTerritorialeID: entite.ID,
		Categorie:            model.CategoriePersonnePhysique,
		Statut:               model.StatutAssujettiNouveau,
	}
	require.NoError(t, b.db.Create(&assujetti).Error)
	return assujetti.ID.String()
}

func mustDeclarationID(t *testing.T, b *banc, assujettiID string, exercice int) string {
	t.Helper()
	var declaration model.Declaration
	require.NoError(t, b.db.First(&declaration, "assujetti_id = ? AND exercice = ?", assujettiID, exercice).Error)
	return declaration.ID.String()
}
