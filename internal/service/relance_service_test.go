package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bbasabana/redevance-sub001/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envoisAvecSujet returns the recorded sends whose subject starts with the
// given prefix. Receipt and settlement emails go out asynchronously, so
// escalation tests filter on the subject instead of counting everything.
func (n *notifierTest) envoisAvecSujet(prefixe string) []envoiTest {
	n.mu.Lock()
	defer n.mu.Unlock()
	var filtres []envoiTest
	for _, e := range n.envois {
		if strings.HasPrefix(e.Sujet, prefixe) {
			filtres = append(filtres, e)
		}
	}
	return filtres
}

func relancesEnBase(t *testing.T, b *banc, noteID interface{ String() string }) []model.Relance {
	t.Helper()
	var relances []model.Relance
	require.NoError(t, b.db.Where("note_taxation_id = ?", noteID.String()).
		Order("created_at asc").Find(&relances).Error)
	return relances
}

func TestExecuterAvantPremierPalier(t *testing.T) {
	b := newBanc(t)
	note := noteEmise(t, b, 2)

	jour := note.DateRemise.AddDate(0, 0, 14)
	resultat, err := b.relanceSvc.Executer(context.Background(), jour)
	require.NoError(t, err)

	assert.Equal(t, 1, resultat.NotesExaminees)
	assert.Equal(t, 0, resultat.RelancesEnvoyees)
	assert.Empty(t, relancesEnBase(t, b, note.ID))
}

func TestExecuterRappelAmicalAuJour15(t *testing.T) {
	b := newBanc(t)
	note := noteEmise(t, b, 2)

	jour := note.DateRemise.AddDate(0, 0, 15)
	resultat, err := b.relanceSvc.Executer(context.Background(), jour)
	require.NoError(t, err)

	assert.Equal(t, 1, resultat.RelancesEnvoyees)
	assert.Equal(t, 0, resultat.Echecs)

	relances := relancesEnBase(t, b, note.ID)
	require.Len(t, relances, 1)
	assert.Equal(t, model.PalierRappelAmical, relances[0].Palier)

	envois := b.notifier.envoisAvecSujet("Rappel amical")
	require.Len(t, envois, 1)
	assert.Equal(t, "kabongo@example.cd", envois[0].Destinataire)

	// A friendly reminder does not change the note's status.
	var reloaded model.NoteTaxation
	require.NoError(t, b.db.First(&reloaded, "id = ?", note.ID).Error)
	assert.Equal(t, model.StatutNoteEmise, reloaded.Statut)
}

func TestExecuterDeuxFoisMemePalier(t *testing.T) {
	b := newBanc(t)
	note := noteEmise(t, b, 2)
	ctx := context.Background()

	_, err := b.relanceSvc.Executer(ctx, note.DateRemise.AddDate(0, 0, 15))
	require.NoError(t, err)

	// The next day the note is still on the same stage: nothing is resent.
	resultat, err := b.relanceSvc.Executer(ctx, note.DateRemise.AddDate(0, 0, 16))
	require.NoError(t, err)
	assert.Equal(t, 0, resultat.RelancesEnvoyees)
	assert.Len(t, relancesEnBase(t, b, note.ID), 1)
	assert.Len(t, b.notifier.envoisAvecSujet("Rappel amical"), 1)
}

func TestExecuterMiseEnDemeureSautePaliersIntermediaires(t *testing.T) {
	b := newBanc(t)
	note := noteEmise(t, b, 2)

	// First run happens at D+30: only the highest reached stage goes out,
	// never the skipped reminders.
	resultat, err := b.relanceSvc.Executer(context.Background(), note.DateRemise.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, 1, resultat.RelancesEnvoyees)

	relances := relancesEnBase(t, b, note.ID)
	require.Len(t, relances, 1)
	assert.Equal(t, model.PalierMiseEnDemeure, relances[0].Palier)
	assert.Empty(t, b.notifier.envoisAvecSujet("Rappel amical"))

	var reloaded model.NoteTaxation
	require.NoError(t, b.db.First(&reloaded, "id = ?", note.ID).Error)
	assert.Equal(t, model.StatutNoteEnRetard, reloaded.Statut)
}

func TestExecuterDernierAvisPasseEnContentieux(t *testing.T) {
	b := newBanc(t)
	note := noteEmise(t, b, 2)
	ctx := context.Background()

	resultat, err := b.relanceSvc.Executer(ctx, note.DateRemise.AddDate(0, 0, 38))
	require.NoError(t, err)
	assert.Equal(t, 1, resultat.RelancesEnvoyees)

	var reloaded model.NoteTaxation
	require.NoError(t, b.db.First(&reloaded, "id = ?", note.ID).Error)
	assert.Equal(t, model.StatutNoteContentieux, reloaded.Statut)

	// Litigation notes leave the escalation pool entirely.
	resultat, err = b.relanceSvc.Executer(ctx, note.DateRemise.AddDate(0, 0, 60))
	require.NoError(t, err)
	assert.Equal(t, 0, resultat.NotesExaminees)
	assert.Len(t, relancesEnBase(t, b, note.ID), 1)
}

func TestExecuterEscaladeProgressive(t *testing.T) {
	b := newBanc(t)
	note := noteEmise(t, b, 2)
	ctx := context.Background()

	for _, jours := range []int{15, 25, 30, 38} {
		_, err := b.relanceSvc.Executer(ctx, note.DateRemise.AddDate(0, 0, jours))
		require.NoError(t, err)
	}

	relances := relancesEnBase(t, b, note.ID)
	require.Len(t, relances, 4)
	assert.Equal(t, model.PalierRappelAmical, relances[0].Palier)
	assert.Equal(t, model.PalierAvertissementUrgent, relances[1].Palier)
	assert.Equal(t, model.PalierMiseEnDemeure, relances[2].Palier)
	assert.Equal(t, model.PalierDernierAvis, relances[3].Palier)
}

func TestExecuterEchecEnvoiIsole(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	enDefaut := noteEmise(t, b, 2)

	// Second taxpayer in another commune, reachable address.
	entite := seedEntite(t, b.db, "LEM", model.ZoneUrbaine)
	autre := model.Assujetti{
		Nom:                  "Ilunga Kasongo",
		Email:                "ilunga@example.cd",
		EntiteTerritorialeID: entite.ID,
		Categorie:            model.CategoriePersonnePhysique,
		Statut:               model.StatutAssujettiNouveau,
	}
	require.NoError(t, b.db.Create(&autre).Error)

	resp, err := b.declSvc.Soumettre(ctx, SoumettreDeclarationRequest{
		AssujettiID: autre.ID.String(),
		Exercice:    2026,
		Lignes:      []LigneDeclarationRequest{{CategorieAppareil: model.CategorieTeleviseur, Quantite: 1}},
	}, "")
	require.NoError(t, err)

	var seconde model.NoteTaxation
	require.NoError(t, b.db.First(&seconde, "numero_note = ?", resp.NumeroNote).Error)
	remise := enDefaut.DateRemise.AddDate(0, 0, -1)
	require.NoError(t, b.db.Model(&seconde).
		Updates(map[string]interface{}{"statut": model.StatutNoteEmise, "date_remise": remise}).Error)

	b.notifier.mu.Lock()
	b.notifier.echouePour["kabongo@example.cd"] = true
	b.notifier.mu.Unlock()

	resultat, err := b.relanceSvc.Executer(ctx, enDefaut.DateRemise.AddDate(0, 0, 15))
	require.NoError(t, err, "a failed send never aborts the whole run")
	assert.Equal(t, 2, resultat.NotesExaminees)
	assert.Equal(t, 1, resultat.RelancesEnvoyees)
	assert.Equal(t, 1, resultat.Echecs)

	// No row is written for the failed send, so the next run retries it.
	assert.Empty(t, relancesEnBase(t, b, enDefaut.ID))
	require.Len(t, relancesEnBase(t, b, seconde.ID), 1)

	b.notifier.mu.Lock()
	delete(b.notifier.echouePour, "kabongo@example.cd")
	b.notifier.mu.Unlock()

	resultat, err = b.relanceSvc.Executer(ctx, enDefaut.DateRemise.AddDate(0, 0, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, resultat.RelancesEnvoyees)
	require.Len(t, relancesEnBase(t, b, enDefaut.ID), 1)
}
