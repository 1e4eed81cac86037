package service

import (
	"context"
	"testing"

	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculerScenarioVolume(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	// 60 TVs at 10 each: 600 gross, 25% discount, 150 off, 450 due.
	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonneMorale, model.ZoneUrbaine, 10)

	resultat, err := b.tarifSvc.Calculer(ctx, model.CategoriePersonneMorale, model.ZoneUrbaine, []LigneCalcul{
		{CategorieAppareil: model.CategorieTeleviseur, Quantite: 60},
	})
	require.NoError(t, err)

	assert.Equal(t, 60, resultat.TotalAppareils)
	assert.True(t, resultat.MontantBrut.Equal(decimal.NewFromInt(600)), "brut = %s", resultat.MontantBrut)
	assert.True(t, resultat.TauxReduction.Equal(decimal.NewFromInt(25)))
	assert.True(t, resultat.MontantReduction.Equal(decimal.NewFromInt(150)), "reduction = %s", resultat.MontantReduction)
	assert.True(t, resultat.MontantNet.Equal(decimal.NewFromInt(450)))
	assert.True(t, resultat.MontantTotalDu.Equal(decimal.NewFromInt(450)))
}

func TestCalculerSeuilReduction(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonneMorale, model.ZoneUrbaine, 10)

	// 50 devices: no discount.
	resultat, err := b.tarifSvc.Calculer(ctx, model.CategoriePersonneMorale, model.ZoneUrbaine, []LigneCalcul{
		{CategorieAppareil: model.CategorieTeleviseur, Quantite: 50},
	})
	require.NoError(t, err)
	assert.True(t, resultat.TauxReduction.IsZero())
	assert.True(t, resultat.MontantNet.Equal(decimal.NewFromInt(500)))

	// 51 devices: discount kicks in.
	resultat, err = b.tarifSvc.Calculer(ctx, model.CategoriePersonneMorale, model.ZoneUrbaine, []LigneCalcul{
		{CategorieAppareil: model.CategorieTeleviseur, Quantite: 51},
	})
	require.NoError(t, err)
	assert.True(t, resultat.TauxReduction.Equal(decimal.NewFromInt(25)))
}

func TestCalculerPrixExplicitePrioritaire(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()
	seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 10)

	prix := decimal.NewFromInt(3)
	resultat, err := b.tarifSvc.Calculer(ctx, model.CategoriePersonnePhysique, model.ZoneUrbaine, []LigneCalcul{
		{CategorieAppareil: model.CategorieTeleviseur, Quantite: 2, PrixUnitaire: &prix},
	})
	require.NoError(t, err)
	assert.True(t, resultat.MontantBrut.Equal(decimal.NewFromInt(6)), "explicit price must win over the grid")
}

func TestCalculerPrixExpliciteZero(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	// Zero is a valid explicit price: no grid entry needed, nothing billed.
	zero := decimal.Zero
	resultat, err := b.tarifSvc.Calculer(ctx, model.CategoriePersonnePhysique, model.ZoneRurale, []LigneCalcul{
		{CategorieAppareil: model.CategorieRadio, Quantite: 4, PrixUnitaire: &zero},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, resultat.TotalAppareils)
	assert.True(t, resultat.MontantBrut.IsZero())
}

func TestCalculerTarifManquant(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	_, err := b.tarifSvc.Calculer(ctx, model.CategoriePersonnePhysique, model.ZoneUrbaine, []LigneCalcul{
		{CategorieAppareil: model.CategorieDecodeur, Quantite: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeCalculation, apperr.CodeOf(err))
}

func TestCalculerTarifInactifIgnore(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	tarif := seedTarif(t, b.db, model.CategorieTeleviseur, model.CategoriePersonnePhysique, model.ZoneUrbaine, 10)
	require.NoError(t, b.db.Model(&tarif).Update("actif", false).Error)

	_, err := b.tarifSvc.Calculer(ctx, model.CategoriePersonnePhysique, model.ZoneUrbaine, []LigneCalcul{
		{CategorieAppareil: model.CategorieTeleviseur, Quantite: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeCalculation, apperr.CodeOf(err))
}

func TestAppliquerPrioriteTeleviseur(t *testing.T) {
	lignes := []LigneCalcul{
		{CategorieAppareil: model.CategorieTeleviseur, Quantite: 2},
		{CategorieAppareil: model.CategorieRadio, Quantite: 3},
	}

	resultat := AppliquerPrioriteTeleviseur(lignes)

	require.Len(t, resultat, 2)
	assert.Nil(t, resultat[0].PrixUnitaire, "TV lines keep grid pricing")
	require.NotNil(t, resultat[1].PrixUnitaire)
	assert.True(t, resultat[1].PrixUnitaire.IsZero(), "radio lines get an explicit zero price")
	assert.Equal(t, 3, resultat[1].Quantite, "radio quantity is kept for inventory")

	// Input slice is never mutated.
	assert.Nil(t, lignes[1].PrixUnitaire)
}

func TestAppliquerPrioriteTeleviseurSansTV(t *testing.T) {
	lignes := []LigneCalcul{
		{CategorieAppareil: model.CategorieRadio, Quantite: 3},
	}
	resultat := AppliquerPrioriteTeleviseur(lignes)
	assert.Nil(t, resultat[0].PrixUnitaire, "radio-only declarations are billed normally")
}

func TestCreerEtDesactiverTarif(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	created, err := b.tarifSvc.CreerTarif(ctx, CreateTarifRequest{
		CategorieAppareil:  model.CategorieTeleviseur,
		CategorieAssujetti: model.CategoriePersonnePhysique,
		Zone:               model.ZoneUrbaine,
		PrixUnitaire:       "12.50",
	}, "")
	require.NoError(t, err)
	assert.True(t, created.Actif)
	assert.Equal(t, "12.50", created.PrixUnitaire)

	require.NoError(t, b.tarifSvc.DesactiverTarif(ctx, created.ID, ""))

	actifs, err := b.tarifSvc.ListerTarifs(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, actifs)
}
