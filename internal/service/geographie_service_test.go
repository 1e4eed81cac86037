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

func TestResoudreJuridictionHeriteeDuParent(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	ville := model.EntiteTerritoriale{
		Nom:           "Kinshasa",
		Type:          model.TypeEntiteVille,
		PrefixeFiscal: "KIN",
		Zone:          model.ZoneUrbaine,
	}
	require.NoError(t, b.db.Create(&ville).Error)

	// The commune carries neither prefix nor zone and inherits both.
	commune := model.EntiteTerritoriale{
		Nom:      "Lingwala",
		Type:     model.TypeEntiteCommune,
		ParentID: &ville.ID,
	}
	require.NoError(t, b.db.Create(&commune).Error)

	juridiction, err := b.geoSvc.ResoudreJuridiction(ctx, commune.ID)
	require.NoError(t, err)
	assert.Equal(t, "KIN", juridiction.Prefixe)
	assert.Equal(t, model.ZoneUrbaine, juridiction.Zone)
}

func TestResoudreJuridictionPrefixeLocalPrioritaire(t *testing.T) {
	b := newBanc(t)
	ctx := context.Background()

	ville := model.EntiteTerritoriale{
		Nom:           "Kinshasa",
		Type:          model.TypeEntiteVille,
		PrefixeFiscal: "KIN",
		Zone:          model.ZoneUrbaine,
	}
	require.NoError(t, b.db.Create(&ville).Error)

	commune := model.EntiteTerritoriale{
		Nom:           "Gombe",
		Type:          model.TypeEntiteCommune,
		ParentID:      &ville.ID,
		PrefixeFiscal: "GOM",
	}
	require.NoError(t, b.db.Create(&commune).Error)

	juridiction, err := b.geoSvc.ResoudreJuridiction(ctx, commune.ID)
	require.NoError(t, err)
	assert.Equal(t, "GOM", juridiction.Prefixe, "the nearest prefix in the chain wins")
	assert.Equal(t, model.ZoneUrbaine, juridiction.Zone)
}

func TestResoudreJuridictionZoneRuraleParDefaut(t *testing.T) {
	b := newBanc(t)

	entite := model.EntiteTerritoriale{
		Nom:           "Territoire de Masisi",
		Type:          model.TypeEntiteCommune,
		PrefixeFiscal: "MAS",
	}
	require.NoError(t, b.db.Create(&entite).Error)

	juridiction, err := b.geoSvc.ResoudreJuridiction(context.Background(), entite.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ZoneRurale, juridiction.Zone)
}

func TestResoudreJuridictionSansPrefixe(t *testing.T) {
	b := newBanc(t)

	entite := model.EntiteTerritoriale{
		Nom:  "Noeud orphelin",
		Type: model.TypeEntiteCommune,
		Zone: model.ZoneUrbaine,
	}
	require.NoError(t, b.db.Create(&entite).Error)

	_, err := b.geoSvc.ResoudreJuridiction(context.Background(), entite.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestResoudreJuridictionEntiteInconnue(t *testing.T) {
	b := newBanc(t)

	_, err := b.geoSvc.ResoudreJuridiction(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCreerEntiteParentInconnu(t *testing.T) {
	b := newBanc(t)

	_, err := b.geoSvc.CreerEntite(context.Background(), CreerEntiteRequest{
		Nom:      "Quartier fantome",
		Type:     model.TypeEntiteQuartier,
		ParentID: uuid.NewString(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
