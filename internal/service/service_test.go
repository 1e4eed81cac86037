package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/bbasabana/redevance-sub001/internal/database"
	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A fresh pool connection would see an empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedEntite(t *testing.T, db *gorm.DB, prefixe, zone string) model.EntiteTerritoriale {
	t.Helper()
	entite := model.EntiteTerritoriale{
		Nom:           "Commune " + prefixe,
		Type:          model.TypeEntiteCommune,
		PrefixeFiscal: prefixe,
		Zone:          zone,
	}
	require.NoError(t, db.Create(&entite).Error)
	return entite
}

func seedTarif(t *testing.T, db *gorm.DB, categorieAppareil, categorieAssujetti, zone string, prix int64) model.Tarif {
	t.Helper()
	tarif := model.Tarif{
		CategorieAppareil:  categorieAppareil,
		CategorieAssujetti: categorieAssujetti,
		Zone:               zone,
		PrixUnitaire:       decimal.NewFromInt(prix),
		Actif:              true,
	}
	require.NoError(t, db.Create(&tarif).Error)
	return tarif
}

// --- Notifier doubles ---

type envoiTest struct {
	Destinataire string
	Sujet        string
}

// notifierTest records every send and can be told to fail for given addresses.
type notifierTest struct {
	mu         sync.Mutex
	envois     []envoiTest
	echouePour map[string]bool
}

func newNotifierTest() *notifierTest {
	return &notifierTest{echouePour: map[string]bool{}}
}

func (n *notifierTest) Envoyer(_ context.Context, destinataire, sujet, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.echouePour[destinataire] {
		return fmt.Errorf("envoi refuse pour %s", destinataire)
	}
	n.envois = append(n.envois, envoiTest{Destinataire: destinataire, Sujet: sujet})
	return nil
}

func (n *notifierTest) nombreEnvois() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.envois)
}

type diffuseurTest struct{}

func (diffuseurTest) DiffuserEvenement(string, string) {}

// --- Wiring helpers ---

type banc struct {
	db          *gorm.DB
	txManager   repository.TransactionManager
	entites     repository.EntiteRepository
	assujettis  repository.AssujettiRepository
	tarifs      repository.TarifRepository
	decls       repository.DeclarationRepository
	notes       repository.NoteRepository
	sequences   repository.SequenceRepository
	paiements   repository.PaiementRepository
	relances    repository.RelanceRepository
	audits      repository.AuditRepository
	notifier    *notifierTest
	tarifSvc    TarifService
	geoSvc      GeographieService
	declSvc     DeclarationService
	noteSvc     NoteService
	paiementSvc PaiementService
	relanceSvc  RelanceService
}

func newBanc(t *testing.T) *banc {
	t.Helper()
	db := newTestDB(t)
	logger := zap.NewNop()

	b := &banc{
		db:         db,
		txManager:  repository.NewTransactionManager(db),
		entites:    repository.NewEntiteRepository(db),
		assujettis: repository.NewAssujettiRepository(db),
		tarifs:     repository.NewTarifRepository(db),
		decls:      repository.NewDeclarationRepository(db),
		notes:      repository.NewNoteRepository(db),
		sequences:  repository.NewSequenceRepository(db),
		paiements:  repository.NewPaiementRepository(db),
		relances:   repository.NewRelanceRepository(db),
		audits:     repository.NewAuditRepository(db),
		notifier:   newNotifierTest(),
	}

	b.tarifSvc = NewTarifService(b.tarifs, b.audits)
	b.geoSvc = NewGeographieService(b.entites)
	b.declSvc = NewDeclarationService(
		b.assujettis, b.decls, b.notes, b.sequences, b.audits,
		b.tarifSvc, b.geoSvc, b.txManager, b.notifier, diffuseurTest{}, logger)
	b.noteSvc = NewNoteService(b.notes, b.decls, b.audits, b.txManager)
	b.paiementSvc = NewPaiementService(
		b.paiements, b.notes, b.assujettis, b.audits, b.txManager, b.notifier, logger)
	b.relanceSvc = NewRelanceService(
		b.relances, b.notes, b.audits, b.txManager, b.notifier, nil, logger)

	return b
}

func (b *banc) seedAssujetti(t *testing.T, prefixe, zone, categorie string) model.Assujetti {
	t.Helper()
	entite := seedEntite(t, b.db, prefixe, zone)
	assujetti := model.Assujetti{
		Nom:                  "Kabongo Mwamba",
		Email:                "kabongo@example.cd",
		EntiteTerritorialeID: entite.ID,
		Categorie:            categorie,
		Statut:               model.StatutAssujettiNouveau,
	}
	require.NoError(t, b.db.Create(&assujetti).Error)
	return assujetti
}
