package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/repository"
	"github.com/bbasabana/redevance-sub001/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeuilReductionAppareils is the aggregate device count from which the flat
// volume discount applies.
const SeuilReductionAppareils = 51

// TauxReductionVolume is the flat discount percentage granted at the threshold.
var TauxReductionVolume = decimal.NewFromInt(25)

// --- DTOs ---

// LigneCalcul is one declared device line handed to the calculator. A non-nil
// PrixUnitaire overrides the tariff grid lookup (zero is a valid explicit
// price, used by the TV-priority policy below).
type LigneCalcul struct {
	CategorieAppareil string
	SousCategorie     string
	Operateur         string
	Quantite          int
	PrixUnitaire      *decimal.Decimal
}

type LigneCalculee struct {
	CategorieAppareil string
	SousCategorie     string
	Operateur         string
	Quantite          int
	PrixUnitaire      decimal.Decimal
	MontantLigne      decimal.Decimal
}

type ResultatCalcul struct {
	TotalAppareils   int
	MontantBrut      decimal.Decimal
	TauxReduction    decimal.Decimal
	MontantReduction decimal.Decimal
	MontantNet       decimal.Decimal
	MontantTotalDu   decimal.Decimal
	Lignes           []LigneCalculee
}

type CreateTarifRequest struct {
	CategorieAppareil  string `json:"categorie_appareil" binding:"required"`
	CategorieAssujetti string `json:"categorie_assujetti" binding:"required,oneof=PERSONNE_PHYSIQUE PERSONNE_PHYSIQUE_AVANTAGE PERSONNE_MORALE PERSONNE_MORALE_AVANTAGE"`
	Zone               string `json:"zone" binding:"required,oneof=URBAINE RURALE"`
	PrixUnitaire       string `json:"prix_unitaire" binding:"required"`
	Description        string `json:"description"`
}

type UpdateTarifRequest struct {
	PrixUnitaire string `json:"prix_unitaire" binding:"required"`
	Description  string `json:"description"`
}

type TarifResponse struct {
	ID                 string `json:"id"`
	CategorieAppareil  string `json:"categorie_appareil"`
	CategorieAssujetti string `json:"categorie_assujetti"`
	Zone               string `json:"zone"`
	PrixUnitaire       string `json:"prix_unitaire"`
	Actif              bool   `json:"actif"`
	Description        string `json:"description"`
	CreatedAt          string `json:"created_at"`
}

// --- Interface ---

type TarifService interface {
	// Calculer resolves unit prices for every line and computes the gross,
	// discounted and net amounts of a declaration.
	Calculer(ctx context.Context, categorieAssujetti, zone string, lignes []LigneCalcul) (ResultatCalcul, error)
	ListerTarifs(ctx context.Context, seulementActifs bool) ([]TarifResponse, error)
	CreerTarif(ctx context.Context, req CreateTarifRequest, userID string) (TarifResponse, error)
	ModifierTarif(ctx context.Context, id string, req UpdateTarifRequest, userID string) (TarifResponse, error)
	DesactiverTarif(ctx context.Context, id string, userID string) error
}

type tarifService struct {
	tarifRepo repository.TarifRepository
	auditRepo repository.AuditRepository
}

func NewTarifService(tarifRepo repository.TarifRepository, auditRepo repository.AuditRepository) TarifService {
	return &tarifService{tarifRepo: tarifRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *tarifService) Calculer(ctx context.Context, categorieAssujetti, zone string, lignes []LigneCalcul) (ResultatCalcul, error) {
	if len(lignes) == 0 {
		return ResultatCalcul{}, apperr.Validation("aucune ligne a calculer")
	}

	resultat := ResultatCalcul{
		MontantBrut:      decimal.Zero,
		TauxReduction:    decimal.Zero,
		MontantReduction: decimal.Zero,
		Lignes:           make([]LigneCalculee, 0, len(lignes)),
	}

	for _, ligne := range lignes {
		if ligne.Quantite <= 0 {
			return ResultatCalcul{}, apperr.Validation("quantite invalide pour la categorie %s", ligne.CategorieAppareil)
		}

		var prixUnitaire decimal.Decimal
		if ligne.PrixUnitaire != nil {
			prixUnitaire = *ligne.PrixUnitaire
		} else {
			tarif, err := s.tarifRepo.FindActif(ctx, ligne.CategorieAppareil, categorieAssujetti, zone)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ResultatCalcul{}, apperr.Calculation(
						"aucun tarif actif pour la categorie %s (assujetti %s, zone %s)",
						ligne.CategorieAppareil, categorieAssujetti, zone)
				}
				return ResultatCalcul{}, apperr.Internal(err, "echec de la resolution du tarif")
			}
			prixUnitaire = tarif.PrixUnitaire
		}

		montantLigne := prixUnitaire.Mul(decimal.NewFromInt(int64(ligne.Quantite)))
		resultat.TotalAppareils += ligne.Quantite
		resultat.MontantBrut = resultat.MontantBrut.Add(montantLigne)
		resultat.Lignes = append(resultat.Lignes, LigneCalculee{
			CategorieAppareil: ligne.CategorieAppareil,
			SousCategorie:     ligne.SousCategorie,
			Operateur:         ligne.Operateur,
			Quantite:          ligne.Quantite,
			PrixUnitaire:      prixUnitaire,
			MontantLigne:      montantLigne,
		})
	}

	if resultat.TotalAppareils >= SeuilReductionAppareils {
		resultat.TauxReduction = TauxReductionVolume
		resultat.MontantReduction = resultat.MontantBrut.
			Mul(TauxReductionVolume).
			Div(decimal.NewFromInt(100))
	}

	resultat.MontantNet = resultat.MontantBrut.Sub(resultat.MontantReduction)
	resultat.MontantTotalDu = resultat.MontantNet

	return resultat, nil
}

// AppliquerPrioriteTeleviseur implements the device-priority billing policy:
// when a declaration contains both TV and radio devices, only the TVs are
// billed; the radios keep their quantity for inventory but get an explicit
// zero unit price. The rule is deliberately kept out of Calculer so the
// generic calculator stays usable for arbitrary category sets.
func AppliquerPrioriteTeleviseur(lignes []LigneCalcul) []LigneCalcul {
	aTeleviseur := false
	aRadio := false
	for _, ligne := range lignes {
		switch ligne.CategorieAppareil {
		case model.CategorieTeleviseur:
			aTeleviseur = true
		case model.CategorieRadio:
			aRadio = true
		}
	}

	if !aTeleviseur || !aRadio {
		return lignes
	}

	resultat := make([]LigneCalcul, len(lignes))
	copy(resultat, lignes)
	for i := range resultat {
		if resultat[i].CategorieAppareil == model.CategorieRadio {
			zero := decimal.Zero
			resultat[i].PrixUnitaire = &zero
		}
	}
	return resultat
}

func (s *tarifService) ListerTarifs(ctx context.Context, seulementActifs bool) ([]TarifResponse, error) {
	tarifs, err := s.tarifRepo.List(ctx, seulementActifs)
	if err != nil {
		return nil, apperr.Internal(err, "echec du chargement des tarifs")
	}

	res := make([]TarifResponse, 0, len(tarifs))
	for _, t := range tarifs {
		res = append(res, toTarifResponse(t))
	}
	return res, nil
}

func (s *tarifService) CreerTarif(ctx context.Context, req CreateTarifRequest, userID string) (TarifResponse, error) {
	prix, err := decimal.NewFromString(req.PrixUnitaire)
	if err != nil {
		return TarifResponse{}, apperr.Validation("prix_unitaire invalide: %s", req.PrixUnitaire)
	}
	if prix.IsNegative() {
		return TarifResponse{}, apperr.Validation("prix_unitaire negatif")
	}

	tarif := model.Tarif{
		CategorieAppareil:  req.CategorieAppareil,
		CategorieAssujetti: req.CategorieAssujetti,
		Zone:               req.Zone,
		PrixUnitaire:       prix,
		Actif:              true,
		Description:        req.Description,
	}

	if err := s.tarifRepo.Create(ctx, &tarif); err != nil {
		return TarifResponse{}, apperr.Internal(err, "echec de la creation du tarif")
	}

	s.ecrireAudit(ctx, userID, model.ActionCreerTarif, tarif.ID.String(),
		fmt.Sprintf("%s/%s/%s", req.CategorieAppareil, req.CategorieAssujetti, req.Zone))

	return toTarifResponse(tarif), nil
}

func (s *tarifService) ModifierTarif(ctx context.Context, id string, req UpdateTarifRequest, userID string) (TarifResponse, error) {
	tarifID, err := uuid.Parse(id)
	if err != nil {
		return TarifResponse{}, apperr.Validation("identifiant de tarif invalide: %s", id)
	}

	tarif, err := s.tarifRepo.FindByID(ctx, tarifID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TarifResponse{}, apperr.NotFound("tarif %s introuvable", id)
		}
		return TarifResponse{}, apperr.Internal(err, "echec du chargement du tarif")
	}

	prix, err := decimal.NewFromString(req.PrixUnitaire)
	if err != nil {
		return TarifResponse{}, apperr.Validation("prix_unitaire invalide: %s", req.PrixUnitaire)
	}

	tarif.PrixUnitaire = prix
	tarif.Description = req.Description

	if err := s.tarifRepo.Update(ctx, tarif); err != nil {
		return TarifResponse{}, apperr.Internal(err, "echec de la mise a jour du tarif")
	}

	s.ecrireAudit(ctx, userID, model.ActionModifierTarif, tarif.ID.String(), prix.StringFixed(2))

	return toTarifResponse(*tarif), nil
}

func (s *tarifService) DesactiverTarif(ctx context.Context, id string, userID string) error {
	tarifID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("identifiant de tarif invalide: %s", id)
	}

	tarif, err := s.tarifRepo.FindByID(ctx, tarifID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("tarif %s introuvable", id)
		}
		return apperr.Internal(err, "echec du chargement du tarif")
	}

	tarif.Actif = false
	if err := s.tarifRepo.Update(ctx, tarif); err != nil {
		return apperr.Internal(err, "echec de la desactivation du tarif")
	}

	s.ecrireAudit(ctx, userID, model.ActionDesactiverTarif, tarif.ID.String(), tarif.CategorieAppareil)

	return nil
}

func (s *tarifService) ecrireAudit(ctx context.Context, userID, action, entiteID, entiteNom string) {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	_ = s.auditRepo.Create(ctx, &model.JournalAudit{
		UserID:    uid,
		Action:    action,
		EntiteID:  entiteID,
		EntiteNom: entiteNom,
	})
}

// --- Mapping ---

func toTarifResponse(t model.Tarif) TarifResponse {
	return TarifResponse{
		ID:                 t.ID.String(),
		CategorieAppareil:  t.CategorieAppareil,
		CategorieAssujetti: t.CategorieAssujetti,
		Zone:               t.Zone,
		PrixUnitaire:       t.PrixUnitaire.StringFixed(2),
		Actif:              t.Actif,
		Description:        t.Description,
		CreatedAt:          t.CreatedAt.Format(time.RFC3339),
	}
}
