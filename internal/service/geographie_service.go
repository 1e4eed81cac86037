package service

import (
	"context"
	"errors"

	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/repository"
	"github.com/bbasabana/redevance-sub001/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// profondeurMaxHierarchie bounds the parent-chain walk against cyclic seed data.
const profondeurMaxHierarchie = 10

// Juridiction is what the declaration flow needs from the territorial
// hierarchy: the fiscal prefix for note numbering and the tariff zone.
type Juridiction struct {
	Prefixe string
	Zone    string
}

type EntiteResponse struct {
	ID            string  `json:"id"`
	Nom           string  `json:"nom"`
	Type          string  `json:"type"`
	ParentID      *string `json:"parent_id"`
	PrefixeFiscal string  `json:"prefixe_fiscal,omitempty"`
	Zone          string  `json:"zone,omitempty"`
}

type CreerEntiteRequest struct {
	Nom           string `json:"nom" binding:"required"`
	Type          string `json:"type" binding:"required,oneof=PROVINCE VILLE COMMUNE QUARTIER"`
	ParentID      string `json:"parent_id" binding:"omitempty,uuid"`
	PrefixeFiscal string `json:"prefixe_fiscal"`
	Zone          string `json:"zone" binding:"omitempty,oneof=URBAINE RURALE"`
}

type GeographieService interface {
	// ResoudreJuridiction walks up the parent chain from the given node and
	// returns the first fiscal prefix and tariff zone encountered.
	ResoudreJuridiction(ctx context.Context, entiteID uuid.UUID) (Juridiction, error)
	ListerEntites(ctx context.Context, typeEntite string) ([]EntiteResponse, error)
	CreerEntite(ctx context.Context, req CreerEntiteRequest) (EntiteResponse, error)
}

type geographieService struct {
	entiteRepo repository.EntiteRepository
}

func NewGeographieService(entiteRepo repository.EntiteRepository) GeographieService {
	return &geographieService{entiteRepo: entiteRepo}
}

func (s *geographieService) ResoudreJuridiction(ctx context.Context, entiteID uuid.UUID) (Juridiction, error) {
	var juridiction Juridiction
	courantID := &entiteID

	for i := 0; i < profondeurMaxHierarchie && courantID != nil; i++ {
		entite, err := s.entiteRepo.FindByID(ctx, *courantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Juridiction{}, apperr.NotFound("entite territoriale %s introuvable", courantID)
			}
			return Juridiction{}, apperr.Internal(err, "echec du chargement de l'entite territoriale")
		}

		if juridiction.Prefixe == "" && entite.PrefixeFiscal != "" {
			juridiction.Prefixe = entite.PrefixeFiscal
		}
		if juridiction.Zone == "" && entite.Zone != "" {
			juridiction.Zone = entite.Zone
		}
		if juridiction.Prefixe != "" && juridiction.Zone != "" {
			return juridiction, nil
		}

		courantID = entite.ParentID
	}

	if juridiction.Prefixe == "" {
		return Juridiction{}, apperr.NotFound("aucun prefixe fiscal dans la hierarchie de l'entite %s", entiteID)
	}
	if juridiction.Zone == "" {
		// Without an explicit zone anywhere in the chain, rural is assumed.
		juridiction.Zone = model.ZoneRurale
	}
	return juridiction, nil
}

func (s *geographieService) ListerEntites(ctx context.Context, typeEntite string) ([]EntiteResponse, error) {
	entites, err := s.entiteRepo.List(ctx, typeEntite)
	if err != nil {
		return nil, apperr.Internal(err, "echec du chargement des entites territoriales")
	}

	res := make([]EntiteResponse, 0, len(entites))
	for _, e := range entites {
		item := EntiteResponse{
			ID:            e.ID.String(),
			Nom:           e.Nom,
			Type:          e.Type,
			PrefixeFiscal: e.PrefixeFiscal,
			Zone:          e.Zone,
		}
		if e.ParentID != nil {
			parent := e.ParentID.String()
			item.ParentID = &parent
		}
		res = append(res, item)
	}
	return res, nil
}

func (s *geographieService) CreerEntite(ctx context.Context, req CreerEntiteRequest) (EntiteResponse, error) {
	entite := model.EntiteTerritoriale{
		Nom:           req.Nom,
		Type:          req.Type,
		PrefixeFiscal: req.PrefixeFiscal,
		Zone:          req.Zone,
	}

	if req.ParentID != "" {
		parentID, err := uuid.Parse(req.ParentID)
		if err != nil {
			return EntiteResponse{}, apperr.Validation("parent_id invalide: %s", req.ParentID)
		}
		if _, err := s.entiteRepo.FindByID(ctx, parentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return EntiteResponse{}, apperr.NotFound("entite parente %s introuvable", req.ParentID)
			}
			return EntiteResponse{}, apperr.Internal(err, "echec du chargement de l'entite parente")
		}
		entite.ParentID = &parentID
	}

	if err := s.entiteRepo.Create(ctx, &entite); err != nil {
		return EntiteResponse{}, apperr.Internal(err, "echec de la creation de l'entite territoriale")
	}

	resp := EntiteResponse{
		ID:            entite.ID.String(),
		Nom:           entite.Nom,
		Type:          entite.Type,
		PrefixeFiscal: entite.PrefixeFiscal,
		Zone:          entite.Zone,
	}
	if entite.ParentID != nil {
		parent := entite.ParentID.String()
		resp.ParentID = &parent
	}
	return resp, nil
}
