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

// --- DTOs ---

type CreerAssujettiRequest struct {
	Nom                  string `json:"nom" binding:"required"`
	RaisonSociale        string `json:"raison_sociale"`
	Email                string `json:"email" binding:"omitempty,email"`
	Telephone            string `json:"telephone"`
	Adresse              string `json:"adresse"`
	EntiteTerritorialeID string `json:"entite_territoriale_id" binding:"required,uuid"`
	Categorie            string `json:"categorie" binding:"required,oneof=PERSONNE_PHYSIQUE PERSONNE_PHYSIQUE_AVANTAGE PERSONNE_MORALE PERSONNE_MORALE_AVANTAGE"`
}

type ModifierAssujettiRequest struct {
	Nom           string `json:"nom"`
	RaisonSociale string `json:"raison_sociale"`
	Email         string `json:"email" binding:"omitempty,email"`
	Telephone     string `json:"telephone"`
	Adresse       string `json:"adresse"`
}

type AssujettiFilter struct {
	Statut    string
	Categorie string
	Recherche string
	Page      int
	Limit     int
}

// --- Interface ---

// AssujettiService is the taxpayer registry.
type AssujettiService interface {
	Creer(ctx context.Context, req CreerAssujettiRequest) (model.Assujetti, error)
	Modifier(ctx context.Context, assujettiID string, req ModifierAssujettiRequest) (model.Assujetti, error)
	Obtenir(ctx context.Context, assujettiID string) (model.Assujetti, error)
	Lister(ctx context.Context, filter AssujettiFilter) ([]model.Assujetti, int64, error)
	// NotesAssujetti returns the taxpayer's full note history, across exercises.
	NotesAssujetti(ctx context.Context, assujettiID string) ([]NoteResponse, error)
}

type assujettiService struct {
	assujettiRepo repository.AssujettiRepository
	entiteRepo    repository.EntiteRepository
	noteRepo      repository.NoteRepository
}

func NewAssujettiService(
	assujettiRepo repository.AssujettiRepository,
	entiteRepo repository.EntiteRepository,
	noteRepo repository.NoteRepository,
) AssujettiService {
	return &assujettiService{
		assujettiRepo: assujettiRepo,
		entiteRepo:    entiteRepo,
		noteRepo:      noteRepo,
	}
}

// --- Implementation ---

func (s *assujettiService) Creer(ctx context.Context, req CreerAssujettiRequest) (model.Assujetti, error) {
	entiteID, err := uuid.Parse(req.EntiteTerritorialeID)
	if err != nil {
		return model.Assujetti{}, apperr.Validation("entite_territoriale_id invalide: %s", req.EntiteTerritorialeID)
	}

	if _, err := s.entiteRepo.FindByID(ctx, entiteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Assujetti{}, apperr.NotFound("entite territoriale %s introuvable", req.EntiteTerritorialeID)
		}
		return model.Assujetti{}, apperr.Internal(err, "echec du chargement de l'entite territoriale")
	}

	assujetti := model.Assujetti{
		Nom:                  req.Nom,
		RaisonSociale:        req.RaisonSociale,
		Email:                req.Email,
		Telephone:            req.Telephone,
		Adresse:              req.Adresse,
		EntiteTerritorialeID: entiteID,
		Categorie:            req.Categorie,
		Statut:               model.StatutAssujettiNouveau,
	}
	if err := s.assujettiRepo.Create(ctx, &assujetti); err != nil {
		return model.Assujetti{}, apperr.Internal(err, "echec de la creation de l'assujetti")
	}
	return assujetti, nil
}

func (s *assujettiService) Modifier(ctx context.Context, assujettiID string, req ModifierAssujettiRequest) (model.Assujetti, error) {
	id, err := uuid.Parse(assujettiID)
	if err != nil {
		return model.Assujetti{}, apperr.Validation("identifiant d'assujetti invalide: %s", assujettiID)
	}

	assujetti, err := s.assujettiRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Assujetti{}, apperr.NotFound("assujetti %s introuvable", assujettiID)
		}
		return model.Assujetti{}, apperr.Internal(err, "echec du chargement de l'assujetti")
	}

	if req.Nom != "" {
		assujetti.Nom = req.Nom
	}
	if req.RaisonSociale != "" {
		assujetti.RaisonSociale = req.RaisonSociale
	}
	if req.Email != "" {
		assujetti.Email = req.Email
	}
	if req.Telephone != "" {
		assujetti.Telephone = req.Telephone
	}
	if req.Adresse != "" {
		assujetti.Adresse = req.Adresse
	}

	if err := s.assujettiRepo.Update(ctx, assujetti); err != nil {
		return model.Assujetti{}, apperr.Internal(err, "echec de la mise a jour de l'assujetti")
	}
	return *assujetti, nil
}

func (s *assujettiService) Obtenir(ctx context.Context, assujettiID string) (model.Assujetti, error) {
	id, err := uuid.Parse(assujettiID)
	if err != nil {
		return model.Assujetti{}, apperr.Validation("identifiant d'assujetti invalide: %s", assujettiID)
	}

	assujetti, err := s.assujettiRepo.FindByIDWithEntite(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Assujetti{}, apperr.NotFound("assujetti %s introuvable", assujettiID)
		}
		return model.Assujetti{}, apperr.Internal(err, "echec du chargement de l'assujetti")
	}
	return *assujetti, nil
}

func (s *assujettiService) Lister(ctx context.Context, filter AssujettiFilter) ([]model.Assujetti, int64, error) {
	repoFilter := repository.AssujettiListFilter{
		Statut:    filter.Statut,
		Categorie: filter.Categorie,
		Recherche: filter.Recherche,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}

	assujettis, total, err := s.assujettiRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "echec du chargement des assujettis")
	}
	return assujettis, total, nil
}

func (s *assujettiService) NotesAssujetti(ctx context.Context, assujettiID string) ([]NoteResponse, error) {
	id, err := uuid.Parse(assujettiID)
	if err != nil {
		return nil, apperr.Validation("identifiant d'assujetti invalide: %s", assujettiID)
	}

	if _, err := s.assujettiRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("assujetti %s introuvable", assujettiID)
		}
		return nil, apperr.Internal(err, "echec du chargement de l'assujetti")
	}

	notes, err := s.noteRepo.FindByAssujetti(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "echec du chargement des notes")
	}

	result := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		result = append(result, toNoteResponse(n))
	}
	return result, nil
}
