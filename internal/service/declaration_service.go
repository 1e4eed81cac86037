package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/repository"
	"github.com/bbasabana/redevance-sub001/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Diffuseur pushes domain events to connected agent dashboards.
type Diffuseur interface {
	DiffuserEvenement(typeEvenement, message string)
}

// --- DTOs ---

type LigneDeclarationRequest struct {
	CategorieAppareil string `json:"categorie_appareil" binding:"required"`
	SousCategorie     string `json:"sous_categorie"`
	Operateur         string `json:"operateur"`
	Quantite          int    `json:"quantite" binding:"required,gt=0"`
	PrixUnitaire      string `json:"prix_unitaire"` // Optional explicit price, decimal string
}

type SoumettreDeclarationRequest struct {
	AssujettiID string                    `json:"assujetti_id" binding:"required"`
	Exercice    int                       `json:"exercice" binding:"required,gte=2000"`
	Lignes      []LigneDeclarationRequest `json:"lignes" binding:"required,min=1,dive"`
	Remarque    string                    `json:"remarque"`
}

type LigneDeclarationResponse struct {
	CategorieAppareil string `json:"categorie_appareil"`
	SousCategorie     string `json:"sous_categorie,omitempty"`
	Operateur         string `json:"operateur,omitempty"`
	Quantite          int    `json:"quantite"`
	PrixUnitaire      string `json:"prix_unitaire"`
	MontantLigne      string `json:"montant_ligne"`
}

type DeclarationResponse struct {
	ID             string                     `json:"id"`
	AssujettiID    string                     `json:"assujetti_id"`
	Exercice       int                        `json:"exercice"`
	TotalAppareils int                        `json:"total_appareils"`
	Remarque       string                     `json:"remarque,omitempty"`
	Statut         string                     `json:"statut"`
	Lignes         []LigneDeclarationResponse `json:"lignes"`
	NumeroNote     string                     `json:"numero_note"`
	MontantBrut    string                     `json:"montant_brut"`
	TauxReduction  string                     `json:"taux_reduction"`
	MontantNet     string                     `json:"montant_net"`
	MontantTotalDu string                     `json:"montant_total_du"`
	StatutNote     string                     `json:"statut_note"`
	CreatedAt      string                     `json:"created_at"`
}

type DeclarationFilter struct {
	AssujettiID string
	Exercice    int
	Statut      string
	Page        int
	Limit       int
}

// --- Interface ---

type DeclarationService interface {
	// Soumettre ingests (or replaces) a taxpayer's declaration for a fiscal
	// year and creates or refreshes the draft taxation note attached to it.
	Soumettre(ctx context.Context, req SoumettreDeclarationRequest, userID string) (DeclarationResponse, error)
	Obtenir(ctx context.Context, id string) (DeclarationResponse, error)
	Lister(ctx context.Context, filter DeclarationFilter) ([]DeclarationResponse, int64, error)
}

type declarationService struct {
	assujettiRepo   repository.AssujettiRepository
	declarationRepo repository.DeclarationRepository
	noteRepo        repository.NoteRepository
	sequenceRepo    repository.SequenceRepository
	auditRepo       repository.AuditRepository
	tarifService    TarifService
	geographie      GeographieService
	txManager       repository.TransactionManager
	notifier        Notifier
	diffuseur       Diffuseur
	logger          *zap.Logger
}

func NewDeclarationService(
	assujettiRepo repository.AssujettiRepository,
	declarationRepo repository.DeclarationRepository,
	noteRepo repository.NoteRepository,
	sequenceRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	tarifService TarifService,
	geographie GeographieService,
	txManager repository.TransactionManager,
	notifier Notifier,
	diffuseur Diffuseur,
	logger *zap.Logger,
) DeclarationService {
	return &declarationService{
		assujettiRepo:   assujettiRepo,
		declarationRepo: declarationRepo,
		noteRepo:        noteRepo,
		sequenceRepo:    sequenceRepo,
		auditRepo:       auditRepo,
		tarifService:    tarifService,
		geographie:      geographie,
		txManager:       txManager,
		notifier:        notifier,
		diffuseur:       diffuseur,
		logger:          logger,
	}
}

// --- Implementation ---

func (s *declarationService) Soumettre(ctx context.Context, req SoumettreDeclarationRequest, userID string) (DeclarationResponse, error) {
	assujettiID, err := uuid.Parse(req.AssujettiID)
	if err != nil {
		return DeclarationResponse{}, apperr.Validation("assujetti_id invalide: %s", req.AssujettiID)
	}

	lignesCalcul, err := versLignesCalcul(req.Lignes)
	if err != nil {
		return DeclarationResponse{}, err
	}

	assujetti, err := s.assujettiRepo.FindByID(ctx, assujettiID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeclarationResponse{}, apperr.NotFound("assujetti %s introuvable", req.AssujettiID)
		}
		return DeclarationResponse{}, apperr.Internal(err, "echec du chargement de l'assujetti")
	}

	var declaration *model.Declaration
	var note *model.NoteTaxation

	// Steps 2-6 are one atomic unit: a failure on numbering or note creation
	// rolls back the line replacement and leaves any prior declaration intact.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		juridiction, jErr := s.geographie.ResoudreJuridiction(txCtx, assujetti.EntiteTerritorialeID)
		if jErr != nil {
			return jErr
		}

		// The TV/radio priority rule applies only to this declaration flow,
		// never inside the generic calculator.
		resultat, cErr := s.tarifService.Calculer(txCtx, assujetti.Categorie, juridiction.Zone,
			AppliquerPrioriteTeleviseur(lignesCalcul))
		if cErr != nil {
			return cErr
		}

		existante, dErr := s.declarationRepo.FindByAssujettiAndExercice(txCtx, assujettiID, req.Exercice)
		switch {
		case dErr == nil:
			// Replace: the previous lines are dropped wholesale and
			// regenerated from the new computation.
			declaration = existante
			declaration.TotalAppareils = resultat.TotalAppareils
			declaration.Remarque = req.Remarque
			declaration.Statut = model.StatutDeclarationSoumise
			if err := s.declarationRepo.Update(txCtx, declaration); err != nil {
				return apperr.Internal(err, "echec de la mise a jour de la declaration")
			}
			if err := s.declarationRepo.DeleteLignes(txCtx, declaration.ID); err != nil {
				return apperr.Internal(err, "echec de la suppression des anciennes lignes")
			}
		case errors.Is(dErr, gorm.ErrRecordNotFound):
			declaration = &model.Declaration{
				AssujettiID:    assujettiID,
				Exercice:       req.Exercice,
				TotalAppareils: resultat.TotalAppareils,
				Remarque:       req.Remarque,
				Statut:         model.StatutDeclarationSoumise,
			}
			if err := s.declarationRepo.Create(txCtx, declaration); err != nil {
				return apperr.Internal(err, "echec de la creation de la declaration")
			}
		default:
			return apperr.Internal(dErr, "echec de la recherche de la declaration")
		}

		lignes := make([]model.LigneDeclaration, 0, len(resultat.Lignes))
		for _, l := range resultat.Lignes {
			lignes = append(lignes, model.LigneDeclaration{
				DeclarationID:     declaration.ID,
				CategorieAppareil: l.CategorieAppareil,
				SousCategorie:     l.SousCategorie,
				Operateur:         l.Operateur,
				Quantite:          l.Quantite,
				PrixUnitaire:      l.PrixUnitaire,
				MontantLigne:      l.MontantLigne,
			})
		}
		if err := s.declarationRepo.CreateLignes(txCtx, lignes); err != nil {
			return apperr.Internal(err, "echec de la creation des lignes")
		}

		noteExistante, nErr := s.noteRepo.FindByDeclaration(txCtx, declaration.ID)
		switch {
		case nErr == nil:
			// The note number is assigned once and survives re-declarations.
			note = noteExistante
			note.MontantBrut = resultat.MontantBrut
			note.TauxReduction = resultat.TauxReduction
			note.MontantReduction = resultat.MontantReduction
			note.MontantNet = resultat.MontantNet
			note.MontantTotalDu = resultat.MontantTotalDu
			if err := s.noteRepo.Update(txCtx, note); err != nil {
				return apperr.Internal(err, "echec de la mise a jour de la note")
			}
		case errors.Is(nErr, gorm.ErrRecordNotFound):
			sequence, sErr := s.sequenceRepo.ProchaineValeur(txCtx, juridiction.Prefixe)
			if sErr != nil {
				return apperr.Internal(sErr, "echec de l'allocation du numero de note")
			}
			note = &model.NoteTaxation{
				NumeroNote:       FormaterNumeroNote(req.Exercice, juridiction.Prefixe, sequence),
				DeclarationID:    declaration.ID,
				AssujettiID:      assujettiID,
				Exercice:         req.Exercice,
				MontantBrut:      resultat.MontantBrut,
				TauxReduction:    resultat.TauxReduction,
				MontantReduction: resultat.MontantReduction,
				MontantNet:       resultat.MontantNet,
				MontantTotalDu:   resultat.MontantTotalDu,
				Statut:           model.StatutNoteBrouillon,
			}
			if err := s.noteRepo.Create(txCtx, note); err != nil {
				return apperr.Internal(err, "echec de la creation de la note")
			}
		default:
			return apperr.Internal(nErr, "echec de la recherche de la note")
		}

		if assujetti.Statut == model.StatutAssujettiNouveau {
			if err := s.assujettiRepo.UpdateStatut(txCtx, assujettiID, model.StatutAssujettiEnCours); err != nil {
				return apperr.Internal(err, "echec de la mise a jour du statut de l'assujetti")
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"exercice":         req.Exercice,
			"total_appareils":  resultat.TotalAppareils,
			"montant_total_du": resultat.MontantTotalDu.StringFixed(2),
		})
		audit := model.JournalAudit{
			Action:    model.ActionSoumettreDeclaration,
			EntiteID:  declaration.ID.String(),
			EntiteNom: note.NumeroNote,
			Details:   string(details),
		}
		if parsed, pErr := uuid.Parse(userID); pErr == nil {
			audit.UserID = &parsed
		}
		if err := s.auditRepo.Create(txCtx, &audit); err != nil {
			return apperr.Internal(err, "echec de l'ecriture du journal d'audit")
		}

		return nil
	})
	if err != nil {
		return DeclarationResponse{}, err
	}

	// Best-effort notifications, outside the transaction: failures are logged
	// and never surface to the caller.
	s.notifierReception(assujetti, note)

	reloaded, err := s.declarationRepo.FindByIDWithLignes(ctx, declaration.ID)
	if err != nil {
		return DeclarationResponse{}, apperr.Internal(err, "echec du rechargement de la declaration")
	}

	return s.toDeclarationResponse(ctx, *reloaded), nil
}

func (s *declarationService) notifierReception(assujetti *model.Assujetti, note *model.NoteTaxation) {
	sujet := fmt.Sprintf("Declaration recue — exercice %d", note.Exercice)
	corps := fmt.Sprintf(
		"<p>Bonjour %s,</p><p>Votre declaration pour l'exercice %d a bien ete recue. "+
			"La note de taxation %s est en cours de traitement.</p>",
		assujetti.Nom, note.Exercice, note.NumeroNote)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Envoyer(ctx, assujetti.Email, sujet, corps); err != nil {
			s.logger.Warn("notification de reception non envoyee",
				zap.String("numero_note", note.NumeroNote),
				zap.Error(err))
		}
	}()

	if s.diffuseur != nil {
		s.diffuseur.DiffuserEvenement("declaration_recue",
			fmt.Sprintf("Declaration %s a examiner par les agents", note.NumeroNote))
	}
	s.logger.Info("declaration recue, a examiner par les agents",
		zap.String("numero_note", note.NumeroNote),
		zap.String("assujetti", assujetti.Nom))
}

func (s *declarationService) Obtenir(ctx context.Context, id string) (DeclarationResponse, error) {
	declarationID, err := uuid.Parse(id)
	if err != nil {
		return DeclarationResponse{}, apperr.Validation("identifiant de declaration invalide: %s", id)
	}

	declaration, err := s.declarationRepo.FindByIDWithLignes(ctx, declarationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeclarationResponse{}, apperr.NotFound("declaration %s introuvable", id)
		}
		return DeclarationResponse{}, apperr.Internal(err, "echec du chargement de la declaration")
	}

	return s.toDeclarationResponse(ctx, *declaration), nil
}

func (s *declarationService) Lister(ctx context.Context, filter DeclarationFilter) ([]DeclarationResponse, int64, error) {
	repoFilter := repository.DeclarationListFilter{
		Exercice: filter.Exercice,
		Statut:   filter.Statut,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}
	if filter.AssujettiID != "" {
		parsed, err := uuid.Parse(filter.AssujettiID)
		if err != nil {
			return nil, 0, apperr.Validation("assujetti_id invalide: %s", filter.AssujettiID)
		}
		repoFilter.AssujettiID = &parsed
	}

	declarations, total, err := s.declarationRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "echec du chargement des declarations")
	}

	result := make([]DeclarationResponse, 0, len(declarations))
	for _, d := range declarations {
		result = append(result, s.toDeclarationResponse(ctx, d))
	}
	return result, total, nil
}

// --- Helpers ---

// FormaterNumeroNote builds the human-readable note identifier. The format is
// stable and parseable, but sequencing never relies on parsing it back: the
// per-prefix counter row is the source of truth.
func FormaterNumeroNote(exercice int, prefixe string, sequence int64) string {
	return fmt.Sprintf("%d-%s-%05d", exercice, prefixe, sequence)
}

func versLignesCalcul(lignes []LigneDeclarationRequest) ([]LigneCalcul, error) {
	resultat := make([]LigneCalcul, 0, len(lignes))
	for _, l := range lignes {
		ligne := LigneCalcul{
			CategorieAppareil: l.CategorieAppareil,
			SousCategorie:     l.SousCategorie,
			Operateur:         l.Operateur,
			Quantite:          l.Quantite,
		}
		if l.PrixUnitaire != "" {
			prix, err := decimal.NewFromString(l.PrixUnitaire)
			if err != nil {
				return nil, apperr.Validation("prix_unitaire invalide: %s", l.PrixUnitaire)
			}
			if prix.IsNegative() {
				return nil, apperr.Validation("prix_unitaire negatif pour la categorie %s", l.CategorieAppareil)
			}
			ligne.PrixUnitaire = &prix
		}
		resultat = append(resultat, ligne)
	}
	return resultat, nil
}

func (s *declarationService) toDeclarationResponse(ctx context.Context, d model.Declaration) DeclarationResponse {
	resp := DeclarationResponse{
		ID:             d.ID.String(),
		AssujettiID:    d.AssujettiID.String(),
		Exercice:       d.Exercice,
		TotalAppareils: d.TotalAppareils,
		Remarque:       d.Remarque,
		Statut:         d.Statut,
		Lignes:         make([]LigneDeclarationResponse, 0, len(d.Lignes)),
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
	}

	for _, l := range d.Lignes {
		resp.Lignes = append(resp.Lignes, LigneDeclarationResponse{
			CategorieAppareil: l.CategorieAppareil,
			SousCategorie:     l.SousCategorie,
			Operateur:         l.Operateur,
			Quantite:          l.Quantite,
			PrixUnitaire:      l.PrixUnitaire.StringFixed(2),
			MontantLigne:      l.MontantLigne.StringFixed(2),
		})
	}

	if note, err := s.noteRepo.FindByDeclaration(ctx, d.ID); err == nil {
		resp.NumeroNote = note.NumeroNote
		resp.MontantBrut = note.MontantBrut.StringFixed(2)
		resp.TauxReduction = note.TauxReduction.StringFixed(2)
		resp.MontantNet = note.MontantNet.StringFixed(2)
		resp.MontantTotalDu = note.MontantTotalDu.StringFixed(2)
		resp.StatutNote = note.Statut
	}

	return resp
}
