package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/repository"
	"github.com/bbasabana/redevance-sub001/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DelaiPaiementJours is the statutory grace period between issuance and the
// payment deadline.
const DelaiPaiementJours = 15

// --- DTOs ---

type NoteResponse struct {
	ID               string  `json:"id"`
	NumeroNote       string  `json:"numero_note"`
	DeclarationID    string  `json:"declaration_id"`
	AssujettiID      string  `json:"assujetti_id"`
	AssujettiNom     string  `json:"assujetti_nom,omitempty"`
	Exercice         int     `json:"exercice"`
	MontantBrut      string  `json:"montant_brut"`
	TauxReduction    string  `json:"taux_reduction"`
	MontantReduction string  `json:"montant_reduction"`
	MontantNet       string  `json:"montant_net"`
	MontantTotalDu   string  `json:"montant_total_du"`
	Signataire1ID    *string `json:"signataire1_id"`
	DateSignature1   *string `json:"date_signature1"`
	Signataire2ID    *string `json:"signataire2_id"`
	DateSignature2   *string `json:"date_signature2"`
	DateEmission     *string `json:"date_emission"`
	DateRemise       *string `json:"date_remise"`
	DateEcheance     *string `json:"date_echeance"`
	Statut           string  `json:"statut"`
	CreatedAt        string  `json:"created_at"`
}

type NoteFilter struct {
	AssujettiID string
	Exercice    int
	Statut      string
	NumeroNote  string
	Page        int
	Limit       int
}

// --- Interface ---

// NoteService drives the two-signer approval sequence
// BROUILLON|SOUMISE → ATTENTE_SIGNATURE_1 → ATTENTE_SIGNATURE_2 → EMISE.
// Any transition outside the table fails INVALID_TRANSITION instead of
// silently no-opping.
type NoteService interface {
	SoumettrePourSignature(ctx context.Context, noteID string, userID string) (NoteResponse, error)
	Signer(ctx context.Context, noteID string, roleSignataire string, signataireID string) (NoteResponse, error)
	Contester(ctx context.Context, noteID string, motif string, userID string) (NoteResponse, error)
	Obtenir(ctx context.Context, noteID string) (NoteResponse, error)
	Lister(ctx context.Context, filter NoteFilter) ([]NoteResponse, int64, error)
}

type noteService struct {
	noteRepo        repository.NoteRepository
	declarationRepo repository.DeclarationRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
}

func NewNoteService(
	noteRepo repository.NoteRepository,
	declarationRepo repository.DeclarationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) NoteService {
	return &noteService{
		noteRepo:        noteRepo,
		declarationRepo: declarationRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
	}
}

// --- Implementation ---

func (s *noteService) SoumettrePourSignature(ctx context.Context, noteID string, userID string) (NoteResponse, error) {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return NoteResponse{}, apperr.Validation("identifiant de note invalide: %s", noteID)
	}

	var note *model.NoteTaxation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		note, findErr = s.noteRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("note %s introuvable", noteID)
			}
			return apperr.Internal(findErr, "echec du chargement de la note")
		}

		if note.Statut != model.StatutNoteBrouillon && note.Statut != model.StatutNoteSoumise {
			return apperr.InvalidTransition(
				"la note %s ne peut pas etre soumise a signature depuis le statut %s",
				note.NumeroNote, note.Statut)
		}

		note.Statut = model.StatutNoteAttenteSignature1
		if updateErr := s.noteRepo.Update(txCtx, note); updateErr != nil {
			return apperr.Internal(updateErr, "echec de la mise a jour de la note")
		}

		return s.ecrireAudit(txCtx, userID, model.ActionSoumettreSignature, note, nil)
	})
	if err != nil {
		return NoteResponse{}, err
	}

	return toNoteResponse(*note), nil
}

func (s *noteService) Signer(ctx context.Context, noteID string, roleSignataire string, signataireID string) (NoteResponse, error) {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return NoteResponse{}, apperr.Validation("identifiant de note invalide: %s", noteID)
	}

	signataire, err := uuid.Parse(signataireID)
	if err != nil {
		return NoteResponse{}, apperr.Validation("identifiant de signataire invalide: %s", signataireID)
	}

	if roleSignataire != model.RoleSignataireAdjoint && roleSignataire != model.RoleSignataireDirecteur {
		return NoteResponse{}, apperr.Validation("role de signataire inconnu: %s", roleSignataire)
	}

	var note *model.NoteTaxation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		note, findErr = s.noteRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("note %s introuvable", noteID)
			}
			return apperr.Internal(findErr, "echec du chargement de la note")
		}

		now := time.Now()
		switch roleSignataire {
		case model.RoleSignataireAdjoint:
			if note.Statut != model.StatutNoteAttenteSignature1 {
				return apperr.InvalidTransition(
					"signature adjoint refusee: la note %s est au statut %s, attendu %s",
					note.NumeroNote, note.Statut, model.StatutNoteAttenteSignature1)
			}
			note.Signataire1ID = &signataire
			note.DateSignature1 = &now
			note.Statut = model.StatutNoteAttenteSignature2

		case model.RoleSignataireDirecteur:
			if note.Statut != model.StatutNoteAttenteSignature2 {
				return apperr.InvalidTransition(
					"signature directeur refusee: la note %s est au statut %s, attendu %s",
					note.NumeroNote, note.Statut, model.StatutNoteAttenteSignature2)
			}
			note.Signataire2ID = &signataire
			note.DateSignature2 = &now
			// Delivery is assumed immediate on final approval.
			emission := now
			remise := emission
			echeance := emission.AddDate(0, 0, DelaiPaiementJours)
			note.DateEmission = &emission
			note.DateRemise = &remise
			note.DateEcheance = &echeance
			note.Statut = model.StatutNoteEmise
		}

		if updateErr := s.noteRepo.Update(txCtx, note); updateErr != nil {
			return apperr.Internal(updateErr, "echec de la mise a jour de la note")
		}

		// Issuance validates the underlying declaration.
		if note.Statut == model.StatutNoteEmise {
			declaration, dErr := s.declarationRepo.FindByID(txCtx, note.DeclarationID)
			if dErr != nil {
				return apperr.Internal(dErr, "echec du chargement de la declaration")
			}
			declaration.Statut = model.StatutDeclarationValidee
			if uErr := s.declarationRepo.Update(txCtx, declaration); uErr != nil {
				return apperr.Internal(uErr, "echec de la mise a jour de la declaration")
			}
		}

		return s.ecrireAudit(txCtx, signataireID, model.ActionSignerNote, note,
			map[string]interface{}{"role": roleSignataire})
	})
	if err != nil {
		return NoteResponse{}, err
	}

	return toNoteResponse(*note), nil
}

func (s *noteService) Contester(ctx context.Context, noteID string, motif string, userID string) (NoteResponse, error) {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return NoteResponse{}, apperr.Validation("identifiant de note invalide: %s", noteID)
	}

	var note *model.NoteTaxation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		note, findErr = s.noteRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("note %s introuvable", noteID)
			}
			return apperr.Internal(findErr, "echec du chargement de la note")
		}

		if note.Statut == model.StatutNotePayee {
			return apperr.InvalidTransition("la note %s est deja payee", note.NumeroNote)
		}

		note.Statut = model.StatutNoteContestee
		if updateErr := s.noteRepo.Update(txCtx, note); updateErr != nil {
			return apperr.Internal(updateErr, "echec de la mise a jour de la note")
		}

		declaration, dErr := s.declarationRepo.FindByID(txCtx, note.DeclarationID)
		if dErr != nil {
			return apperr.Internal(dErr, "echec du chargement de la declaration")
		}
		declaration.Statut = model.StatutDeclarationContestee
		if uErr := s.declarationRepo.Update(txCtx, declaration); uErr != nil {
			return apperr.Internal(uErr, "echec de la mise a jour de la declaration")
		}

		return s.ecrireAudit(txCtx, userID, model.ActionContesterNote, note,
			map[string]interface{}{"motif": motif})
	})
	if err != nil {
		return NoteResponse{}, err
	}

	return toNoteResponse(*note), nil
}

func (s *noteService) Obtenir(ctx context.Context, noteID string) (NoteResponse, error) {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return NoteResponse{}, apperr.Validation("identifiant de note invalide: %s", noteID)
	}

	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NoteResponse{}, apperr.NotFound("note %s introuvable", noteID)
		}
		return NoteResponse{}, apperr.Internal(err, "echec du chargement de la note")
	}

	return toNoteResponse(*note), nil
}

func (s *noteService) Lister(ctx context.Context, filter NoteFilter) ([]NoteResponse, int64, error) {
	repoFilter := repository.NoteListFilter{
		Exercice:   filter.Exercice,
		Statut:     filter.Statut,
		NumeroNote: filter.NumeroNote,
		Page:       filter.Page,
		Limit:      filter.Limit,
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

	notes, total, err := s.noteRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "echec du chargement des notes")
	}

	result := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		result = append(result, toNoteResponse(n))
	}
	return result, total, nil
}

func (s *noteService) ecrireAudit(ctx context.Context, userID string, action string, note *model.NoteTaxation, extra map[string]interface{}) error {
	payload := map[string]interface{}{
		"numero_note": note.NumeroNote,
		"statut":      note.Statut,
	}
	for k, v := range extra {
		payload[k] = v
	}
	details, _ := json.Marshal(payload)

	audit := model.JournalAudit{
		Action:    action,
		EntiteID:  note.ID.String(),
		EntiteNom: note.NumeroNote,
		Details:   string(details),
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		audit.UserID = &parsed
	}
	if err := s.auditRepo.Create(ctx, &audit); err != nil {
		return apperr.Internal(err, "echec de l'ecriture du journal d'audit")
	}
	return nil
}

// --- Mapping ---

func toNoteResponse(n model.NoteTaxation) NoteResponse {
	resp := NoteResponse{
		ID:               n.ID.String(),
		NumeroNote:       n.NumeroNote,
		DeclarationID:    n.DeclarationID.String(),
		AssujettiID:      n.AssujettiID.String(),
		Exercice:         n.Exercice,
		MontantBrut:      n.MontantBrut.StringFixed(2),
		TauxReduction:    n.TauxReduction.StringFixed(2),
		MontantReduction: n.MontantReduction.StringFixed(2),
		MontantNet:       n.MontantNet.StringFixed(2),
		MontantTotalDu:   n.MontantTotalDu.StringFixed(2),
		Statut:           n.Statut,
		CreatedAt:        n.CreatedAt.Format(time.RFC3339),
	}

	if n.Assujetti != nil {
		resp.AssujettiNom = n.Assujetti.Nom
	}
	if n.Signataire1ID != nil {
		v := n.Signataire1ID.String()
		resp.Signataire1ID = &v
	}
	if n.Signataire2ID != nil {
		v := n.Signataire2ID.String()
		resp.Signataire2ID = &v
	}
	resp.DateSignature1 = formatTimePtr(n.DateSignature1)
	resp.DateSignature2 = formatTimePtr(n.DateSignature2)
	resp.DateEmission = formatTimePtr(n.DateEmission)
	resp.DateRemise = formatTimePtr(n.DateRemise)
	resp.DateEcheance = formatTimePtr(n.DateEcheance)

	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}
