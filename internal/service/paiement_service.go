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

// --- DTOs ---

type EnregistrerPaiementRequest struct {
	NoteTaxationID   string `json:"note_taxation_id" binding:"required,uuid"`
	Montant          string `json:"montant" binding:"required"`
	Canal            string `json:"canal" binding:"required,oneof=BANQUE MOBILE_MONEY ESPECES CHEQUE"`
	ReferenceExterne string `json:"reference_externe"`
	DatePaiement     string `json:"date_paiement" binding:"required"` // YYYY-MM-DD
	PreuveRef        string `json:"preuve_ref"`
}

type RejeterPaiementRequest struct {
	Motif string `json:"motif" binding:"required"`
}

type PaiementResponse struct {
	ID               string  `json:"id"`
	NoteTaxationID   string  `json:"note_taxation_id"`
	Montant          string  `json:"montant"`
	Canal            string  `json:"canal"`
	ReferenceExterne string  `json:"reference_externe,omitempty"`
	DatePaiement     string  `json:"date_paiement"`
	PreuveRef        string  `json:"preuve_ref,omitempty"`
	Statut           string  `json:"statut"`
	MotifRejet       string  `json:"motif_rejet,omitempty"`
	ValideParID      *string `json:"valide_par_id"`
	ValideLe         *string `json:"valide_le"`
	CreatedAt        string  `json:"created_at"`
}

type PaiementFilter struct {
	NoteTaxationID string
	Statut         string
	Page           int
	Limit          int
}

// SoldeNote is the balance view of a note: what is owed, what has been
// confirmed, what remains.
type SoldeNote struct {
	NoteTaxationID string `json:"note_taxation_id"`
	NumeroNote     string `json:"numero_note"`
	MontantTotalDu string `json:"montant_total_du"`
	TotalConfirme  string `json:"total_confirme"`
	SoldeRestant   string `json:"solde_restant"`
	Statut         string `json:"statut"`
}

// --- Interface ---

// PaiementService is the payment ledger. Payments arrive pending, then an
// agent confirms or rejects them; confirmation recomputes the note balance
// under a row lock and rolls the taxpayer's compliance status up.
type PaiementService interface {
	Enregistrer(ctx context.Context, req EnregistrerPaiementRequest) (PaiementResponse, error)
	Valider(ctx context.Context, paiementID string, agentID string) (PaiementResponse, error)
	Rejeter(ctx context.Context, paiementID string, motif string, agentID string) (PaiementResponse, error)
	Solde(ctx context.Context, noteID string) (SoldeNote, error)
	Lister(ctx context.Context, filter PaiementFilter) ([]PaiementResponse, int64, error)
}

type paiementService struct {
	paiementRepo  repository.PaiementRepository
	noteRepo      repository.NoteRepository
	assujettiRepo repository.AssujettiRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	notifier      Notifier
	logger        *zap.Logger
}

func NewPaiementService(
	paiementRepo repository.PaiementRepository,
	noteRepo repository.NoteRepository,
	assujettiRepo repository.AssujettiRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	logger *zap.Logger,
) PaiementService {
	return &paiementService{
		paiementRepo:  paiementRepo,
		noteRepo:      noteRepo,
		assujettiRepo: assujettiRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		notifier:      notifier,
		logger:        logger,
	}
}

// --- Implementation ---

func (s *paiementService) Enregistrer(ctx context.Context, req EnregistrerPaiementRequest) (PaiementResponse, error) {
	noteID, err := uuid.Parse(req.NoteTaxationID)
	if err != nil {
		return PaiementResponse{}, apperr.Validation("note_taxation_id invalide: %s", req.NoteTaxationID)
	}

	montant, err := decimal.NewFromString(req.Montant)
	if err != nil {
		return PaiementResponse{}, apperr.Validation("montant invalide: %s", req.Montant)
	}
	if !montant.IsPositive() {
		return PaiementResponse{}, apperr.Validation("le montant doit etre strictement positif")
	}

	datePaiement, err := time.Parse("2006-01-02", req.DatePaiement)
	if err != nil {
		return PaiementResponse{}, apperr.Validation("date_paiement invalide (attendu YYYY-MM-DD): %s", req.DatePaiement)
	}

	note, err := s.noteRepo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaiementResponse{}, apperr.NotFound("note %s introuvable", req.NoteTaxationID)
		}
		return PaiementResponse{}, apperr.Internal(err, "echec du chargement de la note")
	}

	paiement := model.Paiement{
		NoteTaxationID:   note.ID,
		Montant:          montant,
		Canal:            req.Canal,
		ReferenceExterne: req.ReferenceExterne,
		DatePaiement:     datePaiement,
		PreuveRef:        req.PreuveRef,
		Statut:           model.StatutPaiementEnAttente,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if cErr := s.paiementRepo.Create(txCtx, &paiement); cErr != nil {
			return apperr.Internal(cErr, "echec de l'enregistrement du paiement")
		}
		return s.ecrireAuditPaiement(txCtx, "", model.ActionEnregistrerPaiement, &paiement, note.NumeroNote, nil)
	})
	if err != nil {
		return PaiementResponse{}, err
	}

	s.logger.Info("paiement enregistre, en attente de validation",
		zap.String("paiement_id", paiement.ID.String()),
		zap.String("numero_note", note.NumeroNote),
		zap.String("montant", montant.StringFixed(2)),
		zap.String("canal", req.Canal))

	return toPaiementResponse(paiement), nil
}

// Valider confirms a pending payment, then recomputes the note balance and
// the taxpayer compliance status inside the same transaction. The note row is
// locked before the confirmed-sum aggregate so two concurrent validations on
// the same note cannot both read a stale balance.
func (s *paiementService) Valider(ctx context.Context, paiementID string, agentID string) (PaiementResponse, error) {
	id, err := uuid.Parse(paiementID)
	if err != nil {
		return PaiementResponse{}, apperr.Validation("identifiant de paiement invalide: %s", paiementID)
	}
	agent, err := uuid.Parse(agentID)
	if err != nil {
		return PaiementResponse{}, apperr.Validation("identifiant d'agent invalide: %s", agentID)
	}

	var paiement *model.Paiement
	var note *model.NoteTaxation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		paiement, findErr = s.paiementRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("paiement %s introuvable", paiementID)
			}
			return apperr.Internal(findErr, "echec du chargement du paiement")
		}

		if paiement.Statut != model.StatutPaiementEnAttente {
			return apperr.AlreadyProcessed("le paiement %s a deja ete traite (statut %s)", paiementID, paiement.Statut)
		}

		note, findErr = s.noteRepo.FindByIDVerrou(txCtx, paiement.NoteTaxationID)
		if findErr != nil {
			return apperr.Internal(findErr, "echec du verrouillage de la note")
		}

		now := time.Now()
		paiement.Statut = model.StatutPaiementConfirme
		paiement.ValideParID = &agent
		paiement.ValideLe = &now
		if uErr := s.paiementRepo.Update(txCtx, paiement); uErr != nil {
			return apperr.Internal(uErr, "echec de la mise a jour du paiement")
		}

		totalConfirme, sErr := s.paiementRepo.SommeConfirmee(txCtx, note.ID)
		if sErr != nil {
			return apperr.Internal(sErr, "echec du calcul du total confirme")
		}

		if totalConfirme.GreaterThanOrEqual(note.MontantTotalDu) {
			note.Statut = model.StatutNotePayee
		} else {
			note.Statut = model.StatutNotePayeePartiellement
		}
		if uErr := s.noteRepo.Update(txCtx, note); uErr != nil {
			return apperr.Internal(uErr, "echec de la mise a jour du statut de la note")
		}

		if rErr := s.recalculerConformite(txCtx, note.AssujettiID, note.Exercice); rErr != nil {
			return rErr
		}

		return s.ecrireAuditPaiement(txCtx, agentID, model.ActionValiderPaiement, paiement, note.NumeroNote,
			map[string]interface{}{"total_confirme": totalConfirme.StringFixed(2), "statut_note": note.Statut})
	})
	if err != nil {
		return PaiementResponse{}, err
	}

	s.logger.Info("paiement valide",
		zap.String("paiement_id", paiement.ID.String()),
		zap.String("numero_note", note.NumeroNote),
		zap.String("statut_note", note.Statut))

	s.notifierQuittance(paiement, note)

	return toPaiementResponse(*paiement), nil
}

func (s *paiementService) Rejeter(ctx context.Context, paiementID string, motif string, agentID string) (PaiementResponse, error) {
	id, err := uuid.Parse(paiementID)
	if err != nil {
		return PaiementResponse{}, apperr.Validation("identifiant de paiement invalide: %s", paiementID)
	}
	agent, err := uuid.Parse(agentID)
	if err != nil {
		return PaiementResponse{}, apperr.Validation("identifiant d'agent invalide: %s", agentID)
	}
	if motif == "" {
		return PaiementResponse{}, apperr.Validation("un motif de rejet est obligatoire")
	}

	var paiement *model.Paiement
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		paiement, findErr = s.paiementRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("paiement %s introuvable", paiementID)
			}
			return apperr.Internal(findErr, "echec du chargement du paiement")
		}

		if paiement.Statut != model.StatutPaiementEnAttente {
			return apperr.AlreadyProcessed("le paiement %s a deja ete traite (statut %s)", paiementID, paiement.Statut)
		}

		now := time.Now()
		paiement.Statut = model.StatutPaiementRejete
		paiement.MotifRejet = motif
		paiement.ValideParID = &agent
		paiement.ValideLe = &now
		if uErr := s.paiementRepo.Update(txCtx, paiement); uErr != nil {
			return apperr.Internal(uErr, "echec de la mise a jour du paiement")
		}

		return s.ecrireAuditPaiement(txCtx, agentID, model.ActionRejeterPaiement, paiement, "",
			map[string]interface{}{"motif": motif})
	})
	if err != nil {
		return PaiementResponse{}, err
	}

	return toPaiementResponse(*paiement), nil
}

func (s *paiementService) Solde(ctx context.Context, noteID string) (SoldeNote, error) {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return SoldeNote{}, apperr.Validation("identifiant de note invalide: %s", noteID)
	}

	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SoldeNote{}, apperr.NotFound("note %s introuvable", noteID)
		}
		return SoldeNote{}, apperr.Internal(err, "echec du chargement de la note")
	}

	totalConfirme, err := s.paiementRepo.SommeConfirmee(ctx, note.ID)
	if err != nil {
		return SoldeNote{}, apperr.Internal(err, "echec du calcul du total confirme")
	}

	solde := note.MontantTotalDu.Sub(totalConfirme)
	if solde.IsNegative() {
		solde = decimal.Zero
	}

	return SoldeNote{
		NoteTaxationID: note.ID.String(),
		NumeroNote:     note.NumeroNote,
		MontantTotalDu: note.MontantTotalDu.StringFixed(2),
		TotalConfirme:  totalConfirme.StringFixed(2),
		SoldeRestant:   solde.StringFixed(2),
		Statut:         note.Statut,
	}, nil
}

func (s *paiementService) Lister(ctx context.Context, filter PaiementFilter) ([]PaiementResponse, int64, error) {
	repoFilter := repository.PaiementListFilter{
		Statut: filter.Statut,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	if repoFilter.Limit <= 0 {
		repoFilter.Limit = 20
	}
	if filter.NoteTaxationID != "" {
		parsed, err := uuid.Parse(filter.NoteTaxationID)
		if err != nil {
			return nil, 0, apperr.Validation("note_taxation_id invalide: %s", filter.NoteTaxationID)
		}
		repoFilter.NoteTaxationID = &parsed
	}

	paiements, total, err := s.paiementRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperr.Internal(err, "echec du chargement des paiements")
	}

	result := make([]PaiementResponse, 0, len(paiements))
	for _, p := range paiements {
		result = append(result, toPaiementResponse(p))
	}
	return result, total, nil
}

// recalculerConformite rolls the taxpayer status up from their notes for the
// fiscal year: EN_REGLE when every note is settled, DEFAILLANT otherwise.
func (s *paiementService) recalculerConformite(ctx context.Context, assujettiID uuid.UUID, exercice int) error {
	notes, err := s.noteRepo.FindByAssujettiAndExercice(ctx, assujettiID, exercice)
	if err != nil {
		return apperr.Internal(err, "echec du chargement des notes de l'assujetti")
	}

	statut := model.StatutAssujettiEnRegle
	for _, n := range notes {
		if n.Statut != model.StatutNotePayee {
			statut = model.StatutAssujettiDefaillant
			break
		}
	}

	if err := s.assujettiRepo.UpdateStatut(ctx, assujettiID, statut); err != nil {
		return apperr.Internal(err, "echec de la mise a jour du statut de l'assujetti")
	}
	return nil
}

// notifierQuittance emails a receipt after the commit. Failures are logged,
// never surfaced to the caller.
func (s *paiementService) notifierQuittance(paiement *model.Paiement, note *model.NoteTaxation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		assujetti, err := s.assujettiRepo.FindByID(ctx, note.AssujettiID)
		if err != nil || assujetti.Email == "" {
			return
		}

		sujet := fmt.Sprintf("Quittance de paiement — note %s", note.NumeroNote)
		corps := fmt.Sprintf(
			"<p>Votre paiement de %s sur la note <strong>%s</strong> a ete confirme.</p><p>Statut de la note: %s.</p>",
			paiement.Montant.StringFixed(2), note.NumeroNote, note.Statut)
		if err := s.notifier.Envoyer(ctx, assujetti.Email, sujet, corps); err != nil {
			s.logger.Warn("echec de l'envoi de la quittance",
				zap.String("paiement_id", paiement.ID.String()),
				zap.Error(err))
		}
	}()
}

func (s *paiementService) ecrireAuditPaiement(ctx context.Context, userID string, action string, paiement *model.Paiement, numeroNote string, extra map[string]interface{}) error {
	payload := map[string]interface{}{
		"montant": paiement.Montant.StringFixed(2),
		"canal":   paiement.Canal,
		"statut":  paiement.Statut,
	}
	if numeroNote != "" {
		payload["numero_note"] = numeroNote
	}
	for k, v := range extra {
		payload[k] = v
	}
	details, _ := json.Marshal(payload)

	audit := model.JournalAudit{
		Action:    action,
		EntiteID:  paiement.ID.String(),
		EntiteNom: numeroNote,
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

func toPaiementResponse(p model.Paiement) PaiementResponse {
	resp := PaiementResponse{
		ID:               p.ID.String(),
		NoteTaxationID:   p.NoteTaxationID.String(),
		Montant:          p.Montant.StringFixed(2),
		Canal:            p.Canal,
		ReferenceExterne: p.ReferenceExterne,
		DatePaiement:     p.DatePaiement.Format("2006-01-02"),
		PreuveRef:        p.PreuveRef,
		Statut:           p.Statut,
		MotifRejet:       p.MotifRejet,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
	if p.ValideParID != nil {
		v := p.ValideParID.String()
		resp.ValideParID = &v
	}
	resp.ValideLe = formatTimePtr(p.ValideLe)
	return resp
}
