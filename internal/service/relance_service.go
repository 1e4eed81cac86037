package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bbasabana/redevance-sub001/internal/model"
	"github.com/bbasabana/redevance-sub001/internal/repository"
	"github.com/bbasabana/redevance-sub001/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PalierRelance binds a day offset after delivery to the notice sent when it
// is reached. StatutNote, when set, is the status the note moves to as a side
// effect of sending that notice.
type PalierRelance struct {
	Jour       int
	Palier     string
	StatutNote string
	Sujet      string
}

// BaremeParDefaut is the statutory escalation schedule, in ascending order of
// Jour. The run picks the highest reached stage only; intermediate stages a
// note skipped past are never sent retroactively.
var BaremeParDefaut = []PalierRelance{
	{Jour: 15, Palier: model.PalierRappelAmical, Sujet: "Rappel amical — redevance audiovisuelle"},
	{Jour: 25, Palier: model.PalierAvertissementUrgent, Sujet: "Avertissement urgent — redevance audiovisuelle"},
	{Jour: 30, Palier: model.PalierMiseEnDemeure, StatutNote: model.StatutNoteEnRetard, Sujet: "Mise en demeure — redevance audiovisuelle"},
	{Jour: 38, Palier: model.PalierDernierAvis, StatutNote: model.StatutNoteContentieux, Sujet: "Dernier avis avant poursuites — redevance audiovisuelle"},
}

// --- DTOs ---

type DetailRelance struct {
	NumeroNote string `json:"numero_note"`
	Palier     string `json:"palier"`
	Envoyee    bool   `json:"envoyee"`
	Erreur     string `json:"erreur,omitempty"`
}

// ResultatRelance summarizes one escalation run.
type ResultatRelance struct {
	NotesExaminees   int             `json:"notes_examinees"`
	RelancesEnvoyees int             `json:"relances_envoyees"`
	Echecs           int             `json:"echecs"`
	Details          []DetailRelance `json:"details"`
}

// --- Interface ---

// RelanceService is the escalation run, invoked once a day by the cron
// endpoint. One failed note never aborts the run.
type RelanceService interface {
	Executer(ctx context.Context, aujourdHui time.Time) (ResultatRelance, error)
	ListerParNote(ctx context.Context, noteID string) ([]model.Relance, error)
}

type relanceService struct {
	relanceRepo repository.RelanceRepository
	noteRepo    repository.NoteRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    Notifier
	bareme      []PalierRelance
	logger      *zap.Logger
}

func NewRelanceService(
	relanceRepo repository.RelanceRepository,
	noteRepo repository.NoteRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	bareme []PalierRelance,
	logger *zap.Logger,
) RelanceService {
	if len(bareme) == 0 {
		bareme = BaremeParDefaut
	}
	return &relanceService{
		relanceRepo: relanceRepo,
		noteRepo:    noteRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
		bareme:      bareme,
		logger:      logger,
	}
}

// --- Implementation ---

func (s *relanceService) Executer(ctx context.Context, aujourdHui time.Time) (ResultatRelance, error) {
	notes, err := s.noteRepo.FindRelancables(ctx)
	if err != nil {
		return ResultatRelance{}, apperr.Internal(err, "echec du chargement des notes relancables")
	}

	resultat := ResultatRelance{NotesExaminees: len(notes)}
	for i := range notes {
		note := notes[i]
		palier, ok := s.palierAtteint(&note, aujourdHui)
		if !ok {
			continue
		}

		deja, eErr := s.relanceRepo.Existe(ctx, note.ID, palier.Palier)
		if eErr != nil {
			s.logger.Error("echec de la verification d'idempotence, note ignoree",
				zap.String("numero_note", note.NumeroNote), zap.Error(eErr))
			resultat.Echecs++
			resultat.Details = append(resultat.Details, DetailRelance{
				NumeroNote: note.NumeroNote, Palier: palier.Palier, Erreur: eErr.Error()})
			continue
		}
		if deja {
			continue
		}

		if sErr := s.envoyerRelance(ctx, &note, palier, aujourdHui); sErr != nil {
			s.logger.Error("echec de l'envoi de la relance",
				zap.String("numero_note", note.NumeroNote),
				zap.String("palier", palier.Palier),
				zap.Error(sErr))
			resultat.Echecs++
			resultat.Details = append(resultat.Details, DetailRelance{
				NumeroNote: note.NumeroNote, Palier: palier.Palier, Erreur: sErr.Error()})
			continue
		}

		resultat.RelancesEnvoyees++
		resultat.Details = append(resultat.Details, DetailRelance{
			NumeroNote: note.NumeroNote, Palier: palier.Palier, Envoyee: true})
	}

	s.logger.Info("execution des relances terminee",
		zap.Int("notes_examinees", resultat.NotesExaminees),
		zap.Int("relances_envoyees", resultat.RelancesEnvoyees),
		zap.Int("echecs", resultat.Echecs))

	return resultat, nil
}

func (s *relanceService) ListerParNote(ctx context.Context, noteID string) ([]model.Relance, error) {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return nil, apperr.Validation("identifiant de note invalide: %s", noteID)
	}
	relances, err := s.relanceRepo.ListByNote(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "echec du chargement des relances")
	}
	return relances, nil
}

// palierAtteint returns the highest schedule entry whose day offset the note
// has reached, counted from the delivery date.
func (s *relanceService) palierAtteint(note *model.NoteTaxation, aujourdHui time.Time) (PalierRelance, bool) {
	if note.DateRemise == nil {
		return PalierRelance{}, false
	}
	jours := joursEcoules(*note.DateRemise, aujourdHui)

	var atteint PalierRelance
	trouve := false
	for _, p := range s.bareme {
		if jours >= p.Jour {
			atteint = p
			trouve = true
		}
	}
	return atteint, trouve
}

// envoyerRelance sends the email first, then records the relance, the note
// status side effect and the audit row in one transaction. An email that went
// out without its row being committed would be re-sent on the next run, which
// the unique index then refuses; that is the accepted failure mode.
func (s *relanceService) envoyerRelance(ctx context.Context, note *model.NoteTaxation, palier PalierRelance, aujourdHui time.Time) error {
	destinataire := ""
	if note.Assujetti != nil {
		destinataire = note.Assujetti.Email
	}
	if destinataire == "" {
		return fmt.Errorf("assujetti sans adresse email pour la note %s", note.NumeroNote)
	}

	corps := s.corpsRelance(note, palier)
	if err := s.notifier.Envoyer(ctx, destinataire, palier.Sujet, corps); err != nil {
		return err
	}

	now := time.Now()
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		relance := model.Relance{
			NoteTaxationID: note.ID,
			Palier:         palier.Palier,
			Canal:          model.CanalRelanceEmail,
			Statut:         model.StatutRelanceEnvoyee,
			EnvoyeLe:       &now,
		}
		if err := s.relanceRepo.Create(txCtx, &relance); err != nil {
			return err
		}

		if palier.StatutNote != "" && note.Statut != palier.StatutNote {
			note.Statut = palier.StatutNote
			if err := s.noteRepo.Update(txCtx, note); err != nil {
				return err
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"numero_note": note.NumeroNote,
			"palier":      palier.Palier,
			"jour":        palier.Jour,
			"date_run":    aujourdHui.Format("2006-01-02"),
		})
		audit := model.JournalAudit{
			Action:    model.ActionEnvoyerRelance,
			EntiteID:  note.ID.String(),
			EntiteNom: note.NumeroNote,
			Details:   string(details),
		}
		return s.auditRepo.Create(txCtx, &audit)
	})
}

func (s *relanceService) corpsRelance(note *model.NoteTaxation, palier PalierRelance) string {
	echeance := ""
	if note.DateEcheance != nil {
		echeance = note.DateEcheance.Format("02/01/2006")
	}
	return fmt.Sprintf(
		"<p>La note de taxation <strong>%s</strong> d'un montant de %s reste impayee (echeance: %s).</p><p>%s</p>",
		note.NumeroNote, note.MontantTotalDu.StringFixed(2), echeance, texteRelance(palier.Palier))
}

func texteRelance(palier string) string {
	switch palier {
	case model.PalierRappelAmical:
		return "Nous vous invitons a regulariser votre situation dans les meilleurs delais."
	case model.PalierAvertissementUrgent:
		return "Sans reglement rapide, des mesures de recouvrement seront engagees."
	case model.PalierMiseEnDemeure:
		return "Vous etes mis en demeure de payer sous huitaine. La note est desormais en retard."
	case model.PalierDernierAvis:
		return "Dernier avis avant transmission du dossier au contentieux."
	default:
		return ""
	}
}

// joursEcoules counts whole calendar days between two dates, ignoring the
// time-of-day component.
func joursEcoules(depuis, jusqu time.Time) int {
	d := date(depuis)
	j := date(jusqu)
	return int(j.Sub(d).Hours() / 24)
}

func date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
