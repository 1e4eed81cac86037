package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionSoumettreDeclaration = "SOUMETTRE_DECLARATION"
	ActionSoumettreSignature   = "SOUMETTRE_SIGNATURE"
	ActionSignerNote           = "SIGNER_NOTE"
	ActionContesterNote        = "CONTESTER_NOTE"
	ActionEnregistrerPaiement  = "ENREGISTRER_PAIEMENT"
	ActionValiderPaiement      = "VALIDER_PAIEMENT"
	ActionRejeterPaiement      = "REJETER_PAIEMENT"
	ActionEnvoyerRelance       = "ENVOYER_RELANCE"
	ActionCreerTarif           = "CREER_TARIF"
	ActionModifierTarif        = "MODIFIER_TARIF"
	ActionDesactiverTarif      = "DESACTIVER_TARIF"
)

// JournalAudit tracks Who, What, and When for critical system changes.
// Rows are written inside the same transaction as the mutation they record.
type JournalAudit struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable when the actor is the scheduler
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntiteID  string     `gorm:"type:varchar(50);index" json:"entite_id"`       // Reference string (uuid/numero)
	EntiteNom string     `gorm:"type:varchar(255)" json:"entite_nom,omitempty"` // Human readable name
	Details   string     `gorm:"type:jsonb" json:"details"`                     // Serialized JSON payload of the action
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (j *JournalAudit) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
