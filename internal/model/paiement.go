package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CanalPaiement enum constants
const (
	CanalBanque      = "BANQUE"
	CanalMobileMoney = "MOBILE_MONEY"
	CanalEspeces     = "ESPECES"
	CanalCheque      = "CHEQUE"
)

// StatutPaiement enum constants
const (
	StatutPaiementEnAttente = "EN_ATTENTE"
	StatutPaiementConfirme  = "CONFIRME"
	StatutPaiementRejete    = "REJETE"
)

// Paiement is one payment declaration against a taxation note. It is created
// pending and becomes immutable once an agent confirms or rejects it; only
// confirmed payments count toward the note's balance.
type Paiement struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	NoteTaxationID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"note_taxation_id"`
	NoteTaxation     *NoteTaxation   `gorm:"foreignKey:NoteTaxationID" json:"note_taxation,omitempty"`
	Montant          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant"`
	Canal            string          `gorm:"type:varchar(20);not null" json:"canal"`
	ReferenceExterne string          `gorm:"type:varchar(100)" json:"reference_externe"` // Bank slip / mobile money transaction id
	DatePaiement     time.Time       `gorm:"type:date;not null" json:"date_paiement"`    // Payer-submitted date
	PreuveRef        string          `gorm:"type:varchar(255)" json:"preuve_ref"`
	Statut           string          `gorm:"type:varchar(20);not null;default:'EN_ATTENTE';index" json:"statut"`
	MotifRejet       string          `gorm:"type:text" json:"motif_rejet"`
	ValideParID      *uuid.UUID      `gorm:"type:uuid" json:"valide_par_id"`
	ValideLe         *time.Time      `json:"valide_le"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (p *Paiement) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
