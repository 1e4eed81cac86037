package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatutNote enum constants. The signature progression is
// BROUILLON → SOUMISE → ATTENTE_SIGNATURE_1 → ATTENTE_SIGNATURE_2 → EMISE;
// the remaining statuses are side branches set by the payment ledger, the
// escalation run or a contestation.
const (
	StatutNoteBrouillon          = "BROUILLON"
	StatutNoteSoumise            = "SOUMISE"
	StatutNoteAttenteSignature1  = "ATTENTE_SIGNATURE_1"
	StatutNoteAttenteSignature2  = "ATTENTE_SIGNATURE_2"
	StatutNoteEmise              = "EMISE"
	StatutNotePayeePartiellement = "PAYEE_PARTIELLEMENT"
	StatutNotePayee              = "PAYEE"
	StatutNoteContestee          = "CONTESTEE"
	StatutNoteEnRetard           = "EN_RETARD"
	StatutNoteContentieux        = "CONTENTIEUX"
)

// RoleSignataire enum constants: the two sequential signatures required
// before a note becomes payable
const (
	RoleSignataireAdjoint   = "DIRECTEUR_ADJOINT"
	RoleSignataireDirecteur = "DIRECTEUR"
)

// NoteTaxation is the official assessment stating what a taxpayer owes for a
// fiscal year. It is created as a draft from a declaration, signed twice to
// become payable, then balance-tracked against confirmed payments.
// AssujettiID and Exercice are denormalized from the declaration so the
// ledger and the escalation run query notes directly.
type NoteTaxation struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	NumeroNote       string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"numero_note"`
	DeclarationID    uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"declaration_id"`
	Declaration      *Declaration    `gorm:"foreignKey:DeclarationID" json:"declaration,omitempty"`
	AssujettiID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"assujetti_id"`
	Assujetti        *Assujetti      `gorm:"foreignKey:AssujettiID" json:"assujetti,omitempty"`
	Exercice         int             `gorm:"not null;index" json:"exercice"`
	MontantBrut      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_brut"`
	TauxReduction    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"taux_reduction"` // Percent, 0..100
	MontantReduction decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"montant_reduction"`
	MontantNet       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_net"`
	MontantTotalDu   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_total_du"`
	Signataire1ID    *uuid.UUID      `gorm:"type:uuid" json:"signataire1_id"`
	DateSignature1   *time.Time      `json:"date_signature1"`
	Signataire2ID    *uuid.UUID      `gorm:"type:uuid" json:"signataire2_id"`
	DateSignature2   *time.Time      `json:"date_signature2"`
	DateEmission     *time.Time      `json:"date_emission"`
	DateRemise       *time.Time      `json:"date_remise"`
	DateEcheance     *time.Time      `json:"date_echeance"`
	Statut           string          `gorm:"type:varchar(25);not null;default:'BROUILLON';index" json:"statut"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (n *NoteTaxation) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// SequenceNote is the per-jurisdiction counter backing note numbering.
// The row is locked and incremented inside the declaration transaction so
// numbers within a prefix are strictly increasing and never duplicated.
type SequenceNote struct {
	Prefixe        string    `gorm:"type:varchar(10);primaryKey" json:"prefixe"`
	DerniereValeur int64     `gorm:"not null;default:0" json:"derniere_valeur"`
	UpdatedAt      time.Time `json:"updated_at"`
}
