package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatutDeclaration enum constants
const (
	StatutDeclarationSoumise   = "SOUMISE"
	StatutDeclarationValidee   = "VALIDEE"
	StatutDeclarationContestee = "CONTESTEE"
)

// CategorieAppareil enum constants: device categories the tariff grid knows
const (
	CategorieTeleviseur = "TELEVISEUR"
	CategorieRadio      = "RADIO"
	CategorieDecodeur   = "DECODEUR"
	CategorieTelephone  = "TELEPHONE"
)

// Declaration is a taxpayer's self-reported device inventory for one fiscal
// year. There is at most one per (assujetti, exercice); re-declaring the same
// year replaces the declaration and regenerates all its lines.
type Declaration struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	AssujettiID    uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:ux_declarations_assujetti_exercice" json:"assujetti_id"`
	Assujetti      *Assujetti         `gorm:"foreignKey:AssujettiID" json:"assujetti,omitempty"`
	Exercice       int                `gorm:"not null;uniqueIndex:ux_declarations_assujetti_exercice;index" json:"exercice"`
	TotalAppareils int                `gorm:"not null" json:"total_appareils"`
	Remarque       string             `gorm:"type:text" json:"remarque"`
	Statut         string             `gorm:"type:varchar(20);not null;default:'SOUMISE';index" json:"statut"`
	Lignes         []LigneDeclaration `gorm:"foreignKey:DeclarationID" json:"lignes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func (d *Declaration) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// LigneDeclaration is one priced line of a declaration, owned exclusively by
// it and regenerated wholesale on every re-declaration.
type LigneDeclaration struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DeclarationID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"declaration_id"`
	CategorieAppareil string          `gorm:"type:varchar(30);not null" json:"categorie_appareil"`
	SousCategorie     string          `gorm:"type:varchar(50)" json:"sous_categorie"`
	Operateur         string          `gorm:"type:varchar(50)" json:"operateur"`
	Quantite          int             `gorm:"not null" json:"quantite"`
	PrixUnitaire      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"prix_unitaire"`
	MontantLigne      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_ligne"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (l *LigneDeclaration) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
