package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategorieAssujetti enum constants. The category determines the applicable tariff column.
const (
	CategoriePersonnePhysique         = "PERSONNE_PHYSIQUE"
	CategoriePersonnePhysiqueAvantage = "PERSONNE_PHYSIQUE_AVANTAGE"
	CategoriePersonneMorale           = "PERSONNE_MORALE"
	CategoriePersonneMoraleAvantage   = "PERSONNE_MORALE_AVANTAGE"
)

// StatutAssujetti enum constants. The compliance rollup sets the last two.
const (
	StatutAssujettiNouveau    = "NOUVEAU"
	StatutAssujettiEnCours    = "EN_COURS"
	StatutAssujettiEnRegle    = "EN_REGLE"
	StatutAssujettiDefaillant = "DEFAILLANT"
)

// Assujetti is a taxpayer (natural person or registered entity) liable for
// the audiovisual licence fee. The compliance status is recomputed by the
// payment ledger whenever a payment is confirmed.
type Assujetti struct {
	ID                   uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Nom                  string              `gorm:"type:varchar(255);not null" json:"nom"`
	RaisonSociale        string              `gorm:"type:varchar(255)" json:"raison_sociale"` // Empty for natural persons
	Email                string              `gorm:"type:varchar(255);index" json:"email"`
	Telephone            string              `gorm:"type:varchar(30)" json:"telephone"`
	Adresse              string              `gorm:"type:text" json:"adresse"`
	EntiteTerritorialeID uuid.UUID           `gorm:"type:uuid;not null;index" json:"entite_territoriale_id"`
	EntiteTerritoriale   *EntiteTerritoriale `gorm:"foreignKey:EntiteTerritorialeID" json:"entite_territoriale,omitempty"`
	Categorie            string              `gorm:"type:varchar(40);not null;index" json:"categorie"`
	Statut               string              `gorm:"type:varchar(20);not null;default:'NOUVEAU';index" json:"statut"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

func (a *Assujetti) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
