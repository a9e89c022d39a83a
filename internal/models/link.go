package models

import "time"

// Link représente un lien raccourci dans la base de données.
// Les tags `gorm:"..."` définissent comment GORM doit mapper cette structure à une table SQL.
// Les tags `json:"..."` définissent la représentation renvoyée par l'API du tableau de bord.
type Link struct {
	ID          uint       `gorm:"primaryKey" json:"id"`                    // ID est la clé primaire auto-incrémentée, assignée par la base
	Code        string     `gorm:"uniqueIndex;size:8;not null" json:"code"` // Code doit être unique, 6 à 8 caractères alphanumériques, indexé pour des recherches rapides
	TargetURL   string     `gorm:"not null" json:"target_url"`              // URL de destination absolue (http ou https), jamais modifiée après création
	Clicks      int        `gorm:"not null;default:0" json:"clicks"`        // Compteur de clics, incrémenté uniquement par la mise à jour atomique
	LastClicked *time.Time `gorm:"index" json:"last_clicked"`               // Horodatage du dernier clic enregistré, null tant qu'aucun clic n'a eu lieu
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`        // Horodatage de la création du lien (géré automatiquement par GORM)
}
