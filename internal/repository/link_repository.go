package repository

import (
	"time"

	"github.com/ravitejaungrala/TinyLink/internal/models"
	"gorm.io/gorm"
)

// LinkRepository est une interface qui définit les méthodes d'accès aux données
// pour les opérations CRUD sur les liens.
type LinkRepository interface {
	CreateLink(link *models.Link) error
	GetLinkByCode(code string) (*models.Link, error)
	CodeExists(code string) (bool, error)
	IncrementClicks(code string) error
	DeleteByCode(code string) (bool, error)
	GetAllLinks() ([]models.Link, error)
	CountLinks() (int64, error)
	Ping() error
}

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
// Cette fonction retourne *GormLinkRepository, qui implémente l'interface LinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// CreateLink insère un nouveau lien dans la base de données.
// Si le code est déjà pris, l'index unique rejette l'insertion et GORM
// retourne gorm.ErrDuplicatedKey (grâce à l'option TranslateError).
func (r *GormLinkRepository) CreateLink(link *models.Link) error {
	// Utiliser GORM pour créer un nouvel enregistrement (link) dans la table des liens.
	result := r.db.Create(link)
	return result.Error
}

// GetLinkByCode récupère un lien de la base de données en utilisant son code court.
// Il renvoie gorm.ErrRecordNotFound si aucun lien n'est trouvé avec ce code.
func (r *GormLinkRepository) GetLinkByCode(code string) (*models.Link, error) {
	var link models.Link
	// La méthode First de GORM recherche le premier enregistrement correspondant et le mappe à 'link'.
	result := r.db.Where("code = ?", code).First(&link)
	if result.Error != nil {
		return nil, result.Error
	}
	return &link, nil
}

// CodeExists vérifie si un code est déjà présent dans la base.
// Utilisé par l'allocateur avant l'insertion ; l'index unique reste
// l'autorité finale en cas de concurrence entre la vérification et l'insertion.
func (r *GormLinkRepository) CodeExists(code string) (bool, error) {
	var count int64
	result := r.db.Model(&models.Link{}).Where("code = ?", code).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// IncrementClicks incrémente le compteur de clics et met à jour la date du dernier clic
// pour le lien identifié par son code.
// L'incrément est exprimé avec gorm.Expr pour que la base exécute un seul
// UPDATE atomique (clicks = clicks + 1) : deux redirections concurrentes
// sur le même code ne perdent jamais de clic.
func (r *GormLinkRepository) IncrementClicks(code string) error {
	result := r.db.Model(&models.Link{}).Where("code = ?", code).
		Updates(map[string]interface{}{
			"clicks":       gorm.Expr("clicks + ?", 1),
			"last_clicked": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	// Aucune ligne touchée : le code n'existe pas (ou plus).
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByCode supprime définitivement le lien identifié par son code.
// Le booléen retourné indique si une ligne a réellement été supprimée.
func (r *GormLinkRepository) DeleteByCode(code string) (bool, error) {
	result := r.db.Where("code = ?", code).Delete(&models.Link{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetAllLinks récupère tous les liens de la base de données, triés par activité
// la plus récente : la date du dernier clic si elle existe, sinon la date de création.
// Ce tri alimente directement la liste du tableau de bord.
func (r *GormLinkRepository) GetAllLinks() ([]models.Link, error) {
	var links []models.Link
	result := r.db.
		Order("COALESCE(last_clicked, created_at) DESC, created_at DESC").
		Find(&links)
	if result.Error != nil {
		return nil, result.Error
	}
	return links, nil
}

// CountLinks compte le nombre total de liens stockés.
// Utilisé par l'endpoint de diagnostic de la base.
func (r *GormLinkRepository) CountLinks() (int64, error) {
	var count int64
	result := r.db.Model(&models.Link{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// Ping vérifie que la connexion sous-jacente à la base est opérationnelle.
// Utilisé par les endpoints de health check.
func (r *GormLinkRepository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
