package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/url"
	"regexp"
	"strings"

	"gorm.io/gorm" // Nécessaire pour la gestion spécifique de gorm.ErrRecordNotFound et gorm.ErrDuplicatedKey

	apperrors "github.com/ravitejaungrala/TinyLink/internal/errors"
	"github.com/ravitejaungrala/TinyLink/internal/models"
	"github.com/ravitejaungrala/TinyLink/internal/repository" // Importe le package repository
)

// Définition du jeu de caractères pour la génération des codes courts.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// codeShapeRe valide la forme d'un code personnalisé : 6 à 8 caractères alphanumériques.
var codeShapeRe = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

// LinkService est une structure qui fournit des méthodes pour la logique métier des liens.
// Elle détient linkRepo qui est une référence vers une interface LinkRepository.
// IMPORTANT : Le champ doit être du type de l'interface (non-pointeur).
type LinkService struct {
	linkRepo    repository.LinkRepository
	codeLength  int // Longueur des codes générés automatiquement
	maxAttempts int // Budget de tentatives de la boucle générer-puis-vérifier
}

// NewLinkService crée et retourne une nouvelle instance de LinkService.
// codeLength et maxAttempts viennent de la configuration (allocator.*).
func NewLinkService(linkRepo repository.LinkRepository, codeLength, maxAttempts int) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		codeLength:  codeLength,
		maxAttempts: maxAttempts,
	}
}

// GenerateShortCode génère un code court aléatoire d'une longueur spécifiée.
// Il utilise le package 'crypto/rand' pour éviter la prévisibilité.
// La résistance aux collisions repose sur la vérification d'unicité côté base,
// pas sur l'entropie seule.
func (s *LinkService) GenerateShortCode(length int) (string, error) {
	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		randomIndex, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("error generating random number: %w", err)
		}
		result[i] = charset[randomIndex.Int64()]
	}

	return string(result), nil
}

// NormalizeTargetURL valide et normalise une URL de destination.
// Si aucun schéma n'est fourni (ex: "example.com/a"), 'https://' est préfixé
// avant validation. Seuls les schémas http et https sont acceptés.
func NormalizeTargetURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &apperrors.ErrInvalidURL{URL: raw}
	}

	// Préfixer le schéma si absent, comme le fait le formulaire du tableau de bord.
	// Une URL portant déjà un autre schéma (ftp://, ...) n'est pas préfixée :
	// elle sera rejetée par la vérification du schéma ci-dessous.
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return "", &apperrors.ErrInvalidURL{URL: raw}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &apperrors.ErrInvalidURL{URL: raw}
	}
	if parsed.Host == "" {
		return "", &apperrors.ErrInvalidURL{URL: raw}
	}

	return raw, nil
}

// ResolveCode détermine le code à attacher à un nouveau lien.
//   - Si requested est fourni : sa forme est validée (6 à 8 caractères alphanumériques),
//     puis son unicité est vérifiée en base. Le code est retourné tel quel (casse préservée).
//   - Si requested est vide : boucle générer-puis-vérifier, bornée à maxAttempts tentatives.
//
// Chaque vérification d'existence est une lecture non transactionnelle : l'index
// unique de la base reste l'autorité finale au moment de l'insertion.
func (s *LinkService) ResolveCode(requested string) (string, error) {
	if requested != "" {
		if !codeShapeRe.MatchString(requested) {
			return "", &apperrors.ErrInvalidCode{Code: requested}
		}
		exists, err := s.linkRepo.CodeExists(requested)
		if err != nil {
			return "", fmt.Errorf("database error checking code uniqueness: %w", err)
		}
		if exists {
			return "", &apperrors.ErrCodeTaken{Code: requested}
		}
		return requested, nil
	}

	// Génération automatique : on retente tant que le candidat est déjà pris,
	// dans la limite du budget configuré. Avec 62^6 combinaisons possibles,
	// épuiser le budget signale une base pathologique, pas de la malchance.
	for i := 0; i < s.maxAttempts; i++ {
		code, err := s.GenerateShortCode(s.codeLength)
		if err != nil {
			return "", fmt.Errorf("error generating short code: %w", err)
		}

		exists, err := s.linkRepo.CodeExists(code)
		if err != nil {
			return "", fmt.Errorf("database error checking code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}

		log.Printf("Short code '%s' already exists, retrying generation (%d/%d)...", code, i+1, s.maxAttempts)
	}

	return "", &apperrors.ErrCodeGenerationFailed{Attempts: s.maxAttempts}
}

// CreateLink crée un nouveau lien raccourci.
// L'URL de destination est normalisée et validée, le code est résolu (personnalisé
// ou généré), puis le lien est persisté. Si l'insertion échoue sur l'index unique
// (course entre la vérification et l'insertion), le rejet de la base fait foi :
// conflit pour un code personnalisé, une tentative de génération supplémentaire
// pour un code automatique.
func (s *LinkService) CreateLink(targetURL, customCode string) (*models.Link, error) {
	normalized, err := NormalizeTargetURL(targetURL)
	if err != nil {
		return nil, err
	}

	code, err := s.ResolveCode(customCode)
	if err != nil {
		return nil, err
	}

	link := &models.Link{
		Code:      code,
		TargetURL: normalized,
	}

	// Persiste le nouveau lien dans la base de données via le repository
	if err := s.linkRepo.CreateLink(link); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("error creating link in database: %w", err)
		}

		// Rejet tardif de l'index unique : deux créations concurrentes ont vu
		// le même code libre. Pour un code personnalisé c'est un conflit ;
		// pour un code généré on retente une seule fois avec un nouveau code.
		if customCode != "" {
			return nil, &apperrors.ErrCodeTaken{Code: code}
		}

		log.Printf("Insert lost the race for code '%s', generating a new one...", code)
		retryCode, err := s.GenerateShortCode(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("error generating short code: %w", err)
		}
		link = &models.Link{
			Code:      retryCode,
			TargetURL: normalized,
		}
		if err := s.linkRepo.CreateLink(link); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, &apperrors.ErrCodeGenerationFailed{Attempts: s.maxAttempts}
			}
			return nil, fmt.Errorf("error creating link in database: %w", err)
		}
	}

	// Retourne le lien créé
	return link, nil
}

// GetLinkByCode récupère un lien via son code court.
// Il délègue l'opération de recherche au repository et traduit l'absence
// d'enregistrement en ErrLinkNotFound.
func (s *LinkService) GetLinkByCode(code string) (*models.Link, error) {
	link, err := s.linkRepo.GetLinkByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.ErrLinkNotFound{Code: code}
		}
		return nil, err
	}
	return link, nil
}

// ResolveRedirect récupère le lien à utiliser pour une redirection.
// En plus de la recherche, il vérifie défensivement que l'enregistrement
// porte bien une URL de destination ; un lien corrompu ne doit jamais
// produire une redirection vide.
func (s *LinkService) ResolveRedirect(code string) (*models.Link, error) {
	link, err := s.GetLinkByCode(code)
	if err != nil {
		return nil, err
	}
	if link.TargetURL == "" {
		return nil, &apperrors.ErrInvalidRecord{Code: code}
	}
	return link, nil
}

// RecordClick enregistre un clic pour un lien : incrément atomique du compteur
// et mise à jour de la date du dernier clic, en une seule opération côté base.
// L'appelant du chemin de redirection ignore volontairement l'erreur retournée :
// l'échec de la comptabilisation ne doit jamais empêcher la redirection.
func (s *LinkService) RecordClick(code string) error {
	if err := s.linkRepo.IncrementClicks(code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperrors.ErrLinkNotFound{Code: code}
		}
		return err
	}
	return nil
}

// DeleteLink supprime définitivement un lien via son code court.
// Supprimer un code inexistant retourne ErrLinkNotFound sans rien modifier.
func (s *LinkService) DeleteLink(code string) error {
	deleted, err := s.linkRepo.DeleteByCode(code)
	if err != nil {
		return err
	}
	if !deleted {
		return &apperrors.ErrLinkNotFound{Code: code}
	}
	return nil
}

// ListLinks retourne tous les liens triés par activité la plus récente
// (dernier clic, sinon date de création).
func (s *LinkService) ListLinks() ([]models.Link, error) {
	return s.linkRepo.GetAllLinks()
}

// GetLinkStats récupère les statistiques pour un lien donné.
// Le compteur de clics et la date du dernier clic sont portés par le lien lui-même.
func (s *LinkService) GetLinkStats(code string) (*models.Link, error) {
	return s.GetLinkByCode(code)
}

// CountLinks retourne le nombre total de liens stockés (endpoint de diagnostic).
func (s *LinkService) CountLinks() (int64, error) {
	return s.linkRepo.CountLinks()
}

// PingStore vérifie que la base de données répond (health checks).
func (s *LinkService) PingStore() error {
	return s.linkRepo.Ping()
}
