package errors

import "fmt"

// ErrLinkNotFound est retournée quand un lien n'existe pas dans la base de données.
type ErrLinkNotFound struct {
	Code string
}

func (e *ErrLinkNotFound) Error() string {
	return fmt.Sprintf("lien avec le code '%s' non trouvé", e.Code)
}

// ErrCodeGenerationFailed est retournée quand la génération d'un code unique échoue
// après avoir épuisé toutes les tentatives autorisées.
type ErrCodeGenerationFailed struct {
	Attempts int
}

func (e *ErrCodeGenerationFailed) Error() string {
	return fmt.Sprintf("impossible de générer un code unique après %d tentatives", e.Attempts)
}

// ErrInvalidURL est retournée quand une URL fournie est invalide.
type ErrInvalidURL struct {
	URL string
}

func (e *ErrInvalidURL) Error() string {
	return fmt.Sprintf("URL invalide: %s", e.URL)
}

// ErrInvalidCode est retournée quand un code personnalisé ne respecte pas le format
// attendu (6 à 8 caractères alphanumériques).
type ErrInvalidCode struct {
	Code string
}

func (e *ErrInvalidCode) Error() string {
	return fmt.Sprintf("code invalide: '%s' (6 à 8 caractères alphanumériques attendus)", e.Code)
}

// ErrCodeTaken est retournée quand un code personnalisé est déjà utilisé par un autre lien.
type ErrCodeTaken struct {
	Code string
}

func (e *ErrCodeTaken) Error() string {
	return fmt.Sprintf("le code '%s' est déjà utilisé", e.Code)
}

// ErrInvalidRecord est retournée quand un lien stocké est corrompu
// (URL de destination absente), ce qui empêche toute redirection.
type ErrInvalidRecord struct {
	Code string
}

func (e *ErrInvalidRecord) Error() string {
	return fmt.Sprintf("lien corrompu pour le code '%s': URL de destination absente", e.Code)
}
