package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ravitejaungrala/TinyLink/internal/config"
	apperrors "github.com/ravitejaungrala/TinyLink/internal/errors"
	"github.com/ravitejaungrala/TinyLink/internal/services"
)

// startTime est mémorisé au chargement du package pour calculer l'uptime
// exposé par le health check détaillé.
var startTime = time.Now()

// SetupRoutes configure toutes les routes de l'API Gin et injecte les dépendances nécessaires.
func SetupRoutes(router *gin.Engine, linkService *services.LinkService, cfg *config.Config) {
	// Routes de Health Check
	router.GET("/health", HealthCheckHandler)
	router.GET("/healthz", HealthzHandler(linkService))

	// Endpoint de diagnostic de la base (compte des liens + état de la connexion)
	router.GET("/debug/db", DebugDBHandler(linkService))

	// Routes du tableau de bord
	links := router.Group("/links")
	{
		links.POST("", CreateLinkHandler(linkService, cfg))
		links.GET("", ListLinksHandler(linkService))
		links.GET("/:code", GetLinkStatsHandler(linkService))
		links.DELETE("/:code", DeleteLinkHandler(linkService))
	}

	// Route de Redirection (au niveau racine pour les codes courts).
	// Gin donne la priorité aux routes statiques (/health, /links, ...) sur le paramètre.
	router.GET("/:code", RedirectHandler(linkService))
}

// HealthCheckHandler gère la route /health pour vérifier l'état du service.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthzHandler gère la route /healthz : un health check détaillé qui inclut
// l'état de la connexion à la base de données. Retourne 503 si la base ne répond pas,
// pour qu'un opérateur distingue "service en panne" de "lien inconnu".
func HealthzHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbErr := linkService.PingStore()

		health := gin.H{
			"ok":        dbErr == nil,
			"status":    "healthy",
			"version":   "1.0",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).Seconds(),
			"database": gin.H{
				"connected": dbErr == nil,
			},
		}

		status := http.StatusOK
		if dbErr != nil {
			health["status"] = "unhealthy"
			health["message"] = dbErr.Error()
			health["database"].(gin.H)["error"] = dbErr.Error()
			status = http.StatusServiceUnavailable
		} else {
			health["message"] = "All systems operational"
		}

		c.JSON(status, health)
	}
}

// DebugDBHandler gère la route /debug/db : il exécute une requête simple
// pour vérifier que la base répond et retourne le nombre de liens stockés.
func DebugDBHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := linkService.PingStore(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Database connection failed",
				"details": err.Error(),
			})
			return
		}

		count, err := linkService.CountLinks()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Database test failed",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "success",
			"database":   "connected",
			"link_count": count,
		})
	}
}

// CreateLinkRequest représente le corps de la requête JSON pour la création d'un lien.
// La validation de forme du code et de l'URL est faite par le service, qui
// préfixe aussi 'https://' quand le schéma est absent ; on ne met donc pas
// de binding 'url' ici.
type CreateLinkRequest struct {
	TargetURL string `json:"target_url" binding:"required"` // 'binding:required' pour refuser un corps sans URL
	Code      string `json:"code,omitempty"`                // Code personnalisé optionnel (6 à 8 caractères alphanumériques)
}

// CreateLinkHandler gère la création d'une URL courte.
func CreateLinkHandler(linkService *services.LinkService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		// Tente de lier le JSON de la requête à la structure CreateLinkRequest.
		// Gin gère la validation 'binding'.
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}

		link, err := linkService.CreateLink(req.TargetURL, req.Code)
		if err != nil {
			var invalidURL *apperrors.ErrInvalidURL
			var invalidCode *apperrors.ErrInvalidCode
			var codeTaken *apperrors.ErrCodeTaken

			switch {
			case errors.As(err, &invalidURL), errors.As(err, &invalidCode):
				// Entrée invalide : la faute de l'appelant.
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.As(err, &codeTaken):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				// Épuisement de la génération ou panne de la base.
				log.Printf("Error creating link: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create link"})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":             link.ID,
			"code":           link.Code,
			"target_url":     link.TargetURL,
			"clicks":         link.Clicks,
			"last_clicked":   link.LastClicked,
			"created_at":     link.CreatedAt,
			"full_short_url": cfg.Server.BaseURL + "/" + link.Code,
		})
	}
}

// ListLinksHandler gère la liste complète des liens pour le tableau de bord,
// triée par activité la plus récente.
func ListLinksHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		links, err := linkService.ListLinks()
		if err != nil {
			log.Printf("Error listing links: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch links"})
			return
		}
		c.JSON(http.StatusOK, links)
	}
}

// RedirectHandler gère la redirection d'une URL courte vers l'URL de destination
// et la comptabilisation du clic.
// La comptabilisation est volontairement découplée de la redirection : son échec
// est loggé puis ignoré, car le contrat utilisateur ("le code mène à la destination")
// doit tenir même quand la partie analytique est dégradée. Seul l'échec de la
// recherche elle-même produit une erreur visible (404/500).
func RedirectHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Récupère le code de l'URL avec c.Param
		code := c.Param("code")

		link, err := linkService.ResolveRedirect(code)
		if err != nil {
			var notFound *apperrors.ErrLinkNotFound
			if errors.As(err, &notFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
				return
			}
			// Enregistrement corrompu ou panne de la base.
			log.Printf("Error resolving redirect for %s: %v", code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		// Comptabilisation du clic, au mieux : le résultat est ignoré en cas d'échec.
		if err := linkService.RecordClick(code); err != nil {
			log.Printf("Warning: failed to record click for %s: %v", code, err)
		}

		// Effectuer la redirection HTTP 302 (StatusFound) vers l'URL de destination.
		c.Redirect(http.StatusFound, link.TargetURL)
	}
}

// GetLinkStatsHandler gère la récupération des statistiques pour un lien spécifique
// (compteur de clics et date du dernier clic, portés par le lien).
func GetLinkStatsHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")

		link, err := linkService.GetLinkStats(code)
		if err != nil {
			var notFound *apperrors.ErrLinkNotFound
			if errors.As(err, &notFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
				return
			}
			log.Printf("Error retrieving stats for %s: %v", code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, link)
	}
}

// DeleteLinkHandler gère la suppression définitive d'un lien via son code court.
func DeleteLinkHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")

		if err := linkService.DeleteLink(code); err != nil {
			var notFound *apperrors.ErrLinkNotFound
			if errors.As(err, &notFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
				return
			}
			log.Printf("Error deleting link %s: %v", code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
