package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite" // Driver SQLite pur Go pour GORM
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	cmd2 "github.com/ravitejaungrala/TinyLink/cmd"
	"github.com/ravitejaungrala/TinyLink/internal/api"
	"github.com/ravitejaungrala/TinyLink/internal/models"
	"github.com/ravitejaungrala/TinyLink/internal/repository"
	"github.com/ravitejaungrala/TinyLink/internal/services"
)

// ServerCmd représente la commande 'server' qui démarre le serveur HTTP.
var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Démarre le serveur HTTP de TinyLink.",
	Long: `Cette commande démarre le serveur HTTP qui expose les endpoints de création,
de redirection, de statistiques et de suppression des liens courts.
Le serveur s'arrête proprement sur SIGINT ou SIGTERM.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmd2.Cfg
		if cfg == nil {
			log.Fatalf("FATAL: La configuration n'a pas été chargée correctement.")
		}

		// Initialiser la connexion à la base de données SQLite.
		// TranslateError permet de recevoir gorm.ErrDuplicatedKey quand l'index
		// unique sur 'code' rejette une insertion.
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{
			TranslateError: true,
		})
		if err != nil {
			log.Fatalf("FATAL: Impossible de se connecter à la base de données: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
		}

		// La connexion est ouverte une seule fois au démarrage, partagée par toutes
		// les requêtes, et fermée à l'arrêt du serveur.
		defer func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Attention: Erreur lors de la fermeture de la connexion: %v", err)
			}
		}()

		// Exécuter les migrations au démarrage pour garantir que la table existe.
		if err := db.AutoMigrate(&models.Link{}); err != nil {
			log.Fatalf("FATAL: Erreur lors de l'exécution des migrations: %v", err)
		}

		// Initialiser les repositories et services (injection de dépendances manuelle).
		linkRepo := repository.NewLinkRepository(db)
		linkService := services.NewLinkService(linkRepo, cfg.Allocator.CodeLength, cfg.Allocator.MaxAttempts)

		// Configurer le routeur Gin et enregistrer toutes les routes.
		router := gin.Default()
		api.SetupRoutes(router, linkService, cfg)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: router,
		}

		// Démarrer le serveur dans une goroutine pour pouvoir attendre le signal d'arrêt.
		go func() {
			log.Printf("Serveur démarré sur %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("FATAL: Échec du démarrage du serveur: %v", err)
			}
		}()

		// Attendre un signal d'interruption (Ctrl+C ou kill) pour arrêter proprement.
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Arrêt du serveur en cours...")

		// Laisser 10 secondes aux requêtes en vol pour se terminer.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("FATAL: Arrêt forcé du serveur: %v", err)
		}

		log.Println("Serveur arrêté proprement.")
	},
}

func init() {
	// Ajouter la commande server à RootCmd
	cmd2.RootCmd.AddCommand(ServerCmd)
}
