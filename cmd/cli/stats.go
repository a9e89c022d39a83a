package cli

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/glebarez/sqlite" // Driver SQLite pour GORM
	cmd2 "github.com/ravitejaungrala/TinyLink/cmd"
	apperrors "github.com/ravitejaungrala/TinyLink/internal/errors"
	"github.com/ravitejaungrala/TinyLink/internal/repository"
	"github.com/ravitejaungrala/TinyLink/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// statsCodeFlag stockera la valeur du flag --code
var statsCodeFlag string

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Affiche les statistiques (clics et dernier clic) pour un lien court.",
	Long: `Cette commande permet de récupérer et d'afficher le nombre total de clics
et la date du dernier clic pour une URL courte spécifique en utilisant son code.

Exemple:
  tinylink stats --code="xyz123"`,
	Run: func(cmd *cobra.Command, args []string) {
		// Valider que le flag --code a été fourni.
		if statsCodeFlag == "" {
			log.Fatalf("FATAL: Le flag --code est requis")
		}

		cfg := cmd2.Cfg
		if cfg == nil {
			log.Fatalf("FATAL: La configuration n'a pas été chargée correctement.")
		}

		// Initialiser la connexion à la BDD.
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

		// S'assurer que la connexion est fermée à la fin de l'exécution de la commande grâce à defer
		defer func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Attention: Erreur lors de la fermeture de la connexion: %v", err)
			}
		}()

		// Initialiser les repositories et services nécessaires NewLinkRepository & NewLinkService
		linkRepo := repository.NewLinkRepository(db)
		linkService := services.NewLinkService(linkRepo, cfg.Allocator.CodeLength, cfg.Allocator.MaxAttempts)

		// Appeler GetLinkStats pour récupérer le lien et ses statistiques.
		link, err := linkService.GetLinkStats(statsCodeFlag)
		if err != nil {
			var notFound *apperrors.ErrLinkNotFound
			if errors.As(err, &notFound) {
				log.Fatalf("FATAL: Code court '%s' introuvable", statsCodeFlag)
			}
			log.Fatalf("FATAL: Erreur lors de la récupération des statistiques: %v", err)
		}

		fmt.Printf("Statistiques pour le code court: %s\n", link.Code)
		fmt.Printf("URL de destination: %s\n", link.TargetURL)
		fmt.Printf("Total de clics: %d\n", link.Clicks)
		if link.LastClicked != nil {
			fmt.Printf("Dernier clic: %s\n", link.LastClicked.Format(time.RFC3339))
		} else {
			fmt.Printf("Dernier clic: jamais\n")
		}
	},
}

// init() s'exécute automatiquement lors de l'importation du package.
// Il est utilisé pour définir les flags que cette commande accepte.
func init() {
	// Définir le flag --code pour la commande stats.
	StatsCmd.Flags().StringVarP(&statsCodeFlag, "code", "c", "", "Le code court dont on veut les statistiques")

	// Marquer le flag comme requis
	StatsCmd.MarkFlagRequired("code")

	// Ajouter la commande à RootCmd
	cmd2.RootCmd.AddCommand(StatsCmd)
}
