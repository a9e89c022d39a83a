package cli

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite" // Driver SQLite pour GORM
	cmd2 "github.com/ravitejaungrala/TinyLink/cmd"
	"github.com/ravitejaungrala/TinyLink/internal/repository"
	"github.com/ravitejaungrala/TinyLink/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// targetURLFlag stockera la valeur du flag --url
var targetURLFlag string

// customCodeFlag stockera la valeur du flag --code (code personnalisé optionnel)
var customCodeFlag string

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une URL courte à partir d'une URL de destination.",
	Long: `Cette commande raccourcit une URL de destination fournie et affiche le code court.
Un code personnalisé (6 à 8 caractères alphanumériques) peut être fourni avec --code ;
sinon un code de 6 caractères est généré automatiquement.

Exemple:
  tinylink create --url="https://www.google.com/search?q=go+lang"
  tinylink create --url="https://x.com" --code="short1"`,
	Run: func(cmd *cobra.Command, args []string) {
		// Valider que le flag --url a été fourni.
		if targetURLFlag == "" {
			log.Fatalf("FATAL: Le flag --url est requis")
		}

		cfg := cmd2.Cfg
		if cfg == nil {
			log.Fatalf("FATAL: La configuration n'a pas été chargée correctement.")
		}

		// Initialiser la connexion à la base de données SQLite.
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

		// S'assurer que la connexion est fermée à la fin de l'exécution de la commande
		defer func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Attention: Erreur lors de la fermeture de la connexion: %v", err)
			}
		}()

		// Initialiser les repositories et services nécessaires NewLinkRepository & NewLinkService
		linkRepo := repository.NewLinkRepository(db)
		linkService := services.NewLinkService(linkRepo, cfg.Allocator.CodeLength, cfg.Allocator.MaxAttempts)

		// Appeler le LinkService pour créer le lien court.
		// La validation de l'URL et du code est faite par le service.
		link, err := linkService.CreateLink(targetURLFlag, customCodeFlag)
		if err != nil {
			log.Fatalf("FATAL: Échec de la création du lien court: %v", err)
		}

		fullShortURL := fmt.Sprintf("%s/%s", cfg.Server.BaseURL, link.Code)
		fmt.Printf("URL courte créée avec succès:\n")
		fmt.Printf("Code: %s\n", link.Code)
		fmt.Printf("URL de destination: %s\n", link.TargetURL)
		fmt.Printf("URL complète: %s\n", fullShortURL)
	},
}

// init() s'exécute automatiquement lors de l'importation du package.
// Il est utilisé pour définir les flags que cette commande accepte.
func init() {
	// Définir les flags --url et --code pour la commande create.
	CreateCmd.Flags().StringVarP(&targetURLFlag, "url", "u", "", "L'URL de destination à raccourcir")
	CreateCmd.Flags().StringVarP(&customCodeFlag, "code", "c", "", "Code personnalisé optionnel (6 à 8 caractères alphanumériques)")

	// Marquer le flag comme requis
	CreateCmd.MarkFlagRequired("url")

	// Ajouter la commande à RootCmd
	cmd2.RootCmd.AddCommand(CreateCmd)
}
