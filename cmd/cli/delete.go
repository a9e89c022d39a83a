package cli

import (
	"errors"
	"fmt"
	"log"

	"github.com/glebarez/sqlite" // Driver SQLite pour GORM
	cmd2 "github.com/ravitejaungrala/TinyLink/cmd"
	apperrors "github.com/ravitejaungrala/TinyLink/internal/errors"
	"github.com/ravitejaungrala/TinyLink/internal/repository"
	"github.com/ravitejaungrala/TinyLink/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// deleteCodeFlag stockera la valeur du flag --code
var deleteCodeFlag string

// DeleteCmd représente la commande 'delete'
var DeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Supprime définitivement un lien court.",
	Long: `Cette commande supprime définitivement un lien court de la base de données
en utilisant son code. La suppression est irréversible : le code redevient libre.

Exemple:
  tinylink delete --code="xyz123"`,
	Run: func(cmd *cobra.Command, args []string) {
		// Valider que le flag --code a été fourni.
		if deleteCodeFlag == "" {
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

		// S'assurer que la connexion est fermée à la fin de l'exécution de la commande
		defer func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Attention: Erreur lors de la fermeture de la connexion: %v", err)
			}
		}()

		// Initialiser les repositories et services nécessaires
		linkRepo := repository.NewLinkRepository(db)
		linkService := services.NewLinkService(linkRepo, cfg.Allocator.CodeLength, cfg.Allocator.MaxAttempts)

		// Appeler DeleteLink pour supprimer le lien.
		if err := linkService.DeleteLink(deleteCodeFlag); err != nil {
			var notFound *apperrors.ErrLinkNotFound
			if errors.As(err, &notFound) {
				log.Fatalf("FATAL: Code court '%s' introuvable", deleteCodeFlag)
			}
			log.Fatalf("FATAL: Erreur lors de la suppression du lien: %v", err)
		}

		fmt.Printf("Lien '%s' supprimé avec succès.\n", deleteCodeFlag)
	},
}

// init() s'exécute automatiquement lors de l'importation du package.
// Il est utilisé pour définir les flags que cette commande accepte.
func init() {
	// Définir le flag --code pour la commande delete.
	DeleteCmd.Flags().StringVarP(&deleteCodeFlag, "code", "c", "", "Le code court du lien à supprimer")

	// Marquer le flag comme requis
	DeleteCmd.MarkFlagRequired("code")

	// Ajouter la commande à RootCmd
	cmd2.RootCmd.AddCommand(DeleteCmd)
}
