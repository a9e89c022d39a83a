package cmd

import (
	"log"
	"os"

	"github.com/ravitejaungrala/TinyLink/internal/config"
	"github.com/spf13/cobra"
)

// Cfg contient la configuration globale de l'application, chargée une seule fois
// avant l'exécution de n'importe quelle sous-commande. Les packages cmd/cli et
// cmd/server y accèdent directement.
var Cfg *config.Config

// RootCmd est la commande racine de l'application.
// Toutes les sous-commandes (server, migrate, create, stats, delete) s'y rattachent
// via leur fonction init().
var RootCmd = &cobra.Command{
	Use:   "tinylink",
	Short: "TinyLink est un raccourcisseur d'URLs avec suivi des clics.",
	Long: `TinyLink est une application de raccourcissement d'URLs.
Elle expose un serveur HTTP pour la création, la redirection et les statistiques
des liens courts, ainsi que des commandes CLI pour administrer la base.`,
	// PersistentPreRun s'exécute avant chaque sous-commande : on en profite
	// pour charger la configuration une seule fois.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("FATAL: Impossible de charger la configuration: %v", err)
		}
		Cfg = cfg
	},
}

// Execute lance l'analyse des arguments et l'exécution de la sous-commande choisie.
// C'est la seule fonction appelée par main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
