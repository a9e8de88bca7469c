package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davicafu/hexaquery/internal/config"
)

var (
	cfgFile string
	v       = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "hexaquery",
	Short: "Consultas declarativas sobre memoria, SQL, MongoDB y REST",
	Long: `hexaquery expone recursos con un API estilo PostgREST y traduce las
consultas al backend configurado (memory, sqlite, postgres, mongodb o rest).`,
	SilenceUsage: true,
}

// Execute ejecuta el comando raíz.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json o toml)")
	flags.String("backend", config.BackendMemory, "backend: memory, sqlite, postgres, mongodb, rest")
	flags.String("resources", "users", "recursos expuestos, separados por comas")
	flags.String("names", "snake", "convención de nombres en el cable: snake o identity")
	flags.String("log-level", "info", "nivel de log (debug, info, warn, error)")

	_ = v.BindPFlag("backend", flags.Lookup("backend"))
	_ = v.BindPFlag("resources", flags.Lookup("resources"))
	_ = v.BindPFlag("names", flags.Lookup("names"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(compileCmd)
}
