package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// .env es opcional: en prod la config llega por entorno real.
	_ = godotenv.Load()

	var (
		configPath = envOr("FIELDTASK_CONFIG", "")
		baseURL    = envOr("FIELDTASK_URL", "http://localhost:8090")
		out        = envOr("FIELDTASK_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "fieldtask",
		Short: "Tablero de tareas para equipos de campo",
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Ruta del YAML de configuración (env FIELDTASK_CONFIG)")
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del tablero para los comandos cliente (env FIELDTASK_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newClientCmds(&baseURL, &out)...)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
