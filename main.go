package main

import (
	"log/slog"
	"net/http"
	"os"

	_ "net/http/pprof" // profiling

	_ "github.com/joho/godotenv/autoload" // automatically load .env files

	"github.com/skimread/skim/internal/cmd"
)

func main() {
	if os.Getenv("SKIM_PROFILE") != "" {
		go func() {
			slog.Info("Serving pprof at localhost:6061")
			if err := http.ListenAndServe("localhost:6061", nil); err != nil {
				slog.Error("Failed to serve pprof", "error", err)
			}
		}()
	}

	cmd.Execute()
}
