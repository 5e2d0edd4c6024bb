// Command server runs the docbase HTTP API.
//
//	@title			docbase API
//	@version		1.0
//	@description	Document repository service with soft delete, pagination, sorting and search.
//	@BasePath		/api/v1
package main

import (
	"flag"
	"log"

	"github.com/simp-lee/docbase/internal/app"
	"github.com/simp-lee/docbase/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	envPath := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Fatal("failed to load env file: ", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal("failed to create app: ", err)
	}

	if err := a.Run(); err != nil {
		log.Fatal("server error: ", err)
	}
}
