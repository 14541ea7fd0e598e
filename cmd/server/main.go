package main

import (
	"context"
	"log"

	"github.com/blogify-app/blogify/internal/server"
	"github.com/blogify-app/blogify/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
