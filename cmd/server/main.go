package main

import (
	"context"
	"log"

	server "github.com/MoCipher/EmailAlies/internal/server"
	"github.com/MoCipher/EmailAlies/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
