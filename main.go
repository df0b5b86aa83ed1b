package main

import (
	"log"

	"quizhub/cli"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
