package main

import (
	"log"
	"os"

	"github.com/medoro/medoro-go/internal"
)

func main() {
	if err := internal.Run(os.Args[1:]); err != nil {
		log.Fatalf("medoro: %v", err)
	}
}
