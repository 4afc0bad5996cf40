package main

import (
	"log"

	"github.com/sanketmuchhala/ApplicationAgent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
