package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/harrylevesque/sectorgate/internal/crypto"
)

func main() {
	keyFile := flag.String("out", "master.key", "Output file")
	flag.Parse()

	if _, err := os.Stat(*keyFile); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Refusing to overwrite.\n", *keyFile)
		os.Exit(1)
	}
	hexKey, err := crypto.NewMasterKeyHex()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating random key: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*keyFile, []byte(hexKey+"\n"), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *keyFile, err)
		os.Exit(1)
	}
	fmt.Printf("Master key written to %s\n", *keyFile)
	fmt.Println("Export it as SECTORGATE_MASTER_KEY_HEX before starting the server.")
}
