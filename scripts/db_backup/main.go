package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cosminimum/theregistry/internal/config"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	src, err := os.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Open source error: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	backupPath := cfg.DatabasePath + ".bak"
	dst, err := os.Create(backupPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Create backup error: %v\n", err)
		os.Exit(1)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		fmt.Fprintf(os.Stderr, "Copy error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Backup written to %s\n", backupPath)
}
