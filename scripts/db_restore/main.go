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

	backupPath := cfg.DatabasePath + ".bak"
	src, err := os.Open(backupPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Open backup error: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	dst, err := os.Create(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Create target error: %v\n", err)
		os.Exit(1)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		fmt.Fprintf(os.Stderr, "Copy error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database restored from %s\n", backupPath)
}
