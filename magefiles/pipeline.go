//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline targets run the built CLI against files named by environment
// variables, so a whole screening run can be driven from mage.
type Pipeline mg.Namespace

func binary() string {
	return filepath.Join(binDir, binName)
}

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("set %s", name)
	}
	return v, nil
}

// Index creates the vector store at $STORE (default rag.db) if needed and
// embeds $RECORDS into it.
func (Pipeline) Index() error {
	mg.Deps(Build)
	records, err := requireEnv("RECORDS")
	if err != nil {
		return err
	}
	store := os.Getenv("STORE")
	if store == "" {
		store = "rag.db"
	}
	if _, err := os.Stat(store); os.IsNotExist(err) {
		if err := sh.RunV(binary(), "index", "init", "--db", store); err != nil {
			return err
		}
	}
	return sh.RunV(binary(), "index", "build", "--db", store, records)
}

// Classify screens $RECORDS, resuming from an existing results file.
func (Pipeline) Classify() error {
	mg.Deps(Build)
	records, err := requireEnv("RECORDS")
	if err != nil {
		return err
	}
	return sh.RunV(binary(), "classify", "--resume", records)
}

// Summary prints the summary of the current results file.
func (Pipeline) Summary() error {
	mg.Deps(Build)
	return sh.RunV(binary(), "summary")
}
