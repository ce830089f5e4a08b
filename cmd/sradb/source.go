package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/nishad/sradb/internal/database"
	"github.com/nishad/sradb/internal/resolver"
	"github.com/nishad/sradb/internal/search"
	"github.com/nishad/sradb/internal/sraweb"
	"github.com/nishad/sradb/internal/table"
)

// eutilsConfig builds the live client settings from the loaded config.
func eutilsConfig() sraweb.Config {
	return sraweb.Config{
		BaseURL:         cfg.EUtils.BaseURL,
		APIKey:          cfg.EUtils.APIKey,
		Email:           cfg.EUtils.Email,
		Tool:            cfg.EUtils.Tool,
		Timeout:         cfg.EUtils.Timeout(),
		RequestInterval: cfg.EUtils.RequestInterval(),
		Debug:           debug,
	}
}

// openSource returns the snapshot when one is configured and the live API
// otherwise. A configured snapshot that cannot be opened is fatal.
func openSource() (resolver.Source, string, error) {
	if cfg.Database != "" {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, "", err
		}
		printDebug("Using snapshot %s", cfg.Database)
		return db, "snapshot", nil
	}
	printDebug("Using NCBI E-utilities at %s", cfg.EUtils.BaseURL)
	return sraweb.New(eutilsConfig()), "eutils", nil
}

func searchOptions() search.Options {
	return search.Options{
		EUtils:       sraweb.New(eutilsConfig()),
		ENAPortalURL: cfg.ENA.PortalURL,
		HTTPClient:   &http.Client{Timeout: cfg.EUtils.Timeout()},
	}
}

// output flags shared by every command that prints a table
type outputFlags struct {
	saveTo string
	format string
}

// write prints identifier errors as warnings and then emits t to stdout or
// to the --saveto file.
func (o outputFlags) write(t *table.Table, failures []resolver.IdentifierError) error {
	for _, e := range failures {
		printWarning("%s", e.Error())
	}

	if o.saveTo != "" {
		if err := table.Save(o.saveTo, t); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
		printSuccess("Saved %d rows to %s", t.Len(), o.saveTo)
		return nil
	}

	f, err := table.ParseFormat(o.format)
	if err != nil {
		return err
	}
	return table.Write(os.Stdout, t, f)
}
