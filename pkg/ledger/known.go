package ledger

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/ledgeru/pkg/config"
	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/ynab"
)

// Known merges every key source the configuration names: the key file, the
// journal and the YNAB account. Sources left empty are skipped.
func Known(cfg *config.Config, logger *log.Logger) (identity.Set, error) {
	var sets []identity.Set

	if cfg.KnownKeys != "" {
		keys, err := LoadKeyFile(cfg.KnownKeys)
		if err != nil {
			return identity.Set{}, err
		}
		logger.Debug("loaded key file", "file", cfg.KnownKeys, "keys", keys.Len())
		sets = append(sets, keys)
	}

	if cfg.Journal != "" {
		keys, err := ScanJournalFile(cfg.Journal)
		if err != nil {
			return identity.Set{}, err
		}
		logger.Debug("scanned journal", "file", cfg.Journal, "keys", keys.Len())
		sets = append(sets, keys)
	}

	if cfg.YNAB.BudgetID != "" && cfg.YNAB.AccountID != "" {
		token := os.Getenv(cfg.YNAB.TokenEnv)
		if token == "" {
			return identity.Set{}, fmt.Errorf("ynab account configured but $%s is empty", cfg.YNAB.TokenEnv)
		}
		keys, err := ynab.New(token, cfg.YNAB.BudgetID, cfg.YNAB.AccountID).Keys()
		if err != nil {
			return identity.Set{}, err
		}
		logger.Debug("fetched ynab keys", "account", cfg.YNAB.AccountID, "keys", keys.Len())
		sets = append(sets, keys)
	}

	return Merge(sets...), nil
}
