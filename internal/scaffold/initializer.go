package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tkforge/tk/internal/config"
	"github.com/tkforge/tk/internal/index"
)

// defaultConfig is the tk.yml written by tk init.
const defaultConfig = `version: "1.0"
dir: tickets
workflow: simple-v1
policy_tier: integrity
`

// Initialize creates the tk project structure: tk.yml, the ticket directory
// and an empty index. If force is true, an existing tk.yml is replaced; the
// ticket directory is never removed.
func Initialize(force bool) error {
	if _, err := os.Stat(config.FileName); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to replace it)", config.FileName)
	}

	if err := os.WriteFile(config.FileName, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.FileName, err)
	}

	if err := os.MkdirAll(config.DefaultDir, 0755); err != nil {
		return fmt.Errorf("failed to create ticket directory: %w", err)
	}

	// .gitkeep so the empty directory survives a commit.
	keep := filepath.Join(config.DefaultDir, ".gitkeep")
	if err := os.WriteFile(keep, nil, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", keep, err)
	}

	if _, err := os.Stat(index.FileName); os.IsNotExist(err) || force {
		empty := index.Generate(nil, config.DefaultWorkflow, time.Now())
		data, err := index.Encode(empty)
		if err != nil {
			return err
		}
		if err := os.WriteFile(index.FileName, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", index.FileName, err)
		}
	}

	return validateCreated()
}

// validateCreated re-reads the files Initialize wrote, so a broken scaffold
// fails loudly instead of surfacing on the first real command.
func validateCreated() error {
	if _, err := config.Load(config.FileName); err != nil {
		return fmt.Errorf("scaffold verification failed: %w", err)
	}
	raw, err := os.ReadFile(index.FileName)
	if err != nil {
		return fmt.Errorf("scaffold verification failed: %w", err)
	}
	if _, err := index.Decode(raw); err != nil {
		return fmt.Errorf("scaffold verification failed: %w", err)
	}
	return nil
}
