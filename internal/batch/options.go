package batch

import (
	"errors"
	"strings"

	"github.com/sha1n/cuvren/internal/document"
	"github.com/sha1n/cuvren/internal/domain"
)

var (
	// ErrNoFolders indicates the run was given no folders
	ErrNoFolders = errors.New("no folders selected")

	// ErrNoMode indicates neither renaming nor mutation was requested
	ErrNoMode = errors.New("select rename, mutate or both")

	// ErrNoProfile indicates renaming was requested without a naming configuration
	ErrNoProfile = errors.New("renaming requires a naming configuration")

	// ErrNoMutationMode indicates mutation was requested without choosing a mode
	ErrNoMutationMode = errors.New("mutation requires a mode (drop-rejected or clear-all)")

	// ErrFacilityUnavailable indicates the facility code and tax id could not be read
	ErrFacilityUnavailable = errors.New("facility data unavailable")
)

// Options are the inputs of one batch run.
type Options struct {
	// Folders are the roots to process, in order.
	Folders []string

	// Rename renames artifacts according to Naming.
	Rename bool

	// Mutate edits result documents according to Mode.
	Mutate bool
	Mode   document.MutationMode

	// Naming is required when Rename is set.
	Naming *domain.NamingConfig

	// ReportPath is where the run report is written. Empty skips the report.
	ReportPath string

	// Progress, when set, is called after every folder.
	Progress func(done, total int)
}

// Validate checks the preconditions of a run.
func (o Options) Validate() error {
	if len(o.Folders) == 0 {
		return ErrNoFolders
	}
	for _, f := range o.Folders {
		if strings.TrimSpace(f) == "" {
			return ErrNoFolders
		}
	}
	if !o.Rename && !o.Mutate {
		return ErrNoMode
	}
	if o.Rename && o.Naming == nil {
		return ErrNoProfile
	}
	if o.Mutate && o.Mode == document.ModeNone {
		return ErrNoMutationMode
	}
	return nil
}
