// Package par2 wraps the external par2 binary: parity-set creation,
// verification, and zero-byte-volume regeneration (spec.md §4.6, §6,
// invariant I3).
package par2

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/progress"
)

// ErrCreateFail and ErrVerifyFail classify external-tool failures into the
// ErrorKind values spec.md §7 names (Par2CreateFail, Par2VerifyFail).
var (
	ErrCreateFail = fmt.Errorf("par2: creation failed")
	ErrVerifyFail = fmt.Errorf("par2: verification failed")
)

// VolumePaths globs the <flacPath>.vol*.par2 parity volumes for flacPath.
func VolumePaths(flacPath string) ([]string, error) {
	matches, err := filepath.Glob(flacPath + ".vol*.par2")
	if err != nil {
		return nil, fmt.Errorf("glob par2 volumes for %q: %w", flacPath, err)
	}
	return matches, nil
}

// EnsureSet implements spec.md §4.6 steps 2-3: any zero-byte volume
// triggers full regeneration (I3); otherwise an existing non-empty set is
// left alone.
func EnsureSet(ctx context.Context, tools config.ToolsConfig, par2cfg config.Par2Config, flacPath string) error {
	vols, err := VolumePaths(flacPath)
	if err != nil {
		return err
	}

	zero, err := progress.ZeroByteEntries(vols)
	if err != nil {
		return err
	}
	if len(zero) > 0 {
		for _, v := range vols {
			if err := removeQuiet(v); err != nil {
				return err
			}
		}
		vols = nil
	}

	if len(vols) > 0 {
		return nil
	}

	return create(ctx, tools, par2cfg, flacPath)
}

func create(ctx context.Context, tools config.ToolsConfig, par2cfg config.Par2Config, flacPath string) error {
	if len(tools.Par2Create.Argv) == 0 {
		return fmt.Errorf("%w: tools.par2_create is not configured", ErrCreateFail)
	}

	argv := append([]string{}, tools.Par2Create.Argv...)
	argv = append(argv,
		"create",
		fmt.Sprintf("-r%d", par2cfg.RedundancyPercent),
		fmt.Sprintf("-n%d", par2cfg.MinVolumes),
		flacPath,
	)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrCreateFail, err)
	}
	return nil
}

// Verify implements spec.md §4.6 step 6 / §4.8 step 4: exit 0 iff every
// block is recoverable.
func Verify(ctx context.Context, tools config.ToolsConfig, flacPath string) error {
	if len(tools.Par2Verify.Argv) == 0 {
		return fmt.Errorf("%w: tools.par2_verify is not configured", ErrVerifyFail)
	}

	argv := append([]string{}, tools.Par2Verify.Argv...)
	argv = append(argv, "verify", flacPath)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrVerifyFail, err)
	}
	return nil
}

func removeQuiet(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove corrupt par2 volume %q: %w", path, err)
	}
	return nil
}
