// Package doctor runs runtime readiness diagnostics for config, external
// tools, and the source/destination directories.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/soundkeeper/taketake/internal/cachehint"
	"github.com/soundkeeper/taketake/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkCommand(cfg.Config.Tools.SpeechToText.Argv, "tools.speech_to_text"))
	checks = append(checks, checkCommand(cfg.Config.Tools.FlacEncode.Argv, "tools.flac_encode"))
	checks = append(checks, checkCommand(cfg.Config.Tools.FlacDecode.Argv, "tools.flac_decode"))
	checks = append(checks, checkCommand(cfg.Config.Tools.Par2Create.Argv, "tools.par2_create"))
	checks = append(checks, checkCommand(cfg.Config.Tools.Par2Verify.Argv, "tools.par2_verify"))
	checks = append(checks, checkCommand(cfg.Config.Tools.Xdelta3.Argv, "tools.xdelta3"))

	if len(cfg.Config.Tools.Prompt.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Tools.Prompt.Argv, "tools.prompt"))
	}

	checks = append(checks, checkDirReadable("source", cfg.Config.Source))
	checks = append(checks, checkDirWritable("dest", cfg.Config.Dest))
	checks = append(checks, checkCacheHint())

	return Report{Checks: checks}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkDirReadable validates that a directory exists and can be listed.
func checkDirReadable(name, path string) Check {
	if strings.TrimSpace(path) == "" {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s is not configured", name)}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("cannot read %q: %v", path, err)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%q readable (%d entries)", path, len(entries))}
}

// checkDirWritable validates that a directory exists and accepts a probe file.
func checkDirWritable(name, path string) Check {
	if strings.TrimSpace(path) == "" {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s is not configured", name)}
	}
	probe := filepath.Join(path, ".taketake-doctor-probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o600); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("cannot write to %q: %v", path, err)}
	}
	_ = os.Remove(probe)
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%q writable", path)}
}

// checkCacheHint validates that the page-cache eviction advisory is usable
// on this OS, since flacenc, pargen and xdelta rely on it to confirm pages
// were dropped.
func checkCacheHint() Check {
	if err := cachehint.Available(); err != nil {
		return Check{Name: "cache-advisory", Pass: false, Message: err.Error()}
	}
	return Check{Name: "cache-advisory", Pass: true, Message: "page-cache eviction advisory available"}
}
