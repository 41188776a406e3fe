// Package cli parses taketake's command-line argv and renders its help text.
package cli

import (
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Parsed holds the dispatch command plus any config-file overrides given on
// the command line.
type Parsed struct {
	Command           Command
	ConfigPath        string
	ShowHelp          bool
	Source            string
	Dest              string
	Prefix            string
	Instrument        string
	NoModifySource    bool
	NoModifySourceSet bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			val, next, err := takeValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.ConfigPath = val
			i = next
		case "--source":
			val, next, err := takeValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.Source = val
			i = next
		case "--dest":
			val, next, err := takeValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.Dest = val
			i = next
		case "--prefix":
			val, next, err := takeValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.Prefix = val
			i = next
		case "--instrument":
			val, next, err := takeValue(args, i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.Instrument = val
			i = next
		case "--no-modify-source":
			parsed.NoModifySource = true
			parsed.NoModifySourceSet = true
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
		}
	}

	return parsed, nil
}

func takeValue(args []string, i int, flag string) (string, int, error) {
	i++
	if i >= len(args) {
		return "", i, fmt.Errorf("%s requires a value", flag)
	}
	return args[i], i, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [flags] <command>

Commands:
  run       Transfer recordings from source medium to destination
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH          Config file path (default: $XDG_CONFIG_HOME/taketake/config.jsonc)
  --source PATH          Override configured source directory
  --dest PATH            Override configured destination directory
  --prefix NAME          Override configured filename prefix
  --instrument NAME       Override configured instrument tag
  --no-modify-source     Never delete or rename source files
  -h, --help             Show help
  --version              Show version
`, binaryName)
}
