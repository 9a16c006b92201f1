package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taskmasterd/taskmasterd/internal/signalname"
)

// Document is the parsed top-level configuration: a mapping of program name
// to its validated TaskOptions.
type Document struct {
	Programs map[string]TaskOptions
}

// rawProgram mirrors the on-disk YAML shape before validation. Every field
// is a pointer or has its own presence marker so we can tell "absent" from
// "zero value" and apply defaults correctly.
type rawProgram struct {
	Cmd         string      `yaml:"cmd"`
	NumProcs    *uint       `yaml:"numprocs"`
	AutoStart   *bool       `yaml:"autostart"`
	AutoRestart interface{} `yaml:"autorestart"`
	ExitCodes   []int       `yaml:"exitcodes"`
	StartTime   *uint       `yaml:"starttime"`
	Retries     *uint       `yaml:"retries"`
	StopSignal  *string     `yaml:"stopsignal"`
	StopTime    *uint       `yaml:"stoptime"`
	Stdout      *string     `yaml:"stdout"`
	Stderr      *string     `yaml:"stderr"`
	Env         map[string]string `yaml:"env"`
	WorkingDir  *string     `yaml:"workingdir"`
	Umask       interface{} `yaml:"umask"`
}

type rawDocument struct {
	Programs yaml.Node `yaml:"programs"`
}

var knownKeys = map[string]bool{
	"cmd": true, "numprocs": true, "autostart": true, "autorestart": true,
	"exitcodes": true, "starttime": true, "retries": true, "stopsignal": true,
	"stoptime": true, "stdout": true, "stderr": true, "env": true,
	"workingdir": true, "umask": true,
}

// LoadFile reads and validates the document at path. On any error the
// returned error carries the path and reason; no partial Document is
// returned.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to load %s: %w", path, err)
	}

	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("Failed to load %s: %w", path, err)
	}

	// Programs is kept as a raw yaml.Node (not decoded straight into a Go
	// map) specifically so a duplicate key's position survives long enough
	// for us to apply first-wins instead of the map decoder's duplicate-key
	// error.
	content := raw.Programs.Content
	doc := &Document{Programs: make(map[string]TaskOptions, len(content)/2)}
	for i := 0; i+1 < len(content); i += 2 {
		name := content[i].Value
		if _, dup := doc.Programs[name]; dup {
			log.Printf("config: duplicate program %q in %s, first definition wins", name, path)
			continue
		}
		opts, err := parseProgram(name, *content[i+1])
		if err != nil {
			return nil, fmt.Errorf("Failed to load %s: program %q: %w", path, name, err)
		}
		doc.Programs[name] = opts
	}
	return doc, nil
}

func parseProgram(name string, node yaml.Node) (TaskOptions, error) {
	var keys map[string]yaml.Node
	if err := node.Decode(&keys); err != nil {
		return TaskOptions{}, err
	}
	for key := range keys {
		if !knownKeys[key] {
			log.Printf("config: the %s value was ignored in %s", key, name)
		}
	}

	var raw rawProgram
	if err := node.Decode(&raw); err != nil {
		return TaskOptions{}, err
	}

	if strings.TrimSpace(raw.Cmd) == "" {
		return TaskOptions{}, fmt.Errorf("cmd is required")
	}

	opts := Defaults()
	opts.Argv = strings.Fields(raw.Cmd)

	if raw.NumProcs != nil {
		opts.NumProcs = *raw.NumProcs
	}
	if raw.AutoStart != nil {
		opts.AutoStart = *raw.AutoStart
	}
	if raw.StartTime != nil {
		opts.StartSeconds = *raw.StartTime
	}
	if raw.Retries != nil {
		opts.Retries = *raw.Retries
	}
	if raw.StopTime != nil {
		opts.StopSeconds = *raw.StopTime
	}
	if raw.Stdout != nil {
		opts.Stdout = *raw.Stdout
	}
	if raw.Stderr != nil {
		opts.Stderr = *raw.Stderr
	}
	if raw.WorkingDir != nil {
		opts.WorkingDir = *raw.WorkingDir
	}
	if raw.Env != nil {
		opts.Env = raw.Env
	}

	if raw.StopSignal != nil {
		sig, err := signalname.Parse(*raw.StopSignal)
		if err != nil {
			return TaskOptions{}, err
		}
		opts.StopSignal = sig
	}

	ar, err := parseAutoRestart(raw.AutoRestart, raw.ExitCodes)
	if err != nil {
		return TaskOptions{}, err
	}
	opts.AutoRestart = ar

	if raw.Umask != nil {
		mask, err := parseUmask(raw.Umask)
		if err != nil {
			return TaskOptions{}, err
		}
		opts.Umask = mask
	}

	return opts, nil
}

// parseAutoRestart accepts true/false/"unexpected" for autorestart, with
// exitcodes naming the codes that do NOT trigger a respawn when
// "unexpected" is chosen (default {0} if none given).
func parseAutoRestart(raw interface{}, exitCodes []int) (AutoRestart, error) {
	if raw == nil {
		return AutoRestart{Mode: RestartAlways}, nil
	}
	switch v := raw.(type) {
	case bool:
		if v {
			return AutoRestart{Mode: RestartAlways}, nil
		}
		return AutoRestart{Mode: RestartNever}, nil
	case string:
		switch strings.ToLower(v) {
		case "always", "true":
			return AutoRestart{Mode: RestartAlways}, nil
		case "never", "false":
			return AutoRestart{Mode: RestartNever}, nil
		case "unexpected":
			codes := exitCodes
			if len(codes) == 0 {
				codes = []int{0}
			}
			set := make(map[int]struct{}, len(codes))
			for _, c := range codes {
				set[c] = struct{}{}
			}
			return AutoRestart{Mode: RestartUnexpected, ExitCodes: set}, nil
		default:
			return AutoRestart{}, fmt.Errorf("invalid autorestart value %q", v)
		}
	default:
		return AutoRestart{}, fmt.Errorf("invalid autorestart value %v", v)
	}
}

// parseUmask accepts either a YAML integer or an octal string like "022".
func parseUmask(raw interface{}) (uint32, error) {
	switch v := raw.(type) {
	case int:
		return uint32(v), nil
	case string:
		n, err := strconv.ParseUint(v, 8, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid umask %q: %w", v, err)
		}
		return uint32(n), nil
	default:
		return 0, fmt.Errorf("invalid umask value %v", v)
	}
}
