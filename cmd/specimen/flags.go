package main

import "github.com/urfave/cli/v2"

// Flags override the matching config file keys when set.
var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to specimen.yaml",
		EnvVars: []string{"SPECIMEN_CONFIG"},
	}

	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, yaml, msgpack, table",
	}

	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored table output",
	}
)

// outputFlags are shared by every command that renders something
func outputFlags() []cli.Flag {
	return []cli.Flag{configFlag, logLevelFlag, formatFlag, noColorFlag}
}

// signatureFlags locate the signature database
func signatureFlags() []cli.Flag {
	return append(outputFlags(),
		&cli.StringFlag{
			Name:    "signatures",
			Aliases: []string{"s"},
			Usage:   "Packer signature database (PEiD userdb.txt or YAML)",
		},
		&cli.StringFlag{
			Name:  "signatures-format",
			Usage: "Signature database format: peid, yaml (default: from extension)",
		},
	)
}

// analysisFlags configure the analysis pipeline and the report sink
func analysisFlags() []cli.Flag {
	return append(signatureFlags(),
		&cli.IntFlag{
			Name:  "entry-window",
			Usage: "Bytes retained at the entry point for signature matching",
		},
		&cli.BoolFlag{
			Name:  "exhaustive",
			Usage: "Record every matching signature instead of the first",
		},
		&cli.StringFlag{
			Name:  "upx",
			Usage: "Path to the upx executable used to probe ELF files",
		},
		&cli.DurationFlag{
			Name:  "probe-timeout",
			Usage: "Time limit for one unpack probe",
		},
		&cli.IntFlag{
			Name:  "min-length",
			Usage: "Minimum printable string length",
		},
		&cli.StringFlag{
			Name:  "strings-tool",
			Usage: "String extraction: builtin, external",
		},
		&cli.StringFlag{
			Name:  "sink",
			Usage: "Report sink backend: none, fs, s3",
		},
		&cli.StringFlag{
			Name:  "sink-path",
			Usage: "Root directory of the fs sink",
		},
	)
}
