package main

import (
	"fmt"
)

type CmdDedupe struct {
	global *GlobalOptions

	Output    string `short:"o" long:"output" description:"Output file (default stdout)"`
	Precision int    `short:"p" long:"precision" default:"-1" description:"Decimals compared when merging vertices (default from CITYJSON_PRECISION)"`
}

func init() {
	_, err := parser.AddCommand("dedupe",
		"Merge duplicate vertices",
		"Merge vertices equal at the given precision and rewrite every boundary",
		&CmdDedupe{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdDedupe) Usage() string {
	return "[file.json]"
}

func (cmd CmdDedupe) Execute(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("too many arguments, usage: %s", cmd.Usage())
	}
	in := ""
	if len(args) == 1 {
		in = args[0]
	}
	cfg, zl := cmd.global.Setup()
	precision := cmd.Precision
	if precision < 0 {
		precision = cfg.Codec.Precision
	}

	data, err := readInput(in)
	if err != nil {
		return err
	}
	ctx := background(in)
	c := newCodec(cfg, zl, true, precision, false)
	doc, _, err := c.Decode(ctx, data)
	if err != nil {
		return err
	}
	b, rep, err := c.Encode(ctx, doc)
	if err != nil {
		return err
	}
	zl.Info().Int("removed", rep.VerticesRemoved).Int("precision", precision).Msg("deduplicated")
	return writeOutput(cmd.Output, b)
}
