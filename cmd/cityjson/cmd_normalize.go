package main

import (
	"fmt"

	"github.com/mohammed-shakir/cityjson-codec/internal/scene"
)

type CmdNormalize struct {
	global *GlobalOptions

	Output    string `short:"o" long:"output" description:"Output file (default stdout)"`
	NoDedupe  bool   `long:"no-dedupe" description:"Keep duplicate vertices"`
	Precision int    `short:"p" long:"precision" default:"-1" description:"Decimals compared when merging vertices (default from CITYJSON_PRECISION)"`
	KeepHoles bool   `long:"keep-holes" description:"Keep interior rings instead of dropping them"`
	Session   string `short:"s" long:"session" description:"Session file; keeps origin, CRS and transform across runs"`
}

func init() {
	_, err := parser.AddCommand("normalize",
		"Round-trip a document",
		"Decode, import into the reference scene, export and encode again",
		&CmdNormalize{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdNormalize) Usage() string {
	return "[file.json]"
}

func (cmd CmdNormalize) Execute(args []string) error {
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
	dedupe := cfg.Codec.Dedupe && !cmd.NoDedupe
	keepHoles := cfg.Codec.KeepHoles || cmd.KeepHoles

	data, err := readInput(in)
	if err != nil {
		return err
	}
	sess, err := loadSession(cmd.Session)
	if err != nil {
		return err
	}

	ctx := background(in)
	c := newCodec(cfg, zl, dedupe, precision, keepHoles)
	doc, _, err := c.Decode(ctx, data)
	if err != nil {
		return err
	}
	sc := scene.New(scene.Options{ReuseMaterials: cfg.Codec.ReuseMaterials})
	if _, err := c.Import(ctx, doc, sess, sc); err != nil {
		return err
	}
	out, rep, err := c.Assemble(ctx, sc.Export(), sess)
	if err != nil {
		return err
	}
	for _, e := range rep.ObjectsSkipped {
		zl.Warn().Err(e).Msg("object not exported")
	}
	b, _, err := c.Encode(ctx, out)
	if err != nil {
		return err
	}
	if err := saveSession(cmd.Session, sess); err != nil {
		return err
	}
	return writeOutput(cmd.Output, b)
}
