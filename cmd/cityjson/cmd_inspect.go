package main

import (
	"encoding/json"
	"fmt"

	"github.com/mohammed-shakir/cityjson-codec/internal/scene"
)

type CmdInspect struct {
	global *GlobalOptions

	KeepHoles bool `long:"keep-holes" description:"Keep interior rings instead of dropping them"`
}

func init() {
	_, err := parser.AddCommand("inspect",
		"Inspect a document",
		"Decode a CityJSON file into the reference scene and print what it holds and what was skipped",
		&CmdInspect{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdInspect) Usage() string {
	return "[file.json]"
}

func (cmd CmdInspect) Execute(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("too many arguments, usage: %s", cmd.Usage())
	}
	in := ""
	if len(args) == 1 {
		in = args[0]
	}
	cfg, zl := cmd.global.Setup()

	data, err := readInput(in)
	if err != nil {
		return err
	}
	ctx := background(in)
	c := newCodec(cfg, zl, false, cfg.Codec.Precision, cmd.KeepHoles)
	doc, rep, err := c.Decode(ctx, data)
	if err != nil {
		return err
	}
	sc := scene.New(scene.Options{ReuseMaterials: cfg.Codec.ReuseMaterials})
	irep, err := c.Import(ctx, doc, nil, sc)
	if err != nil {
		return err
	}

	out := struct {
		Version string        `json:"version"`
		CRS     string        `json:"crs,omitempty"`
		Scene   scene.Summary `json:"scene"`
		Decode  any           `json:"decode"`
		Import  any           `json:"import"`
	}{Version: doc.Version, Scene: sc.Summary(), Decode: rep, Import: irep}
	if doc.Metadata != nil {
		out.CRS = doc.Metadata.ReferenceSystem
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput("", b)
}
